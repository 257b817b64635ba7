package resolve

import (
	"time"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/model"
	"github.com/unkn0wn-root/restdock/internal/secret"
	"github.com/unkn0wn-root/restdock/internal/store"
)

// DefaultTimeout applies when neither the environment nor the schema sets one.
const DefaultTimeout = 30 * time.Second

type Resolver struct {
	store          store.Store
	secrets        secret.Store
	defaultTimeout time.Duration
}

func NewResolver(configs store.Store, secrets secret.Store) *Resolver {
	return &Resolver{store: configs, secrets: secrets}
}

// SetDefaultTimeout overrides the built-in fallback timeout. Zero keeps the
// package default.
func (r *Resolver) SetDefaultTimeout(d time.Duration) {
	r.defaultTimeout = d
}

type AuthResolution struct {
	Auth      model.AuthConfig
	SecretKey string
}

// Resolve merges the layered configuration for one schema/environment pair.
// Header precedence, lowest to highest: schema defaults, platform required
// headers, environment custom headers.
func (r *Resolver) Resolve(schemaID, environmentID string) (model.ResolvedConfig, error) {
	var resolved model.ResolvedConfig

	env, ok, err := r.store.Environment(environmentID)
	if err != nil {
		return resolved, err
	}
	if !ok {
		return resolved, errdef.New(errdef.CodeNotFound, "environment %s not found", environmentID)
	}

	if schemaID == "" {
		schemaID = env.SchemaID
	}
	if schemaID != env.SchemaID {
		return resolved, errdef.New(
			errdef.CodeNotFound,
			"environment %s does not belong to schema %s",
			env.Name, schemaID,
		)
	}

	schema, ok, err := r.store.Schema(schemaID)
	if err != nil {
		return resolved, err
	}
	if !ok {
		// dangling reference: the environment names a schema the store no
		// longer has. Surfaced, never silently defaulted.
		return resolved, errdef.New(
			errdef.CodeSchemaMissing,
			"environment %s references missing schema %s",
			env.Name, schemaID,
		)
	}

	headers := make(map[string]string)
	if schema.BaseConfig != nil {
		for name, value := range schema.BaseConfig.DefaultHeaders {
			headers[name] = value
		}
	}
	if schema.PlatformConfig != nil {
		for _, pair := range schema.PlatformConfig.RequiredHeaders {
			headers[pair.Name] = pair.Value
		}
	}
	for name, value := range env.CustomHeaders {
		headers[name] = value
	}

	auth := r.ResolveAuth(env)

	resolved = model.ResolvedConfig{
		Environment:     env,
		Schema:          schema,
		ResolvedHeaders: headers,
		ResolvedAuth:    auth.Auth,
		SecretKey:       auth.SecretKey,
		ResolvedTimeout: r.resolveTimeout(env, schema),
		PlatformConfig:  schema.PlatformConfig,
	}
	return resolved, nil
}

func (r *Resolver) resolveTimeout(env model.Environment, schema model.Schema) time.Duration {
	if env.Timeout > 0 {
		return env.Timeout
	}
	if schema.BaseConfig != nil && schema.BaseConfig.DefaultTimeout > 0 {
		return schema.BaseConfig.DefaultTimeout
	}
	if r.defaultTimeout > 0 {
		return r.defaultTimeout
	}
	return DefaultTimeout
}

// ResolveAuth picks the credential record that applies: the environment's own
// auth always wins; otherwise the owning group's default applies. Groups do
// not inherit from schemas, so the chain stops there. A dangling group
// reference is skipped rather than raised.
func (r *Resolver) ResolveAuth(env model.Environment) AuthResolution {
	if env.Auth.Active() {
		return AuthResolution{Auth: env.Auth, SecretKey: env.AuthSecretKey}
	}

	if env.EnvironmentGroupID != "" {
		group, ok, err := r.store.Group(env.EnvironmentGroupID)
		if err == nil && ok && group.DefaultAuth != nil && group.DefaultAuth.Active() {
			return AuthResolution{Auth: *group.DefaultAuth, SecretKey: group.AuthSecretKey}
		}
	}

	return AuthResolution{Auth: model.AuthConfig{Type: model.AuthNone}}
}

// Credentials looks up the environment's secret, falling back to the owning
// group's key. "Nothing stored" is a normal state, not a failure.
func (r *Resolver) Credentials(env model.Environment) secret.Lookup {
	if r.secrets == nil {
		return secret.Unavailable(errdef.New(errdef.CodeSecrets, "secret store not configured"))
	}

	key := env.AuthSecretKey
	if key == "" && env.EnvironmentGroupID != "" {
		group, ok, err := r.store.Group(env.EnvironmentGroupID)
		if err == nil && ok {
			key = group.AuthSecretKey
		}
	}
	if key == "" {
		return secret.Absent()
	}

	blob, ok, err := r.secrets.Get(key)
	if err != nil {
		return secret.Unavailable(err)
	}
	if !ok {
		return secret.Absent()
	}

	creds, err := secret.DecodeCredentials(blob)
	if err != nil {
		return secret.Unavailable(err)
	}
	return secret.Found(creds)
}
