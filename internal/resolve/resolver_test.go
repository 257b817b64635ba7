package resolve

import (
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/model"
	"github.com/unkn0wn-root/restdock/internal/secret"
	"github.com/unkn0wn-root/restdock/internal/store"
)

type mapSecrets struct {
	values map[string]string
	err    error
}

func (m *mapSecrets) Get(key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *mapSecrets) Set(key, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *mapSecrets) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()

	schema := model.Schema{
		ID:   "schema-1",
		Name: "petstore",
		BaseConfig: &model.BaseConfig{
			DefaultHeaders: map[string]string{
				"Content-Type": "application/json",
				"Accept":       "application/json",
			},
		},
		PlatformConfig: &model.PlatformConfig{
			Platform: "acme",
			RequiredHeaders: []model.HeaderPair{
				{Name: "X-Csrf-Token", Value: "fetch-me"},
				{Name: "Accept", Value: "application/vnd.acme+json"},
			},
		},
	}
	if err := s.SaveSchema(schema); err != nil {
		t.Fatalf("save schema: %v", err)
	}

	env := model.Environment{
		ID:       "env-1",
		SchemaID: "schema-1",
		Name:     "staging",
		BaseURL:  "https://api.staging.example.com",
		CustomHeaders: map[string]string{
			"Accept":     "application/json; v=2",
			"X-Trace-Id": "on",
		},
	}
	if err := s.SaveEnvironment(env); err != nil {
		t.Fatalf("save environment: %v", err)
	}
	return s
}

func TestResolveHeaderPrecedence(t *testing.T) {
	r := NewResolver(seedStore(t), nil)

	resolved, err := r.Resolve("", "env-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// schema default survives when nothing overrides it.
	if got := resolved.ResolvedHeaders["Content-Type"]; got != "application/json" {
		t.Fatalf("Content-Type = %q", got)
	}
	// platform beats schema default, environment beats platform.
	if got := resolved.ResolvedHeaders["Accept"]; got != "application/json; v=2" {
		t.Fatalf("Accept = %q", got)
	}
	if got := resolved.ResolvedHeaders["X-Csrf-Token"]; got != "fetch-me" {
		t.Fatalf("X-Csrf-Token = %q", got)
	}
	if got := resolved.ResolvedHeaders["X-Trace-Id"]; got != "on" {
		t.Fatalf("X-Trace-Id = %q", got)
	}
}

func TestResolveDerivesSchemaFromEnvironment(t *testing.T) {
	r := NewResolver(seedStore(t), nil)

	resolved, err := r.Resolve("", "env-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Schema.ID != "schema-1" {
		t.Fatalf("schema = %q", resolved.Schema.ID)
	}

	if _, err := r.Resolve("schema-other", "env-1"); errdef.CodeOf(err) != errdef.CodeNotFound {
		t.Fatalf("mismatched schema should be not-found, got %v", err)
	}
}

func TestResolveMissingEntities(t *testing.T) {
	s := seedStore(t)
	r := NewResolver(s, nil)

	if _, err := r.Resolve("", "env-nope"); errdef.CodeOf(err) != errdef.CodeNotFound {
		t.Fatalf("missing environment: got %v", err)
	}

	// dangling schema reference must surface, not silently default.
	dangling := model.Environment{ID: "env-2", SchemaID: "schema-gone", Name: "broken"}
	if err := s.SaveEnvironment(dangling); err != nil {
		t.Fatalf("save environment: %v", err)
	}
	if _, err := r.Resolve("", "env-2"); errdef.CodeOf(err) != errdef.CodeSchemaMissing {
		t.Fatalf("dangling schema: got %v", err)
	}
}

func TestResolveTimeoutPrecedence(t *testing.T) {
	s := store.NewMemoryStore()
	schema := model.Schema{
		ID:         "schema-1",
		BaseConfig: &model.BaseConfig{DefaultTimeout: 45 * time.Second},
	}
	if err := s.SaveSchema(schema); err != nil {
		t.Fatalf("save schema: %v", err)
	}

	withTimeout := model.Environment{
		ID: "env-a", SchemaID: "schema-1", Timeout: 5 * time.Second,
	}
	withoutTimeout := model.Environment{ID: "env-b", SchemaID: "schema-1"}
	for _, env := range []model.Environment{withTimeout, withoutTimeout} {
		if err := s.SaveEnvironment(env); err != nil {
			t.Fatalf("save environment: %v", err)
		}
	}

	r := NewResolver(s, nil)
	if resolved, _ := r.Resolve("", "env-a"); resolved.ResolvedTimeout != 5*time.Second {
		t.Fatalf("env timeout should win, got %v", resolved.ResolvedTimeout)
	}
	if resolved, _ := r.Resolve("", "env-b"); resolved.ResolvedTimeout != 45*time.Second {
		t.Fatalf("schema default should apply, got %v", resolved.ResolvedTimeout)
	}

	bare := model.Schema{ID: "schema-2"}
	if err := s.SaveSchema(bare); err != nil {
		t.Fatalf("save schema: %v", err)
	}
	if err := s.SaveEnvironment(model.Environment{ID: "env-c", SchemaID: "schema-2"}); err != nil {
		t.Fatalf("save environment: %v", err)
	}
	if resolved, _ := r.Resolve("", "env-c"); resolved.ResolvedTimeout != DefaultTimeout {
		t.Fatalf("fallback timeout should apply, got %v", resolved.ResolvedTimeout)
	}
}

func TestResolveAuthInheritance(t *testing.T) {
	s := store.NewMemoryStore()
	if err := s.SaveSchema(model.Schema{ID: "schema-1"}); err != nil {
		t.Fatalf("save schema: %v", err)
	}
	group := model.EnvironmentGroup{
		ID:            "group-1",
		SchemaID:      "schema-1",
		DefaultAuth:   &model.AuthConfig{Type: model.AuthBearer},
		AuthSecretKey: "group_group-1_1700000000",
	}
	if err := s.SaveGroup(group); err != nil {
		t.Fatalf("save group: %v", err)
	}

	r := NewResolver(s, nil)

	inherits := model.Environment{
		ID: "env-a", SchemaID: "schema-1", EnvironmentGroupID: "group-1",
	}
	got := r.ResolveAuth(inherits)
	if got.Auth.Type != model.AuthBearer || got.SecretKey != group.AuthSecretKey {
		t.Fatalf("inherited auth = %+v", got)
	}

	overrides := model.Environment{
		ID:                 "env-b",
		SchemaID:           "schema-1",
		EnvironmentGroupID: "group-1",
		Auth:               model.AuthConfig{Type: model.AuthAPIKey},
		AuthSecretKey:      "env_env-b_1700000001",
	}
	got = r.ResolveAuth(overrides)
	if got.Auth.Type != model.AuthAPIKey || got.SecretKey != overrides.AuthSecretKey {
		t.Fatalf("environment auth should win, got %+v", got)
	}

	orphan := model.Environment{
		ID: "env-c", SchemaID: "schema-1", EnvironmentGroupID: "group-gone",
	}
	if got := r.ResolveAuth(orphan); got.Auth.Type != model.AuthNone {
		t.Fatalf("dangling group should resolve to none, got %+v", got)
	}
}

func TestCredentialsLookupStates(t *testing.T) {
	s := store.NewMemoryStore()
	group := model.EnvironmentGroup{ID: "group-1", AuthSecretKey: "group-key"}
	if err := s.SaveGroup(group); err != nil {
		t.Fatalf("save group: %v", err)
	}

	encoded, err := secret.EncodeCredentials(model.Credentials{APIKey: "token-123"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	secrets := &mapSecrets{values: map[string]string{
		"env-key":   encoded,
		"group-key": encoded,
	}}
	r := NewResolver(s, secrets)

	own := r.Credentials(model.Environment{AuthSecretKey: "env-key"})
	if own.State != secret.LookupOK || own.Credentials.APIKey != "token-123" {
		t.Fatalf("own key lookup = %+v", own)
	}

	viaGroup := r.Credentials(model.Environment{EnvironmentGroupID: "group-1"})
	if viaGroup.State != secret.LookupOK {
		t.Fatalf("group fallback lookup = %+v", viaGroup)
	}

	if got := r.Credentials(model.Environment{}); got.State != secret.LookupAbsent {
		t.Fatalf("keyless environment = %+v", got)
	}
	if got := r.Credentials(model.Environment{AuthSecretKey: "missing"}); got.State != secret.LookupAbsent {
		t.Fatalf("unknown key = %+v", got)
	}

	broken := NewResolver(s, &mapSecrets{err: errors.New("vault sealed")})
	if got := broken.Credentials(model.Environment{AuthSecretKey: "env-key"}); got.State != secret.LookupUnavailable {
		t.Fatalf("vault failure = %+v", got)
	}

	none := NewResolver(s, nil)
	if got := none.Credentials(model.Environment{AuthSecretKey: "env-key"}); got.State != secret.LookupUnavailable {
		t.Fatalf("nil secret store = %+v", got)
	}
}
