package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/restdock/internal/config"
	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/export"
	"github.com/unkn0wn-root/restdock/internal/history"
	"github.com/unkn0wn-root/restdock/internal/httpclient"
	"github.com/unkn0wn-root/restdock/internal/logging"
	"github.com/unkn0wn-root/restdock/internal/mask"
	"github.com/unkn0wn-root/restdock/internal/model"
	"github.com/unkn0wn-root/restdock/internal/openapi"
	"github.com/unkn0wn-root/restdock/internal/reqdoc"
	"github.com/unkn0wn-root/restdock/internal/resolve"
	"github.com/unkn0wn-root/restdock/internal/secret"
	"github.com/unkn0wn-root/restdock/internal/skeleton"
	"github.com/unkn0wn-root/restdock/internal/store"
	"github.com/unkn0wn-root/restdock/internal/telemetry"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const usageText = `restdock - environment-aware request workspace

Usage:
  restdock <command> [flags]

Commands:
  schema import    Register an OpenAPI spec as a schema
  schema list      List registered schemas
  schema delete    Delete a schema and its environments
  group add        Add an environment group under a schema
  group list       List environment groups
  env add          Add an environment under a schema
  env list         List environments
  env delete       Delete an environment and its stored credentials
  generate         Generate a request skeleton for one endpoint
  toggle           Toggle credential masking in a request file
  send             Execute a request file
  history          Show recent request history
  export           Export schemas, environments and groups to an archive
  import           Import an archive
  version          Show version information

Run "restdock <command> -h" for command flags.
`

type app struct {
	settings config.Settings
	handle   config.SettingsHandle
	configs  store.Store
	vault    *secret.FileVault
	resolver *resolve.Resolver
	history  *history.Store
	logger   zerolog.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]
	if command == "schema" || command == "group" || command == "env" {
		if len(args) == 0 {
			fmt.Fprint(os.Stderr, usageText)
			os.Exit(2)
		}
		command = command + " " + args[0]
		args = args[1:]
	}

	if command == "version" {
		fmt.Printf("restdock %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		return
	}

	a, err := newApp()
	if err != nil {
		fatal(err)
	}
	defer func() {
		if closeErr := a.configs.Close(); closeErr != nil {
			a.logger.Warn().Err(closeErr).Msg("close store")
		}
	}()

	switch command {
	case "schema import":
		err = a.schemaImport(args)
	case "schema list":
		err = a.schemaList(args)
	case "schema delete":
		err = a.schemaDelete(args)
	case "group add":
		err = a.groupAdd(args)
	case "group list":
		err = a.groupList(args)
	case "env add":
		err = a.envAdd(args)
	case "env list":
		err = a.envList(args)
	case "env delete":
		err = a.envDelete(args)
	case "generate":
		err = a.generate(args)
	case "toggle":
		err = a.toggle(args)
	case "send":
		err = a.send(args)
	case "history":
		err = a.historyCmd(args)
	case "export":
		err = a.exportCmd(args)
	case "import":
		err = a.importCmd(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func newApp() (*app, error) {
	settings, handle, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.Dir(), 0o755); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "ensure config directory")
	}

	logger := logging.New(logging.Config{
		Level:    settings.LogLevel,
		FilePath: settings.LogFile,
		Console:  true,
	})

	configs, err := store.OpenSQLite(settings.StorePath)
	if err != nil {
		return nil, err
	}

	vault, err := secret.OpenFileVault(settings.VaultPath)
	if err != nil {
		logger.Warn().Err(err).Msg("secret vault unavailable, credentials disabled")
		vault = nil
	}

	var secrets secret.Store
	if vault != nil {
		secrets = vault
	}

	resolver := resolve.NewResolver(configs, secrets)
	if settings.DefaultTimeoutSeconds > 0 {
		resolver.SetDefaultTimeout(time.Duration(settings.DefaultTimeoutSeconds) * time.Second)
	}

	return &app{
		settings: settings,
		handle:   handle,
		configs:  configs,
		vault:    vault,
		resolver: resolver,
		history:  history.NewStore(settings.HistoryPath, settings.HistoryLimit),
		logger:   logger,
	}, nil
}

func (a *app) secrets() secret.Store {
	if a.vault == nil {
		return nil
	}
	return a.vault
}

func (a *app) schemaImport(args []string) error {
	fs := flag.NewFlagSet("schema import", flag.ExitOnError)
	specPath := fs.String("spec", "", "Path to OpenAPI spec file (yaml or json)")
	name := fs.String("name", "", "Schema name (defaults to the spec title)")
	schemaVersion := fs.String("schema-version", "", "Schema version (defaults to the spec version)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *specPath == "" {
		return errdef.New(errdef.CodeParse, "-spec is required")
	}

	spec, err := openapi.NewLoader().Load(context.Background(), *specPath)
	if err != nil {
		return err
	}

	schema := model.Schema{
		ID:        uuid.NewString(),
		Name:      firstNonEmpty(*name, spec.Title, filepath.Base(*specPath)),
		Version:   firstNonEmpty(*schemaVersion, spec.Version),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := a.configs.SaveSchema(schema); err != nil {
		return err
	}

	fmt.Printf("imported schema %s (%s) with %d endpoints\n", schema.Name, schema.ID, len(spec.Endpoints))
	return nil
}

func (a *app) schemaList(args []string) error {
	fs := flag.NewFlagSet("schema list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	schemas, err := a.configs.Schemas()
	if err != nil {
		return err
	}
	if len(schemas) == 0 {
		fmt.Println("no schemas registered")
		return nil
	}
	for _, schema := range schemas {
		fmt.Printf("%s  %s %s\n", schema.ID, schema.Name, schema.Version)
	}
	return nil
}

func (a *app) schemaDelete(args []string) error {
	fs := flag.NewFlagSet("schema delete", flag.ExitOnError)
	id := fs.String("id", "", "Schema ID to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errdef.New(errdef.CodeParse, "-id is required")
	}

	result, err := a.configs.DeleteSchema(*id)
	if err != nil {
		return err
	}
	if !result.Existed {
		return errdef.New(errdef.CodeNotFound, "schema %s not found", *id)
	}

	if secrets := a.secrets(); secrets != nil {
		for _, key := range result.SecretKeys() {
			if err := secrets.Delete(key); err != nil {
				a.logger.Warn().Err(err).Str("key", key).Msg("delete orphaned secret")
			}
		}
	}

	fmt.Printf(
		"deleted schema %s, %d environments, %d groups\n",
		*id, len(result.Environments), len(result.Groups),
	)
	return nil
}

func (a *app) groupAdd(args []string) error {
	fs := flag.NewFlagSet("group add", flag.ExitOnError)
	schemaID := fs.String("schema", "", "Schema ID the group belongs to")
	name := fs.String("name", "", "Group name")
	authType := fs.String("auth", "none", "Default auth type: none, apikey, bearer or basic")
	apiKey := fs.String("api-key", "", "API key or bearer token to store for the group")
	username := fs.String("username", "", "Basic auth username")
	password := fs.String("password", "", "Basic auth password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schemaID == "" || *name == "" {
		return errdef.New(errdef.CodeParse, "-schema and -name are required")
	}
	if _, ok, err := a.configs.Schema(*schemaID); err != nil {
		return err
	} else if !ok {
		return errdef.New(errdef.CodeNotFound, "schema %s not found", *schemaID)
	}

	group := model.EnvironmentGroup{
		ID:        uuid.NewString(),
		SchemaID:  *schemaID,
		Name:      *name,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	auth := model.AuthConfig{Type: model.ParseAuthType(*authType)}
	if auth.Active() {
		group.DefaultAuth = &auth
		key, err := a.storeCredentials("group", group.ID, auth.Type, *apiKey, *username, *password)
		if err != nil {
			return err
		}
		group.AuthSecretKey = key
	}

	if err := a.configs.SaveGroup(group); err != nil {
		return err
	}
	fmt.Printf("added group %s (%s)\n", group.Name, group.ID)
	return nil
}

func (a *app) groupList(args []string) error {
	fs := flag.NewFlagSet("group list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	groups, err := a.configs.Groups()
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("no groups registered")
		return nil
	}
	for _, group := range groups {
		authType := model.AuthNone
		if group.DefaultAuth != nil {
			authType = group.DefaultAuth.Type
		}
		fmt.Printf("%s  %s schema=%s auth=%s\n", group.ID, group.Name, group.SchemaID, authType)
	}
	return nil
}

func (a *app) envAdd(args []string) error {
	fs := flag.NewFlagSet("env add", flag.ExitOnError)
	schemaID := fs.String("schema", "", "Schema ID the environment belongs to")
	name := fs.String("name", "", "Environment name")
	baseURL := fs.String("base-url", "", "Base URL, e.g. https://api.staging.example.com")
	authType := fs.String("auth", "none", "Auth type: none, apikey, bearer or basic")
	apiKey := fs.String("api-key", "", "API key or bearer token to store")
	username := fs.String("username", "", "Basic auth username")
	password := fs.String("password", "", "Basic auth password")
	groupID := fs.String("group", "", "Environment group ID (optional)")
	timeout := fs.Duration("timeout", 0, "Per-environment request timeout (optional)")
	var headers headerFlags
	fs.Var(&headers, "header", "Custom header as Name=Value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schemaID == "" || *name == "" || *baseURL == "" {
		return errdef.New(errdef.CodeParse, "-schema, -name and -base-url are required")
	}
	if _, ok, err := a.configs.Schema(*schemaID); err != nil {
		return err
	} else if !ok {
		return errdef.New(errdef.CodeNotFound, "schema %s not found", *schemaID)
	}

	env := model.Environment{
		ID:                 uuid.NewString(),
		SchemaID:           *schemaID,
		Name:               *name,
		BaseURL:            strings.TrimRight(*baseURL, "/"),
		Auth:               model.AuthConfig{Type: model.ParseAuthType(*authType)},
		CustomHeaders:      headers.values,
		Timeout:            *timeout,
		EnvironmentGroupID: *groupID,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}

	if env.Auth.Active() {
		key, err := a.storeCredentials("env", env.ID, env.Auth.Type, *apiKey, *username, *password)
		if err != nil {
			return err
		}
		env.AuthSecretKey = key
	}

	if err := a.configs.SaveEnvironment(env); err != nil {
		return err
	}
	fmt.Printf("added environment %s (%s)\n", env.Name, env.ID)
	return nil
}

func (a *app) envList(args []string) error {
	fs := flag.NewFlagSet("env list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	envs, err := a.configs.Environments()
	if err != nil {
		return err
	}
	if len(envs) == 0 {
		fmt.Println("no environments registered")
		return nil
	}
	for _, env := range envs {
		fmt.Printf("%s  %s %s auth=%s\n", env.ID, env.Name, env.BaseURL, env.Auth.Type)
	}
	return nil
}

func (a *app) envDelete(args []string) error {
	fs := flag.NewFlagSet("env delete", flag.ExitOnError)
	id := fs.String("id", "", "Environment ID to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errdef.New(errdef.CodeParse, "-id is required")
	}

	env, ok, err := a.configs.Environment(*id)
	if err != nil {
		return err
	}
	if !ok {
		return errdef.New(errdef.CodeNotFound, "environment %s not found", *id)
	}

	if _, err := a.configs.DeleteEnvironment(*id); err != nil {
		return err
	}
	if secrets := a.secrets(); secrets != nil && env.AuthSecretKey != "" {
		if err := secrets.Delete(env.AuthSecretKey); err != nil {
			a.logger.Warn().Err(err).Str("key", env.AuthSecretKey).Msg("delete orphaned secret")
		}
	}

	fmt.Printf("deleted environment %s\n", *id)
	return nil
}

func (a *app) generate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	specPath := fs.String("spec", "", "Path to the OpenAPI spec file")
	envID := fs.String("env", "", "Environment ID to generate against")
	method := fs.String("method", "", "Endpoint method, e.g. GET")
	path := fs.String("path", "", "Endpoint path, e.g. /users/{id}")
	out := fs.String("out", "", "Output file (defaults to stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *specPath == "" || *envID == "" || *method == "" || *path == "" {
		return errdef.New(errdef.CodeParse, "-spec, -env, -method and -path are required")
	}

	spec, err := openapi.NewLoader().Load(context.Background(), *specPath)
	if err != nil {
		return err
	}
	endpoint, ok := spec.Endpoint(strings.ToUpper(*method), *path)
	if !ok {
		return errdef.New(errdef.CodeNotFound, "endpoint %s %s not found in spec", *method, *path)
	}

	resolved, err := a.resolver.Resolve("", *envID)
	if err != nil {
		return err
	}

	in := skeleton.Input{Endpoint: endpoint, Resolved: resolved}
	lookup := a.resolver.Credentials(resolved.Environment)
	switch lookup.State {
	case secret.LookupOK:
		in.Credentials = lookup.Credentials
	case secret.LookupUnavailable:
		a.logger.Warn().Err(lookup.Err).Msg("secret store unavailable, generating with placeholders")
	}

	result, err := skeleton.Generate(in)
	if err != nil {
		return err
	}

	if *out == "" {
		fmt.Print(result.Text)
		return nil
	}
	if err := os.WriteFile(*out, []byte(result.Text), 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write skeleton %s", *out)
	}
	fmt.Printf("generated %s\n", *out)
	return nil
}

func (a *app) toggle(args []string) error {
	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	filePath := fs.String("file", "", "Request file to toggle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *filePath == "" {
		return errdef.New(errdef.CodeParse, "-file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "read request file %s", *filePath)
	}
	text := string(data)

	toggler := mask.NewToggler()
	if reqdoc.HasMaskedAuth(text) {
		if err := a.primeFromVault(toggler, *filePath, text); err != nil {
			return err
		}
	}

	toggled, state, err := toggler.Toggle(*filePath, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*filePath, []byte(toggled), 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write request file %s", *filePath)
	}

	fmt.Printf("%s: credentials %s\n", *filePath, state)
	return nil
}

// primeFromVault rebuilds the reveal cache for a fresh process. The document
// only carries masked placeholders, so the plaintext comes from the vault via
// the document's environment.
func (a *app) primeFromVault(toggler *mask.Toggler, docID, text string) error {
	doc, err := reqdoc.Parse(text)
	if err != nil {
		return err
	}
	if doc.EnvironmentID == "" {
		return errdef.New(errdef.CodeMasking, "request file has no environment directive")
	}

	resolved, err := a.resolver.Resolve("", doc.EnvironmentID)
	if err != nil {
		return err
	}
	lookup := a.resolver.Credentials(resolved.Environment)
	if lookup.State != secret.LookupOK {
		return nil
	}

	cached := authHeadersFor(resolved.ResolvedAuth.Type, lookup.Credentials)
	if len(cached) > 0 {
		toggler.Prime(docID, cached)
	}
	return nil
}

func (a *app) send(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	filePath := fs.String("file", "", "Request file to execute")
	timeout := fs.Duration("timeout", 0, "Request timeout (defaults to the resolved environment timeout)")
	insecure := fs.Bool("insecure", false, "Skip TLS certificate verification")
	follow := fs.Bool("follow", true, "Follow redirects")
	proxyURL := fs.String("proxy", "", "HTTP proxy URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *filePath == "" {
		return errdef.New(errdef.CodeParse, "-file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "read request file %s", *filePath)
	}
	doc, err := reqdoc.Parse(string(data))
	if err != nil {
		return err
	}

	instr, err := telemetry.New(a.telemetryConfig())
	if err != nil {
		a.logger.Warn().Err(err).Msg("telemetry init failed, continuing without tracing")
		instr = telemetry.Noop()
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := instr.Shutdown(ctx); shutdownErr != nil {
			a.logger.Warn().Err(shutdownErr).Msg("telemetry shutdown")
		}
	}()

	client := httpclient.NewClient(a.resolver, a.history, instr, a.logger)
	resp, err := client.Execute(context.Background(), doc, httpclient.Options{
		Timeout:            *timeout,
		FollowRedirects:    *follow,
		InsecureSkipVerify: *insecure,
		ProxyURL:           *proxyURL,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", resp.Proto, resp.Status)
	fmt.Printf("%s in %s\n\n", resp.EffectiveURL, resp.Duration.Round(time.Millisecond))
	os.Stdout.Write(resp.Body)
	if len(resp.Body) > 0 && resp.Body[len(resp.Body)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

// telemetryConfig merges the environment over the settings file; either source
// can enable tracing.
func (a *app) telemetryConfig() telemetry.Config {
	cfg := telemetry.ConfigFromEnv(os.Getenv)
	if cfg.Endpoint == "" && a.settings.Telemetry.Endpoint != "" {
		cfg.Endpoint = a.settings.Telemetry.Endpoint
		cfg.Insecure = a.settings.Telemetry.Insecure
		if a.settings.Telemetry.ServiceName != "" {
			cfg.ServiceName = a.settings.Telemetry.ServiceName
		}
	}
	cfg.Version = version
	return cfg
}

func (a *app) historyCmd(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Show at most this many entries (0 shows all retained)")
	clear := fs.Bool("clear", false, "Clear the history instead of listing it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *clear {
		if err := a.history.Clear(); err != nil {
			return err
		}
		fmt.Println("history cleared")
		return nil
	}

	if err := a.history.Load(); err != nil {
		return err
	}
	entries := a.history.Entries()
	if len(entries) == 0 {
		fmt.Println("no history yet")
		return nil
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}
	for _, entry := range entries {
		status := entry.Response.Status
		if entry.Response.Error != "" {
			status = "error: " + entry.Response.Error
		}
		fmt.Printf(
			"%s  %-6s %s  %s (%s)\n",
			entry.Timestamp.Format(time.RFC3339),
			entry.Request.Method,
			entry.Request.URL,
			status,
			entry.Response.Duration.Round(time.Millisecond),
		)
	}
	return nil
}

func (a *app) exportCmd(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "Archive file to write")
	withSettings := fs.Bool("settings", true, "Include app settings in the archive")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errdef.New(errdef.CodeParse, "-out is required")
	}

	var settings *config.Settings
	if *withSettings {
		settings = &a.settings
	}
	archive, err := export.Build(a.configs, settings)
	if err != nil {
		return err
	}
	if err := export.WriteFile(archive, *out); err != nil {
		return err
	}

	fmt.Printf(
		"exported %d schemas, %d environments, %d groups to %s\n",
		len(archive.Schemas), len(archive.Environments), len(archive.EnvironmentGroups), *out,
	)
	return nil
}

func (a *app) importCmd(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "Archive file to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errdef.New(errdef.CodeParse, "-in is required")
	}

	archive, err := export.ReadFile(*in)
	if err != nil {
		return err
	}
	warnings, err := export.Import(a.configs, a.secrets(), archive)
	for _, warning := range warnings {
		a.logger.Warn().Msg(warning)
	}
	if err != nil {
		return err
	}

	if archive.Settings != nil {
		if err := config.SaveSettings(*archive.Settings, a.handle); err != nil {
			a.logger.Warn().Err(err).Msg("save imported settings")
		}
	}

	fmt.Printf(
		"imported %d schemas, %d environments, %d groups\n",
		len(archive.Schemas), len(archive.Environments), len(archive.EnvironmentGroups),
	)
	return nil
}

func (a *app) storeCredentials(
	prefix, ownerID string,
	authType model.AuthType,
	apiKey, username, password string,
) (string, error) {
	creds := model.Credentials{}
	switch authType {
	case model.AuthBasic:
		creds.Username = username
		creds.Password = password
	default:
		creds.APIKey = apiKey
	}
	if creds.Empty() {
		return "", nil
	}

	secrets := a.secrets()
	if secrets == nil {
		return "", errdef.New(errdef.CodeSecrets, "secret vault unavailable, cannot store credentials")
	}

	encoded, err := secret.EncodeCredentials(creds)
	if err != nil {
		return "", err
	}
	key := secret.NewKey(prefix, ownerID)
	if err := secrets.Set(key, encoded); err != nil {
		return "", err
	}
	return key, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "restdock: %s\n", errdef.Message(err))
	os.Exit(1)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

type headerFlags struct {
	values map[string]string
}

func (h *headerFlags) String() string {
	if h == nil || len(h.values) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(h.values))
	for name, value := range h.values {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, ",")
}

func (h *headerFlags) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected Name=Value, got %q", raw)
	}
	if h.values == nil {
		h.values = make(map[string]string)
	}
	h.values[strings.TrimSpace(name)] = value
	return nil
}
