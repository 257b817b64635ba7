package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/unkn0wn-root/restdock/internal/config"
	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/model"
	"github.com/unkn0wn-root/restdock/internal/secret"
	"github.com/unkn0wn-root/restdock/internal/store"
)

const ArchiveVersion = 1

// Archive is the portable workspace snapshot. Secrets never travel with it:
// authSecretKey fields are stripped on export, so imported entities with a
// non-none auth type need their credentials re-entered.
type Archive struct {
	Version           int                      `json:"version"`
	Timestamp         time.Time                `json:"timestamp"`
	Schemas           []model.Schema           `json:"schemas"`
	Environments      []model.Environment      `json:"environments"`
	EnvironmentGroups []model.EnvironmentGroup `json:"environmentGroups"`
	Settings          *config.Settings         `json:"settings,omitempty"`
}

func Build(configs store.Store, settings *config.Settings) (*Archive, error) {
	schemas, err := configs.Schemas()
	if err != nil {
		return nil, err
	}
	envs, err := configs.Environments()
	if err != nil {
		return nil, err
	}
	groups, err := configs.Groups()
	if err != nil {
		return nil, err
	}

	archive := &Archive{
		Version:   ArchiveVersion,
		Timestamp: time.Now().UTC(),
		Settings:  settings,
	}

	archive.Schemas = append(archive.Schemas, schemas...)
	for _, env := range envs {
		env.AuthSecretKey = ""
		archive.Environments = append(archive.Environments, env)
	}
	for _, group := range groups {
		group.AuthSecretKey = ""
		archive.EnvironmentGroups = append(archive.EnvironmentGroups, group)
	}
	return archive, nil
}

func WriteFile(archive *Archive, path string) error {
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeExport, err, "encode archive")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write archive %s", path)
	}
	return nil
}

func ReadFile(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read archive %s", path)
	}

	var archive Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, errdef.Wrap(errdef.CodeExport, err, "parse archive %s", path)
	}
	if archive.Version > ArchiveVersion {
		return nil, errdef.New(
			errdef.CodeExport,
			"archive version %d is newer than supported %d",
			archive.Version, ArchiveVersion,
		)
	}
	return &archive, nil
}

// Import re-creates archived entities. Entities whose auth type is active but
// whose secret is absent are flagged in the returned warnings for later
// credential entry - never treated as errors.
func Import(configs store.Store, secrets secret.Store, archive *Archive) ([]string, error) {
	if archive == nil {
		return nil, errdef.New(errdef.CodeExport, "archive is nil")
	}

	var warnings []string

	for _, schema := range archive.Schemas {
		if err := configs.SaveSchema(schema); err != nil {
			return warnings, err
		}
	}
	for _, group := range archive.EnvironmentGroups {
		if err := configs.SaveGroup(group); err != nil {
			return warnings, err
		}
		if group.DefaultAuth != nil && group.DefaultAuth.Active() && !hasSecret(secrets, group.AuthSecretKey) {
			warnings = append(warnings, fmt.Sprintf(
				"group %s uses %s auth but has no stored credentials",
				group.Name, group.DefaultAuth.Type,
			))
		}
	}
	for _, env := range archive.Environments {
		if err := configs.SaveEnvironment(env); err != nil {
			return warnings, err
		}
		if env.Auth.Active() && !hasSecret(secrets, env.AuthSecretKey) {
			warnings = append(warnings, fmt.Sprintf(
				"environment %s uses %s auth but has no stored credentials",
				env.Name, env.Auth.Type,
			))
		}
	}
	return warnings, nil
}

func hasSecret(secrets secret.Store, key string) bool {
	if secrets == nil || key == "" {
		return false
	}
	_, ok, err := secrets.Get(key)
	return err == nil && ok
}
