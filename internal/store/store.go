package store

import (
	"github.com/unkn0wn-root/restdock/internal/model"
)

type Kind string

const (
	KindSchema      Kind = "schema"
	KindEnvironment Kind = "environment"
	KindGroup       Kind = "group"
)

// CascadeResult reports what a schema delete removed. Secret keys of the
// removed owners are surfaced so the caller can clean the vault best-effort.
type CascadeResult struct {
	Existed      bool
	Environments []model.Environment
	Groups       []model.EnvironmentGroup
}

func (r CascadeResult) SecretKeys() []string {
	var keys []string
	for _, env := range r.Environments {
		if env.AuthSecretKey != "" {
			keys = append(keys, env.AuthSecretKey)
		}
	}
	for _, group := range r.Groups {
		if group.AuthSecretKey != "" {
			keys = append(keys, group.AuthSecretKey)
		}
	}
	return keys
}

type Store interface {
	Schemas() ([]model.Schema, error)
	Schema(id string) (model.Schema, bool, error)
	SaveSchema(schema model.Schema) error
	DeleteSchema(id string) (CascadeResult, error)

	Environments() ([]model.Environment, error)
	Environment(id string) (model.Environment, bool, error)
	SaveEnvironment(env model.Environment) error
	DeleteEnvironment(id string) (bool, error)

	Groups() ([]model.EnvironmentGroup, error)
	Group(id string) (model.EnvironmentGroup, bool, error)
	SaveGroup(group model.EnvironmentGroup) error
	DeleteGroup(id string) (bool, error)

	Close() error
}
