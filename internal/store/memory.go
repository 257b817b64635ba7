package store

import (
	"sort"
	"sync"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/model"
)

// MemoryStore keeps everything in process. Used by tests and by flows that
// import an archive for inspection without touching the on-disk store.
type MemoryStore struct {
	mu      sync.RWMutex
	schemas map[string]model.Schema
	envs    map[string]model.Environment
	groups  map[string]model.EnvironmentGroup
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		schemas: make(map[string]model.Schema),
		envs:    make(map[string]model.Environment),
		groups:  make(map[string]model.EnvironmentGroup),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Schemas() ([]model.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Schema, 0, len(s.schemas))
	for _, schema := range s.schemas {
		out = append(out, schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Schema(id string) (model.Schema, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.schemas[id]
	return schema, ok, nil
}

func (s *MemoryStore) SaveSchema(schema model.Schema) error {
	if schema.ID == "" {
		return errdef.New(errdef.CodeStore, "schema id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[schema.ID] = schema
	return nil
}

func (s *MemoryStore) DeleteSchema(id string) (CascadeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result CascadeResult
	if _, ok := s.schemas[id]; !ok {
		return result, nil
	}
	delete(s.schemas, id)
	result.Existed = true

	for envID, env := range s.envs {
		if env.SchemaID == id {
			delete(s.envs, envID)
			result.Environments = append(result.Environments, env)
		}
	}
	for groupID, group := range s.groups {
		if group.SchemaID == id {
			delete(s.groups, groupID)
			result.Groups = append(result.Groups, group)
		}
	}

	sort.Slice(result.Environments, func(i, j int) bool {
		return result.Environments[i].ID < result.Environments[j].ID
	})
	sort.Slice(result.Groups, func(i, j int) bool {
		return result.Groups[i].ID < result.Groups[j].ID
	})
	return result, nil
}

func (s *MemoryStore) Environments() ([]model.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Environment, 0, len(s.envs))
	for _, env := range s.envs {
		out = append(out, env)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Environment(id string) (model.Environment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.envs[id]
	return env, ok, nil
}

func (s *MemoryStore) SaveEnvironment(env model.Environment) error {
	if env.ID == "" {
		return errdef.New(errdef.CodeStore, "environment id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs[env.ID] = env
	return nil
}

func (s *MemoryStore) DeleteEnvironment(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.envs[id]
	delete(s.envs, id)
	return ok, nil
}

func (s *MemoryStore) Groups() ([]model.EnvironmentGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EnvironmentGroup, 0, len(s.groups))
	for _, group := range s.groups {
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Group(id string) (model.EnvironmentGroup, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[id]
	return group, ok, nil
}

func (s *MemoryStore) SaveGroup(group model.EnvironmentGroup) error {
	if group.ID == "" {
		return errdef.New(errdef.CodeStore, "group id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	return nil
}

func (s *MemoryStore) DeleteGroup(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[id]
	delete(s.groups, id)
	return ok, nil
}
