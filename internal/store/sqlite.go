package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/model"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS records (
	kind TEXT NOT NULL,
	id   TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);`

// SQLiteStore persists entities as JSON rows keyed by (kind, id). Records stay
// opaque to SQL so the entity shapes can evolve without migrations.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create store dir")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStore, err, "open store %s", path)
	}

	// modernc sqlite serialises writes itself but a single connection keeps
	// SQLITE_BUSY out of the picture entirely.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, errors.Join(
				errdef.Wrap(errdef.CodeStore, err, "initialise store"),
				closeErr,
			)
		}
		return nil, errdef.Wrap(errdef.CodeStore, err, "initialise store")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) save(kind Kind, id string, entity any) error {
	if id == "" {
		return errdef.New(errdef.CodeStore, "%s id is empty", kind)
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return errdef.Wrap(errdef.CodeStore, err, "encode %s %s", kind, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT INTO records (kind, id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(kind), id, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeStore, err, "save %s %s", kind, id)
	}
	return nil
}

func (s *SQLiteStore) get(kind Kind, id string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRow(
		`SELECT data FROM records WHERE kind = ? AND id = ?`,
		string(kind), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStore, err, "read %s %s", kind, id)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, errdef.Wrap(errdef.CodeStore, err, "decode %s %s", kind, id)
	}
	return true, nil
}

func (s *SQLiteStore) list(kind Kind, decode func(data []byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT data FROM records WHERE kind = ? ORDER BY id`,
		string(kind),
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeStore, err, "list %s", kind)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return errdef.Wrap(errdef.CodeStore, err, "scan %s", kind)
		}
		if err := decode([]byte(data)); err != nil {
			return errdef.Wrap(errdef.CodeStore, err, "decode %s", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return errdef.Wrap(errdef.CodeStore, err, "iterate %s", kind)
	}
	return nil
}

func (s *SQLiteStore) delete(kind Kind, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`DELETE FROM records WHERE kind = ? AND id = ?`,
		string(kind), id,
	)
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStore, err, "delete %s %s", kind, id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStore, err, "delete %s %s", kind, id)
	}
	return affected > 0, nil
}

func (s *SQLiteStore) Schemas() ([]model.Schema, error) {
	var schemas []model.Schema
	err := s.list(KindSchema, func(data []byte) error {
		var schema model.Schema
		if err := json.Unmarshal(data, &schema); err != nil {
			return err
		}
		schemas = append(schemas, schema)
		return nil
	})
	return schemas, err
}

func (s *SQLiteStore) Schema(id string) (model.Schema, bool, error) {
	var schema model.Schema
	ok, err := s.get(KindSchema, id, &schema)
	return schema, ok, err
}

func (s *SQLiteStore) SaveSchema(schema model.Schema) error {
	return s.save(KindSchema, schema.ID, schema)
}

// DeleteSchema removes the schema and every environment and group that belongs
// to it. The dependents are returned so callers can clean up their secrets.
func (s *SQLiteStore) DeleteSchema(id string) (CascadeResult, error) {
	var result CascadeResult

	envs, err := s.Environments()
	if err != nil {
		return result, err
	}
	groups, err := s.Groups()
	if err != nil {
		return result, err
	}

	existed, err := s.delete(KindSchema, id)
	if err != nil {
		return result, err
	}
	result.Existed = existed
	if !existed {
		return result, nil
	}

	for _, env := range envs {
		if env.SchemaID != id {
			continue
		}
		if _, err := s.delete(KindEnvironment, env.ID); err != nil {
			return result, err
		}
		result.Environments = append(result.Environments, env)
	}
	for _, group := range groups {
		if group.SchemaID != id {
			continue
		}
		if _, err := s.delete(KindGroup, group.ID); err != nil {
			return result, err
		}
		result.Groups = append(result.Groups, group)
	}
	return result, nil
}

func (s *SQLiteStore) Environments() ([]model.Environment, error) {
	var envs []model.Environment
	err := s.list(KindEnvironment, func(data []byte) error {
		var env model.Environment
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		envs = append(envs, env)
		return nil
	})
	return envs, err
}

func (s *SQLiteStore) Environment(id string) (model.Environment, bool, error) {
	var env model.Environment
	ok, err := s.get(KindEnvironment, id, &env)
	return env, ok, err
}

func (s *SQLiteStore) SaveEnvironment(env model.Environment) error {
	return s.save(KindEnvironment, env.ID, env)
}

func (s *SQLiteStore) DeleteEnvironment(id string) (bool, error) {
	return s.delete(KindEnvironment, id)
}

func (s *SQLiteStore) Groups() ([]model.EnvironmentGroup, error) {
	var groups []model.EnvironmentGroup
	err := s.list(KindGroup, func(data []byte) error {
		var group model.EnvironmentGroup
		if err := json.Unmarshal(data, &group); err != nil {
			return err
		}
		groups = append(groups, group)
		return nil
	})
	return groups, err
}

func (s *SQLiteStore) Group(id string) (model.EnvironmentGroup, bool, error) {
	var group model.EnvironmentGroup
	ok, err := s.get(KindGroup, id, &group)
	return group, ok, err
}

func (s *SQLiteStore) SaveGroup(group model.EnvironmentGroup) error {
	return s.save(KindGroup, group.ID, group)
}

func (s *SQLiteStore) DeleteGroup(id string) (bool, error) {
	return s.delete(KindGroup, id)
}
