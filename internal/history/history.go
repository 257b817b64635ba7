package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/unkn0wn-root/restdock/internal/errdef"
)

const DefaultCapacity = 50

type RequestRecord struct {
	Method        string            `json:"method"`
	URL           string            `json:"url"`
	Headers       map[string]string `json:"headers,omitempty"`
	EnvironmentID string            `json:"environmentId"`
	Body          string            `json:"body,omitempty"`
}

type ResponseRecord struct {
	Status     string        `json:"status"`
	StatusCode int           `json:"statusCode"`
	Duration   time.Duration `json:"duration"`
	BodyBytes  int           `json:"bodyBytes"`
	Error      string        `json:"error,omitempty"`
}

type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Request   RequestRecord  `json:"request"`
	Response  ResponseRecord `json:"response"`
}

// Store keeps a bounded FIFO of executed requests: oldest entries fall off
// once capacity is reached. With a path set, the ring is mirrored to a JSON
// file with an atomic rename so readers never see a torn write.
type Store struct {
	path     string
	capacity int
	entries  []Entry
	mu       sync.RWMutex
	loaded   bool
}

func NewStore(path string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{path: path, capacity: capacity}
}

// Load reads the backing file eagerly. Append does this lazily; list-only
// callers need an explicit load before Entries returns anything.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}

	if s.path == "" {
		return nil
	}
	return s.persistLocked()
}

// Entries returns newest-first copies.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	for i, entry := range s.entries {
		out[len(s.entries)-1-i] = entry
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.loaded = true
	if s.path == "" {
		return nil
	}
	return s.persistLocked()
}

func (s *Store) ensureLoadedLocked() error {
	if s.loaded || s.path == "" {
		s.loaded = true
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.entries = []Entry{}
			s.loaded = true
			return nil
		}
		return errdef.Wrap(errdef.CodeHistory, err, "read history")
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return errdef.Wrap(errdef.CodeHistory, err, "parse history")
		}
	}
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	s.loaded = true
	return nil
}

func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create history dir")
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "encode history")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write history tmp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace history file")
	}
	return nil
}
