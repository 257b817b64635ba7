package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func entryAt(i int) Entry {
	return Entry{
		Timestamp: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Request: RequestRecord{
			Method:        "GET",
			URL:           fmt.Sprintf("https://api.example.com/users/%d", i),
			EnvironmentID: "env-1",
		},
		Response: ResponseRecord{Status: "200 OK", StatusCode: 200},
	}
}

func TestAppendEvictsOldestAtCapacity(t *testing.T) {
	s := NewStore("", 3)

	for i := 0; i < 4; i++ {
		if err := s.Append(entryAt(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	entries := s.Entries()
	if entries[0].Request.URL != "https://api.example.com/users/3" {
		t.Fatalf("newest first, got %q", entries[0].Request.URL)
	}
	for _, entry := range entries {
		if entry.Request.URL == "https://api.example.com/users/0" {
			t.Fatalf("oldest entry should be evicted")
		}
	}
}

func TestDefaultCapacityApplies(t *testing.T) {
	s := NewStore("", 0)
	for i := 0; i < DefaultCapacity+5; i++ {
		if err := s.Append(entryAt(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if s.Len() != DefaultCapacity {
		t.Fatalf("len = %d, want %d", s.Len(), DefaultCapacity)
	}
}

func TestEntriesReturnsCopies(t *testing.T) {
	s := NewStore("", 10)
	if err := s.Append(entryAt(0)); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries := s.Entries()
	entries[0].Request.URL = "mutated"
	if s.Entries()[0].Request.URL == "mutated" {
		t.Fatalf("internal state leaked through Entries")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := NewStore(path, 10)
	for i := 0; i < 3; i++ {
		if err := s.Append(entryAt(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	reopened := NewStore(path, 10)
	if err := reopened.Append(entryAt(3)); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if reopened.Len() != 4 {
		t.Fatalf("len = %d, want 4", reopened.Len())
	}
	if got := reopened.Entries()[0].Request.URL; got != "https://api.example.com/users/3" {
		t.Fatalf("newest = %q", got)
	}
}

func TestReopenWithSmallerCapacityTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := NewStore(path, 10)
	for i := 0; i < 5; i++ {
		if err := s.Append(entryAt(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	trimmed := NewStore(path, 2)
	if err := trimmed.Append(entryAt(5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if trimmed.Len() != 2 {
		t.Fatalf("len = %d, want 2", trimmed.Len())
	}
	entries := trimmed.Entries()
	if entries[0].Request.URL != "https://api.example.com/users/5" {
		t.Fatalf("newest = %q", entries[0].Request.URL)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewStore(path, 10)
	if err := s.Append(entryAt(0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d after clear", s.Len())
	}

	reopened := NewStore(path, 10)
	if err := reopened.Append(entryAt(1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("cleared file should hold only the new entry, len = %d", reopened.Len())
	}
}
