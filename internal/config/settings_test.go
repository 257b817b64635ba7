package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirHonoursOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RESTDOCK_CONFIG_DIR", dir)
	if got := Dir(); got != dir {
		t.Fatalf("Dir() = %q, want %q", got, dir)
	}
}

func TestLoadSettingsDefaultsWhenNoFileExists(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RESTDOCK_CONFIG_DIR", dir)

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.HistoryLimit != 50 || settings.DefaultTimeoutSeconds != 30 {
		t.Fatalf("defaults = %+v", settings)
	}
	if settings.StorePath != filepath.Join(dir, "restdock.db") {
		t.Fatalf("store path = %q", settings.StorePath)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("handle = %+v", handle)
	}
}

func TestLoadSettingsPrefersTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RESTDOCK_CONFIG_DIR", dir)

	toml := "history_limit = 7\nlog_level = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(toml), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"history_limit": 99}`), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.HistoryLimit != 7 {
		t.Fatalf("history limit = %d, want the TOML value", settings.HistoryLimit)
	}
	if settings.LogLevel != "debug" {
		t.Fatalf("log level = %q", settings.LogLevel)
	}
	// unset fields fall back to defaults.
	if settings.DefaultTimeoutSeconds != 30 {
		t.Fatalf("timeout = %d", settings.DefaultTimeoutSeconds)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("format = %q", handle.Format)
	}
}

func TestLoadSettingsFallsBackToJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RESTDOCK_CONFIG_DIR", dir)

	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"history_limit": 25}`), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.HistoryLimit != 25 {
		t.Fatalf("history limit = %d", settings.HistoryLimit)
	}
	if handle.Format != SettingsFormatJSON {
		t.Fatalf("format = %q", handle.Format)
	}
}

func TestLoadSettingsRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RESTDOCK_CONFIG_DIR", dir)

	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte("history_limit = ["), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if _, _, err := LoadSettings(); err == nil {
		t.Fatalf("malformed settings must fail, not silently default")
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RESTDOCK_CONFIG_DIR", dir)

	settings := DefaultSettings()
	settings.HistoryLimit = 120
	settings.LogLevel = "warn"

	handle := SettingsHandle{
		Path:   filepath.Join(dir, "settings.toml"),
		Format: SettingsFormatTOML,
	}
	if err := SaveSettings(settings, handle); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, _, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.HistoryLimit != 120 || loaded.LogLevel != "warn" {
		t.Fatalf("round trip = %+v", loaded)
	}
}

func TestNormaliseFillsInvalidValues(t *testing.T) {
	got := normalise(Settings{HistoryLimit: -1, DefaultTimeoutSeconds: 0})
	if got.HistoryLimit != 50 || got.DefaultTimeoutSeconds != 30 {
		t.Fatalf("normalised = %+v", got)
	}
	if got.StorePath == "" || got.VaultPath == "" || got.HistoryPath == "" {
		t.Fatalf("paths must be filled: %+v", got)
	}
}
