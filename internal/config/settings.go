package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

type TelemetrySettings struct {
	Endpoint    string `json:"endpoint"     toml:"endpoint"`
	Insecure    bool   `json:"insecure"     toml:"insecure"`
	ServiceName string `json:"service_name" toml:"service_name"`
}

type Settings struct {
	HistoryLimit          int               `json:"history_limit"           toml:"history_limit"`
	DefaultTimeoutSeconds int               `json:"default_timeout_seconds" toml:"default_timeout_seconds"`
	StorePath             string            `json:"store_path"              toml:"store_path"`
	VaultPath             string            `json:"vault_path"              toml:"vault_path"`
	HistoryPath           string            `json:"history_path"            toml:"history_path"`
	LogLevel              string            `json:"log_level"               toml:"log_level"`
	LogFile               string            `json:"log_file"                toml:"log_file"`
	Telemetry             TelemetrySettings `json:"telemetry"               toml:"telemetry"`
}

type SettingsFormat string

type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

func Dir() string {
	if override := os.Getenv("RESTDOCK_CONFIG_DIR"); override != "" {
		return override
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return ".restdock"
		}
		return filepath.Join(home, ".restdock")
	}
	return filepath.Join(base, "restdock")
}

func DefaultSettings() Settings {
	dir := Dir()
	return Settings{
		HistoryLimit:          50,
		DefaultTimeoutSeconds: 30,
		StorePath:             filepath.Join(dir, "restdock.db"),
		VaultPath:             filepath.Join(dir, "vault.json"),
		HistoryPath:           filepath.Join(dir, "history.json"),
		LogLevel:              "info",
	}
}

// tries loading TOML first, then JSON, then returns defaults if neither
// exists. Parse errors fail immediately but missing files just skip to the
// next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return normalise(settings), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}
	return DefaultSettings(), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func normalise(settings Settings) Settings {
	defaults := DefaultSettings()
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = defaults.HistoryLimit
	}
	if settings.DefaultTimeoutSeconds <= 0 {
		settings.DefaultTimeoutSeconds = defaults.DefaultTimeoutSeconds
	}
	if settings.StorePath == "" {
		settings.StorePath = defaults.StorePath
	}
	if settings.VaultPath == "" {
		settings.VaultPath = defaults.VaultPath
	}
	if settings.HistoryPath == "" {
		settings.HistoryPath = defaults.HistoryPath
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
	return settings
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings = normalise(settings)
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial data.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".restdock-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
