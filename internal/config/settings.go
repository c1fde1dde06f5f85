package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
	"github.com/Aimarl0/keymap-extension/internal/logging"
)

// Duration is a time.Duration written as a string such as "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings is the root of the settings file.
type Settings struct {
	Storage StorageSettings `toml:"storage"`
	Editor  EditorSettings  `toml:"editor"`
	Runtime RuntimeSettings `toml:"runtime"`
	Log     LogSettings     `toml:"log"`
}

// StorageSettings locates the stores.
type StorageSettings struct {
	// SyncPath is the JSON document backing the sync store.
	SyncPath string `toml:"sync_path"`
	// BackupPath is the SQLite database holding backup snapshots.
	BackupPath string `toml:"backup_path"`
}

// EditorSettings tunes the editor session timers.
type EditorSettings struct {
	AutosaveDelay  Duration `toml:"autosave_delay"`
	BackupInterval Duration `toml:"backup_interval"`
}

// RuntimeSettings tunes the remapping runtime.
type RuntimeSettings struct {
	RetryInterval    Duration `toml:"retry_interval"`
	EventGap         Duration `toml:"event_gap"`
	DefaultStepDelay Duration `toml:"default_step_delay"`
	// Platform selects modifier naming: "", "apple" or "other".
	// Empty detects the host platform.
	Platform string `toml:"platform"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Storage: StorageSettings{
			SyncPath:   filepath.Join(configHome(), "keymapper", "sync.json"),
			BackupPath: filepath.Join(stateHome(), "keymapper", "backup.db"),
		},
		Editor: EditorSettings{
			AutosaveDelay:  Duration{3 * time.Second},
			BackupInterval: Duration{60 * time.Second},
		},
		Runtime: RuntimeSettings{
			RetryInterval:    Duration{5 * time.Second},
			EventGap:         Duration{10 * time.Millisecond},
			DefaultStepDelay: Duration{key.DefaultStepDelay},
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	return filepath.Join(configHome(), "keymapper", "settings.toml")
}

// Load reads settings from path on top of the defaults. A missing file
// is not an error. The result is validated.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	if err := Parse(data, s); err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes TOML data into s. Keys absent from data keep their
// current values.
func Parse(data []byte, s *Settings) error {
	if err := toml.Unmarshal(data, s); err != nil {
		perr := &ParseError{Path: "<data>", Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	s.Storage.SyncPath = expandHome(s.Storage.SyncPath)
	s.Storage.BackupPath = expandHome(s.Storage.BackupPath)
	return nil
}

// Encode renders the settings as TOML.
func (s *Settings) Encode() ([]byte, error) {
	return toml.Marshal(s)
}

// Validate checks every setting.
func (s *Settings) Validate() error {
	var errs []error
	check := func(field string, ok bool, msg string) {
		if !ok {
			errs = append(errs, &ValidationError{Field: field, Message: msg})
		}
	}

	check("storage.sync_path", s.Storage.SyncPath != "", "must not be empty")
	check("storage.backup_path", s.Storage.BackupPath != "", "must not be empty")
	check("editor.autosave_delay", s.Editor.AutosaveDelay.Duration > 0, "must be positive")
	check("editor.backup_interval", s.Editor.BackupInterval.Duration > 0, "must be positive")
	check("runtime.retry_interval", s.Runtime.RetryInterval.Duration > 0, "must be positive")
	check("runtime.event_gap", s.Runtime.EventGap.Duration >= 0, "must not be negative")
	check("runtime.default_step_delay", s.Runtime.DefaultStepDelay.Duration >= 0, "must not be negative")

	if _, err := key.ParsePlatform(s.Runtime.Platform); err != nil {
		check("runtime.platform", false, err.Error())
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		check("log.level", false, err.Error())
	}
	if _, err := logging.ParseFormat(s.Log.Format); err != nil {
		check("log.format", false, err.Error())
	}
	return errors.Join(errs...)
}

// Platform returns the configured key naming platform.
func (s *Settings) Platform() key.Platform {
	p, err := key.ParsePlatform(s.Runtime.Platform)
	if err != nil {
		return key.DetectPlatform()
	}
	return p
}

// Logging returns the logging configuration.
func (s *Settings) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(s.Log.Level); err == nil {
		cfg.Level = lvl
	}
	if f, err := logging.ParseFormat(s.Log.Format); err == nil {
		cfg.Format = f
	}
	return cfg
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

func stateHome() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state")
	}
	return "."
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
