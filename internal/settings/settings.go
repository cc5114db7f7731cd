// Package settings loads user-level cgt settings from ~/.cgt/settings.json.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agbgames/cgt/internal/schema"
)

// Environment variables overriding settings.
const (
	EnvLogDir  = "CGT_LOG_DIR"
	EnvNoColor = "CGT_NO_COLOR"
	// EnvNoColorStandard is the cross-tool convention (https://no-color.org).
	EnvNoColorStandard = "NO_COLOR"
)

// Defaults.
const (
	DefaultLogDir      = ".cgt"
	DefaultLogFormat   = "text"
	DefaultLogLevel    = "info"
	DefaultHookTimeout = 60 * time.Second
	DefaultDataDir     = "Data"
)

// dirName is the directory under the user's home holding settings.json.
const dirName = ".cgt"

// fileName is the settings file name.
const fileName = "settings.json"

// Settings holds user-level CLI settings. They apply to every project.
type Settings struct {
	// LogDir is relative to the descriptor directory unless absolute.
	LogDir string `json:"log_dir,omitempty"`
	// LogFile controls per-command log files. nil = enabled.
	LogFile   *bool  `json:"log_file,omitempty"`
	LogFormat string `json:"log_format,omitempty"`
	LogLevel  string `json:"log_level,omitempty"`
	// Color forces console colors. nil = auto-detect.
	Color              *bool  `json:"color,omitempty"`
	HookTimeoutSeconds int    `json:"hook_timeout_seconds,omitempty"`
	DataDir            string `json:"data_dir,omitempty"`
}

// basePath overrides the home directory for testing.
var basePath string

// Path returns the path of the settings file.
func Path() (string, error) {
	base := basePath
	if base == "" {
		var err error
		base, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(base, dirName, fileName), nil
}

// Load reads the settings file and applies environment overrides.
//
// A missing file yields defaults and no error. An unreadable or invalid file
// yields defaults together with the error, so callers can warn and continue.
func Load() (*Settings, error) {
	s, err := load()
	if err != nil {
		s = &Settings{}
	}
	s.applyEnv()
	return s, err
}

func load() (*Settings, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates data against the settings schema and decodes it.
func Parse(data []byte) (*Settings, error) {
	if err := schema.ValidateSettings(data); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &s, nil
}

func (s *Settings) applyEnv() {
	if dir := strings.TrimSpace(os.Getenv(EnvLogDir)); dir != "" {
		s.LogDir = dir
	}
	if isTruthy(os.Getenv(EnvNoColor)) || os.Getenv(EnvNoColorStandard) != "" {
		off := false
		s.Color = &off
	}
}

func isTruthy(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err != nil || b
}

// Save writes s to the settings file, creating its directory.
func (s *Settings) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// IsLogFileEnabled reports whether per-command log files are written.
func (s *Settings) IsLogFileEnabled() bool {
	if s.LogFile == nil {
		return true
	}
	return *s.LogFile
}

// ColorEnabled returns the configured color mode, or detected when unset.
func (s *Settings) ColorEnabled(detected bool) bool {
	if s.Color == nil {
		return detected
	}
	return *s.Color
}

// ResolveLogDir returns the log directory for a project rooted at projectDir.
func (s *Settings) ResolveLogDir(projectDir string) string {
	dir := s.LogDir
	if dir == "" {
		dir = DefaultLogDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(projectDir, dir)
}

// Format returns the log file format.
func (s *Settings) Format() string {
	if s.LogFormat == "" {
		return DefaultLogFormat
	}
	return s.LogFormat
}

// Level returns the console log level name.
func (s *Settings) Level() string {
	if s.LogLevel == "" {
		return DefaultLogLevel
	}
	return s.LogLevel
}

// HookTimeout returns the default post-build timeout.
func (s *Settings) HookTimeout() time.Duration {
	if s.HookTimeoutSeconds <= 0 {
		return DefaultHookTimeout
	}
	return time.Duration(s.HookTimeoutSeconds) * time.Second
}

// Data returns the scratch directory used for unpacked archives.
func (s *Settings) Data() string {
	if s.DataDir == "" {
		return DefaultDataDir
	}
	return s.DataDir
}
