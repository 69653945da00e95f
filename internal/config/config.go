// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for scout.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete scout configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Server is the recruiting assistant backend.
	Server ServerConfig `toml:"server" json:"server"`

	// Stream controls how streamed replies are surfaced.
	Stream StreamConfig `toml:"stream" json:"stream"`

	// Storage holds the durable client-local state location.
	Storage StorageConfig `toml:"storage" json:"storage"`

	Log       LogConfig       `toml:"log" json:"log"`
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`
	UI        UIConfig        `toml:"ui" json:"ui"`
}

// ServerConfig contains remote endpoint settings.
type ServerConfig struct {
	// URL is the base URL of the backend, e.g. http://localhost:8000
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds non-streaming requests (session list, transcript load)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// StreamTimeoutSecs bounds a whole chat exchange; 0 disables the limit
	StreamTimeoutSecs int `toml:"stream_timeout_secs" json:"stream_timeout_secs"`
	// UserAgent is sent on every request
	UserAgent string `toml:"user_agent" json:"user_agent"`
}

// StreamConfig contains stream consumer settings.
type StreamConfig struct {
	// ThrottleMs is the minimum spacing between non-terminal snapshots
	ThrottleMs int `toml:"throttle_ms" json:"throttle_ms"`

	// ReadBufferBytes caps how much of the body is decoded per read
	ReadBufferBytes int `toml:"read_buffer_bytes" json:"read_buffer_bytes"`
}

// StorageConfig contains local state settings.
type StorageConfig struct {
	// StatePath is the SQLite file holding the credential and settings
	StatePath string `toml:"state_path" json:"state_path"`
}

// LogConfig contains log file settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level      string `toml:"level" json:"level"`
	Path       string `toml:"path" json:"path"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
}

// TelemetryConfig contains exchange tracing settings.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the markdown render width
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// SidebarWidth is the width of the session list column; 0 hides it
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), ".scout")
	}
	return &Config{
		Version: "1",
		Server: ServerConfig{
			URL:               "http://localhost:8000",
			TimeoutSecs:       30,
			StreamTimeoutSecs: 300,
			UserAgent:         "scout-tui",
		},
		Stream: StreamConfig{
			ThrottleMs:      50,
			ReadBufferBytes: 4096,
		},
		Storage: StorageConfig{
			StatePath: filepath.Join(dir, "state.db"),
		},
		Log: LogConfig{
			Level:      "info",
			Path:       filepath.Join(dir, "logs", "scout.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Path:    filepath.Join(dir, "logs", "traces.log"),
		},
		UI: UIConfig{
			Theme:        "auto",
			WordWrap:     80,
			SidebarWidth: 28,
		},
	}
}

// Timeout returns the non-streaming request timeout.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// StreamTimeout returns the exchange timeout (0 means none).
func (s ServerConfig) StreamTimeout() time.Duration {
	return time.Duration(s.StreamTimeoutSecs) * time.Second
}

// Interval returns the snapshot throttle interval.
func (s StreamConfig) Interval() time.Duration {
	return time.Duration(s.ThrottleMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the scout configuration directory path.
// SCOUT_HOME overrides the default of ~/.scout.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SCOUT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".scout"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config from %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config from %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# scout configuration file")
	fmt.Fprintln(file, "# Generated by scout - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{"server.url", fmt.Sprintf("must be an http(s) URL, got %q", c.Server.URL)})
	}
	if c.Server.TimeoutSecs < 1 {
		errs = append(errs, ValidationError{"server.timeout_secs", "must be at least 1"})
	}
	if c.Server.StreamTimeoutSecs < 0 {
		errs = append(errs, ValidationError{"server.stream_timeout_secs", "must not be negative"})
	}
	if c.Stream.ThrottleMs < 1 || c.Stream.ThrottleMs > 5000 {
		errs = append(errs, ValidationError{"stream.throttle_ms", "must be between 1 and 5000"})
	}
	if c.Stream.ReadBufferBytes < 64 || c.Stream.ReadBufferBytes > 1<<20 {
		errs = append(errs, ValidationError{"stream.read_buffer_bytes", "must be between 64 and 1048576"})
	}
	if c.Storage.StatePath == "" {
		errs = append(errs, ValidationError{"storage.state_path", "must not be empty"})
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"log.level", fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("must be dark, light or auto, got %q", c.UI.Theme)})
	}
	if c.UI.SidebarWidth < 0 {
		errs = append(errs, ValidationError{"ui.sidebar_width", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if c.Server.UserAgent == "" {
		c.Server.UserAgent = d.Server.UserAgent
	}
	if c.Stream.ThrottleMs == 0 {
		c.Stream.ThrottleMs = d.Stream.ThrottleMs
	}
	if c.Stream.ReadBufferBytes == 0 {
		c.Stream.ReadBufferBytes = d.Stream.ReadBufferBytes
	}
	if c.Storage.StatePath == "" {
		c.Storage.StatePath = d.Storage.StatePath
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Path == "" {
		c.Log.Path = d.Log.Path
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if c.Telemetry.Path == "" {
		c.Telemetry.Path = d.Telemetry.Path
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = d.UI.WordWrap
	}
}

// ApplyEnvOverrides applies environment variable overrides:
//   - SCOUT_SERVER_URL: overrides server.url
//   - SCOUT_STATE_PATH: overrides storage.state_path
//   - SCOUT_LOG_LEVEL: overrides log.level
//   - SCOUT_THROTTLE_MS: overrides stream.throttle_ms
//   - SCOUT_TELEMETRY: overrides telemetry.enabled
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SCOUT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("SCOUT_STATE_PATH"); v != "" {
		c.Storage.StatePath = v
	}
	if v := os.Getenv("SCOUT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SCOUT_THROTTLE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Stream.ThrottleMs = ms
		}
	}
	if v := os.Getenv("SCOUT_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "stream.throttle_ms").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.EqualFold(strVal, "true") || strings.EqualFold(strVal, "yes")
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.url",
		"server.timeout_secs",
		"server.stream_timeout_secs",
		"server.user_agent",
		"stream.throttle_ms",
		"stream.read_buffer_bytes",
		"storage.state_path",
		"log.level",
		"log.path",
		"log.max_size_mb",
		"log.max_backups",
		"log.max_age_days",
		"telemetry.enabled",
		"telemetry.path",
		"ui.theme",
		"ui.word_wrap",
		"ui.sidebar_width",
	}
}

// String returns an indented JSON representation for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
