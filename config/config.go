package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/slighter12/sysprop-go/dispatch"
	"github.com/slighter12/sysprop-go/logger"
)

const envPrefix = "SYSPROP_"

// Config represents the service configuration
type Config struct {
	Name        string    `json:"name" yaml:"name"`
	Version     string    `json:"version" yaml:"version"`
	Description string    `json:"description" yaml:"description"`
	Server      Server    `json:"server" yaml:"server"`
	Limits      Limits    `json:"limits" yaml:"limits"`
	Tools       Tools     `json:"tools" yaml:"tools"`
	Logging     Logging   `json:"logging" yaml:"logging"`
	Telemetry   Telemetry `json:"telemetry" yaml:"telemetry"`
}

// Server represents server configuration
type Server struct {
	Host  string `json:"host" yaml:"host"`
	Port  int    `json:"port" yaml:"port"`
	Debug bool   `json:"debug" yaml:"debug"`
}

// Limits holds request body ceilings in bytes for the two entry points.
type Limits struct {
	APIBodyBytes  int64 `json:"api_body_bytes" yaml:"api_body_bytes"`
	FormBodyBytes int64 `json:"form_body_bytes" yaml:"form_body_bytes"`
}

// Tools controls which compiled-in tools are exposed.
type Tools struct {
	// Exclude holds glob patterns matched against tool names.
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// Logging represents logging configuration
type Logging struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// Path is an optional log file; stderr is always written.
	Path string `json:"path" yaml:"path"`
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	ServiceName  string `json:"service_name" yaml:"service_name"`
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return &Config{
		Name:        "sysprop",
		Version:     "0.1.0",
		Description: "Catalogue of physical property calculators",
		Server: Server{
			Host:  "localhost",
			Port:  9080,
			Debug: false,
		},
		Limits: Limits{
			APIBodyBytes:  dispatch.DefaultAPIBodyBytes,
			FormBodyBytes: dispatch.DefaultFormBodyBytes,
		},
		Tools: Tools{Exclude: []string{}},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Path:   filepath.Join(home, ".sysprop", "logs", "sysprop.log"),
		},
		Telemetry: Telemetry{
			Enabled:     false,
			ServiceName: "sysprop",
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func marshal(path string, cfg *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// LoadConfig loads the configuration from a JSON or YAML file. Values from
// the environment, including a .env file in the working directory, take
// precedence over the file.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	// Read config file if it exists
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := unmarshal(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	loadDotEnv()
	// Override with environment variables (highest priority).
	applyEnvOverrides(cfg)
	cfg.Normalize()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like LoadConfig, except that a missing file yields the
// defaults with environment overrides applied instead of an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadConfig(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := NewConfig()
	loadDotEnv()
	applyEnvOverrides(cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env without overriding variables already set.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Ignoring unreadable .env file", "error", err)
	}
}

// SaveConfig saves the configuration to a file
func SaveConfig(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := marshal(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func envInt64(name string, target *int64) {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Warn("Ignoring invalid environment override", "name", envPrefix+name, "value", raw, "error", err)
		return
	}
	*target = parsed
}

func envBool(name string, target *bool) {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("Ignoring invalid environment override", "name", envPrefix+name, "value", raw, "error", err)
		return
	}
	*target = parsed
}

func envString(name string, target *string) {
	if raw := os.Getenv(envPrefix + name); raw != "" {
		*target = raw
	}
}

func applyEnvOverrides(cfg *Config) {
	port := int64(cfg.Server.Port)
	envInt64("PORT", &port)
	cfg.Server.Port = int(port)

	envString("HOST", &cfg.Server.Host)
	envBool("DEBUG", &cfg.Server.Debug)
	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)
	envString("LOG_PATH", &cfg.Logging.Path)
	envInt64("API_BODY_BYTES", &cfg.Limits.APIBodyBytes)
	envInt64("FORM_BODY_BYTES", &cfg.Limits.FormBodyBytes)

	if exclude := os.Getenv(envPrefix + "TOOLS_EXCLUDE"); exclude != "" {
		cfg.Tools.Exclude = parseCSV(exclude)
	}

	envBool("TELEMETRY_ENABLED", &cfg.Telemetry.Enabled)
	envString("OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
}

// Normalize canonicalizes config values so downstream validation and runtime
// logic operate on stable representations.
func (c *Config) Normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Path = strings.TrimSpace(c.Logging.Path)
	c.Tools.Exclude = normalizeList(c.Tools.Exclude)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	if c.Limits.APIBodyBytes == 0 {
		c.Limits.APIBodyBytes = dispatch.DefaultAPIBodyBytes
	}
	if c.Limits.FormBodyBytes == 0 {
		c.Limits.FormBodyBytes = dispatch.DefaultFormBodyBytes
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "sysprop"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid port number")
	}

	if c.Server.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Limits.APIBodyBytes < 0 || c.Limits.FormBodyBytes < 0 {
		return errors.New("body limits cannot be negative")
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint != "" &&
		!strings.HasPrefix(c.Telemetry.OTLPEndpoint, "http://") && !strings.HasPrefix(c.Telemetry.OTLPEndpoint, "https://") {
		return fmt.Errorf("invalid otlp endpoint %q: expected an http(s) URL", c.Telemetry.OTLPEndpoint)
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ResolveConfigPath returns the path that should be used for configuration.
func ResolveConfigPath() (string, error) {
	// First check environment variable
	if path := strings.TrimSpace(os.Getenv(envPrefix + "CONFIG_PATH")); path != "" {
		return path, nil
	}

	// Then check the working directory
	for _, candidate := range []string{"config/sysprop.yaml", "config/sysprop.json"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	// Finally check home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".sysprop", "config", "sysprop.json"), nil
}

// EnsureDefaultConfig creates a default config file if one does not exist.
func EnsureDefaultConfig(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path cannot be empty")
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	return SaveConfig(NewConfig(), path)
}

func parseCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
