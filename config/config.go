// Package config holds the user settings consulted at request start.
//
// A Settings value is built once per session and passed around by value;
// it is only changed through Update, which persists the new value.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxTokens = 2000
	DefaultPrompt    = "Write me a 2-3 paragraph summary of this in the first person."
	DefaultModel     = "gpt-3.5-turbo"
	DefaultEndpoint  = "https://api.openai.com/v1/chat/completions"
	DefaultTimeout   = 2 * time.Minute

	// APIKeyEnv is consulted when the settings file carries no key.
	APIKeyEnv = "OPENAI_API_KEY"
)

// Settings is the user configuration.
type Settings struct {
	APIKey        string        `yaml:"api_key"`
	MaxTokens     int           `yaml:"max_tokens"`
	DefaultPrompt string        `yaml:"default_prompt"`
	Model         string        `yaml:"model"`
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	LogLevel      string        `yaml:"log_level"`
	HistoryPath   string        `yaml:"history_path,omitempty"`
	Telemetry     bool          `yaml:"telemetry"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		MaxTokens:     DefaultMaxTokens,
		DefaultPrompt: DefaultPrompt,
		Model:         DefaultModel,
		Endpoint:      DefaultEndpoint,
		Timeout:       DefaultTimeout,
		LogLevel:      "info",
	}
}

// withDefaults fills zero fields from Default.
func (s Settings) withDefaults() Settings {
	d := Default()
	if s.MaxTokens <= 0 {
		s.MaxTokens = d.MaxTokens
	}
	if strings.TrimSpace(s.DefaultPrompt) == "" {
		s.DefaultPrompt = d.DefaultPrompt
	}
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.Endpoint == "" {
		s.Endpoint = d.Endpoint
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	return s
}

// Validate reports settings that cannot be used for a request.
func (s Settings) Validate() error {
	if s.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", s.MaxTokens)
	}
	if !strings.HasPrefix(s.Endpoint, "http://") && !strings.HasPrefix(s.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", s.Endpoint)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (s Settings) Redacted() Settings {
	if len(s.APIKey) > 8 {
		s.APIKey = s.APIKey[:3] + "..." + s.APIKey[len(s.APIKey)-4:]
	} else if s.APIKey != "" {
		s.APIKey = "***"
	}
	return s
}

// Load reads the settings file (a missing file means defaults), then loads
// envFiles into the process environment and fills an empty API key from
// OPENAI_API_KEY.
func Load(path string, envFiles ...string) (Settings, error) {
	s, err := loadFile(path)
	if err != nil {
		return Settings{}, err
	}
	if err := loadEnv(envFiles...); err != nil {
		return Settings{}, err
	}
	if s.APIKey == "" {
		s.APIKey = os.Getenv(APIKeyEnv)
	}
	return s, nil
}

func loadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s.withDefaults(), nil
}

func loadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// Save writes the settings file, creating its folder. The file holds a
// credential, so it is only readable by the owner.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Update applies fn to the persisted settings, validates and saves the
// result. Environment-provided values are never written back.
func Update(path string, fn func(*Settings) error) (Settings, error) {
	s, err := loadFile(path)
	if err != nil {
		return Settings{}, err
	}
	if err := fn(&s); err != nil {
		return Settings{}, err
	}
	s = s.withDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	if err := Save(path, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Keys lists the names accepted by Set.
var Keys = []string{"api_key", "max_tokens", "default_prompt", "model", "endpoint", "timeout", "log_level", "history_path", "telemetry"}

// Set assigns one setting from its textual form.
func (s *Settings) Set(key, value string) error {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "api_key":
		s.APIKey = strings.TrimSpace(value)
	case "max_tokens":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			return fmt.Errorf("max_tokens must be a positive integer, got %q", value)
		}
		s.MaxTokens = n
	case "default_prompt":
		s.DefaultPrompt = value
	case "model":
		s.Model = strings.TrimSpace(value)
	case "endpoint":
		s.Endpoint = strings.TrimSpace(value)
	case "timeout":
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		s.Timeout = d
	case "log_level":
		s.LogLevel = strings.TrimSpace(value)
	case "history_path":
		s.HistoryPath = strings.TrimSpace(value)
	case "telemetry":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		s.Telemetry = b
	default:
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "notesum", "settings.yaml")
}
