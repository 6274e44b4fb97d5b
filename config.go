package metadata

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config mirrors the client options in file form. Zero values leave the
// corresponding option at its default.
type Config struct {
	BaseURL            string `yaml:"baseUrl"`
	Token              string `yaml:"token"`
	UserAgent          string `yaml:"userAgent"`
	TimeoutSeconds     int    `yaml:"timeoutSeconds"`
	ManagedToken       *bool  `yaml:"managedToken"`
	TokenExpirySeconds int    `yaml:"tokenExpirySeconds"`
}

// LoadConfig reads a YAML client configuration from path.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("metadata: parse config: %w", err)
	}
	return &cfg, nil
}

// Options converts the configuration into constructor options.
func (cfg *Config) Options() []Option {
	var opts []Option
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.Token != "" {
		opts = append(opts, WithToken(cfg.Token))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, WithUserAgent(cfg.UserAgent))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if cfg.ManagedToken != nil && !*cfg.ManagedToken {
		opts = append(opts, WithoutManagedToken())
	}
	if cfg.TokenExpirySeconds > 0 {
		opts = append(opts, WithManagedTokenExpiry(cfg.TokenExpirySeconds))
	}
	return opts
}

// Environment variables understood by OptionsFromEnv.
const (
	EnvBaseURL            = "METADATA_BASE_URL"
	EnvToken              = "METADATA_TOKEN"
	EnvUserAgent          = "METADATA_USER_AGENT"
	EnvTimeoutSeconds     = "METADATA_REQUEST_TIMEOUT_SECONDS"
	EnvManagedToken       = "METADATA_MANAGED_TOKEN"
	EnvTokenExpirySeconds = "METADATA_TOKEN_EXPIRY_SECONDS"
)

// OptionsFromEnv builds constructor options from the process
// environment, loading a .env file from the working directory first
// when one is present.
func OptionsFromEnv() ([]Option, error) {
	// A missing .env file is fine; the explicit environment still applies.
	_ = godotenv.Load()

	var opts []Option
	if v := os.Getenv(EnvBaseURL); v != "" {
		opts = append(opts, WithBaseURL(v))
	}
	if v := os.Getenv(EnvToken); v != "" {
		opts = append(opts, WithToken(v))
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		opts = append(opts, WithUserAgent(v))
	}
	if v := os.Getenv(EnvTimeoutSeconds); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("metadata: parse %s: %w", EnvTimeoutSeconds, err)
		}
		opts = append(opts, WithTimeout(time.Duration(seconds)*time.Second))
	}
	if v := os.Getenv(EnvManagedToken); v != "" {
		managed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("metadata: parse %s: %w", EnvManagedToken, err)
		}
		if !managed {
			opts = append(opts, WithoutManagedToken())
		}
	}
	if v := os.Getenv(EnvTokenExpirySeconds); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("metadata: parse %s: %w", EnvTokenExpirySeconds, err)
		}
		opts = append(opts, WithManagedTokenExpiry(seconds))
	}
	return opts, nil
}
