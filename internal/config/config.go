// Package config provides centralized configuration for the server.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the deployment environment.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvTest Environment = "test"
	EnvProd Environment = "prod"
)

// Config holds all application configuration.
type Config struct {
	Environment Environment `json:"environment"`
	LogLevel    string      `json:"log_level"`

	// Module registry
	RegistryBaseURL string        `json:"registry_base_url"`
	RegistryTimeout time.Duration `json:"registry_timeout"`

	// Source fetching
	FetchMaxBytes int64         `json:"fetch_max_bytes"`
	FetchTimeout  time.Duration `json:"fetch_timeout"`

	// External binaries
	CheckovPath   string `json:"checkov_path"`
	TerraformPath string `json:"terraform_path"`

	// Subprocess execution
	CommandTimeout time.Duration `json:"command_timeout"`

	// Remediation strategy overrides (optional YAML file)
	StrategyOverridePath string `json:"strategy_override_path"`
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	env := Environment(getEnv("ENVIRONMENT", "dev"))
	if env != EnvDev && env != EnvTest && env != EnvProd {
		env = EnvDev
	}

	return &Config{
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", logLevelForEnv(env)),

		RegistryBaseURL: getEnv("REGISTRY_BASE_URL", "https://registry.terraform.io"),
		RegistryTimeout: getDurationEnv("REGISTRY_TIMEOUT", 30*time.Second),

		FetchMaxBytes: getInt64Env("FETCH_MAX_BYTES", 50<<20), // 50MB default
		FetchTimeout:  getDurationEnv("FETCH_TIMEOUT", 2*time.Minute),

		CheckovPath:   getEnv("CHECKOV_PATH", "checkov"),
		TerraformPath: getEnv("TERRAFORM_PATH", "terraform"),

		CommandTimeout: getDurationEnv("COMMAND_TIMEOUT", 10*time.Minute),

		StrategyOverridePath: os.Getenv("STRATEGY_OVERRIDES"),
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.FetchMaxBytes <= 0 {
		return fmt.Errorf("FETCH_MAX_BYTES must be positive")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("COMMAND_TIMEOUT must be positive")
	}
	if !strings.HasPrefix(c.RegistryBaseURL, "http://") && !strings.HasPrefix(c.RegistryBaseURL, "https://") {
		return fmt.Errorf("REGISTRY_BASE_URL must be an http(s) URL")
	}
	return nil
}

// IsProd returns true if running in production.
func (c *Config) IsProd() bool { return c.Environment == EnvProd }

// IsTest returns true if running in test environment.
func (c *Config) IsTest() bool { return c.Environment == EnvTest }

// IsDev returns true if running in dev environment.
func (c *Config) IsDev() bool { return c.Environment == EnvDev }

func logLevelForEnv(env Environment) string {
	switch env {
	case EnvProd:
		return "info"
	default:
		return "debug"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt64Env(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
