// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	System    SystemConfig    `yaml:"system"`
}

// ExchangeConfig contains exchange connection settings
type ExchangeConfig struct {
	Name        string `yaml:"name"`
	APIKey      Secret `yaml:"api_key"`
	SecretKey   Secret `yaml:"secret_key"`
	BaseURL     string `yaml:"base_url"`     // Optional override for API URL
	SandboxMode bool   `yaml:"sandbox_mode"` // Route to the exchange testnet
	RateLimit   int    `yaml:"rate_limit"`   // Outbound requests per second, 0 disables throttling
}

// ServerConfig contains the tool server settings
type ServerConfig struct {
	Port         int `yaml:"port"`
	PoolSize     int `yaml:"pool_size"`     // Max concurrent tool invocations
	PoolCapacity int `yaml:"pool_capacity"` // Queued invocations before rejecting
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel string `yaml:"log_level"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// DefaultConfig returns a configuration with safe defaults. Credentials are
// expected from the environment.
func DefaultConfig() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Name:        "binance",
			APIKey:      Secret(os.Getenv("EXCHANGE_API_KEY")),
			SecretKey:   Secret(os.Getenv("EXCHANGE_API_SECRET")),
			SandboxMode: true,
			RateLimit:   10,
		},
		Server: ServerConfig{
			Port:         8080,
			PoolSize:     10,
			PoolCapacity: 100,
		},
		Telemetry: TelemetryConfig{
			MetricsPort:   9090,
			EnableMetrics: true,
		},
		System: SystemConfig{
			LogLevel: "INFO",
		},
	}
}

// LoadEnvFile loads a .env file into the process environment if present.
// Missing files are not an error; explicit environment wins over file values.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	var errs []string

	if c.Exchange.Name == "" {
		errs = append(errs, ValidationError{Field: "exchange.name", Value: c.Exchange.Name, Message: "exchange name is required"}.Error())
	}
	if c.Exchange.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "exchange.rate_limit", Value: c.Exchange.RateLimit, Message: "must be >= 0"}.Error())
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{Field: "server.port", Value: c.Server.Port, Message: "must be a valid TCP port"}.Error())
	}
	if c.Server.PoolSize <= 0 {
		errs = append(errs, ValidationError{Field: "server.pool_size", Value: c.Server.PoolSize, Message: "must be > 0"}.Error())
	}
	if c.Telemetry.EnableMetrics && (c.Telemetry.MetricsPort <= 0 || c.Telemetry.MetricsPort > 65535) {
		errs = append(errs, ValidationError{Field: "telemetry.metrics_port", Value: c.Telemetry.MetricsPort, Message: "must be a valid TCP port"}.Error())
	}
	switch strings.ToUpper(c.System.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR", "FATAL":
	default:
		errs = append(errs, ValidationError{Field: "system.log_level", Value: c.System.LogLevel, Message: "must be one of DEBUG INFO WARN ERROR FATAL"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// expandEnvVars expands ${VAR} references in the YAML content
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}
