package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the ordex API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	Secrets SecretsConfig `yaml:"secrets"`
	Orders  OrdersConfig  `yaml:"orders"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds document store settings. Endpoint and credential are not
// configured here: they are secrets looked up under the given keys.
type StoreConfig struct {
	Driver           string `yaml:"driver"` // elastic, redis (default: elastic)
	EndpointKey      string `yaml:"endpoint_key"`
	CredentialKey    string `yaml:"credential_key"`
	AllowAnonymous   bool   `yaml:"allow_anonymous"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	KeyPrefix        string `yaml:"key_prefix"` // redis only
}

// SecretsConfig selects where store secrets are read from.
type SecretsConfig struct {
	Provider string `yaml:"provider"` // env, file (default: env)
	Dir      string `yaml:"dir"`
}

// OrdersConfig holds settings of the orders index.
type OrdersConfig struct {
	Index           string `yaml:"index"`
	Mapping         string `yaml:"mapping"`
	MappingsDir     string `yaml:"mappings_dir"` // empty: mappings compiled into the binary
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxResults      int    `yaml:"max_results"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "elastic"
	}
	if c.Store.EndpointKey == "" {
		c.Store.EndpointKey = "ORDEX_STORE_ENDPOINT"
	}
	if c.Store.CredentialKey == "" {
		c.Store.CredentialKey = "ORDEX_STORE_CREDENTIAL"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "ordex:"
	}
	if c.Secrets.Provider == "" {
		c.Secrets.Provider = "env"
	}
	if c.Orders.Index == "" {
		c.Orders.Index = "orders"
	}
	if c.Orders.Mapping == "" {
		c.Orders.Mapping = "orders.mapping.json"
	}
	if c.Orders.MaxResults <= 0 {
		c.Orders.MaxResults = 1000
	}
	if c.Orders.DefaultPageSize <= 0 {
		c.Orders.DefaultPageSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "elastic", "redis":
	default:
		return fmt.Errorf("store.driver must be \"elastic\" or \"redis\", got %q", c.Store.Driver)
	}
	switch c.Secrets.Provider {
	case "env":
	case "file":
		if c.Secrets.Dir == "" {
			return fmt.Errorf("secrets.dir is required for the file provider")
		}
	default:
		return fmt.Errorf("secrets.provider must be \"env\" or \"file\", got %q", c.Secrets.Provider)
	}
	if strings.TrimSpace(c.Orders.Index) == "" {
		return fmt.Errorf("orders.index is required")
	}
	if c.Orders.DefaultPageSize > c.Orders.MaxResults {
		return fmt.Errorf("orders.default_page_size (%d) exceeds orders.max_results (%d)",
			c.Orders.DefaultPageSize, c.Orders.MaxResults)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
