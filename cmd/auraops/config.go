package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Docker   DockerConfig   `mapstructure:"docker"`
	Log      LogConfig      `mapstructure:"log"`
	Proxy    ProxyConfig    `mapstructure:"proxy"`
	Certs    CertsConfig    `mapstructure:"certs"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProxyConfig holds reverse proxy configuration.
type ProxyConfig struct {
	// ConfigDir is the host directory mounted by the proxy container as
	// its conf.d.
	ConfigDir string `mapstructure:"config_dir"`

	// StaticRoot is where built static site bundles are published.
	StaticRoot string `mapstructure:"static_root"`

	// BaseDomain enables wildcard subdomain routing when set
	// (e.g. "apps.example.com" routes <project>.apps.example.com).
	BaseDomain string `mapstructure:"base_domain"`

	// AppPort is the container port wildcard routing targets.
	AppPort int `mapstructure:"app_port"`

	// PlatformDomain enables the management vhost when set: requests under
	// the API path prefix proxy to APIUpstream, everything else serves the
	// front-end with SPA fallback.
	PlatformDomain string `mapstructure:"platform_domain"`

	// APIUpstream is the host:port the platform vhost proxies API traffic
	// to, as reachable from inside the proxy container.
	APIUpstream string `mapstructure:"api_upstream"`

	// FrontendDir is the management UI root served by the platform vhost.
	FrontendDir string `mapstructure:"frontend_dir"`
}

// CertsConfig holds certificate lifecycle configuration.
type CertsConfig struct {
	// Email is the certificate authority account contact.
	Email string `mapstructure:"email"`

	// RenewInterval is how often the renewal sweep runs.
	RenewInterval time.Duration `mapstructure:"renew_interval"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "./data/auraops.db")
	v.SetDefault("docker.host", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("proxy.config_dir", "./data/nginx")
	v.SetDefault("proxy.static_root", "/var/www")
	v.SetDefault("proxy.base_domain", "")
	v.SetDefault("proxy.app_port", 3000)
	v.SetDefault("proxy.platform_domain", "")
	v.SetDefault("proxy.api_upstream", "host.docker.internal:8080")
	v.SetDefault("proxy.frontend_dir", "/var/www/platform")
	v.SetDefault("certs.email", "")
	v.SetDefault("certs.renew_interval", "12h")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("AURAOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
