package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/am-report-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/am-report-server/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("AM_REPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "300s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Generation backend defaults
	viper.SetDefault("backend.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("backend.api_key", "")
	viper.SetDefault("backend.timeout", "180s")
	viper.SetDefault("backend.rate_limit", 2)
	viper.SetDefault("backend.default_model", "flash")
	viper.SetDefault("backend.temperature", 0.7)
	viper.SetDefault("backend.top_p", 0.95)
	viper.SetDefault("backend.top_k", 20)
	viper.SetDefault("backend.max_output_tokens", 86384)

	// Archive defaults
	viper.SetDefault("archive.driver", "sqlite")
	viper.SetDefault("archive.path", "./data/reports.db")
	viper.SetDefault("archive.url", "")

	// Generation cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_entries", 128)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetBackendConfig returns generation backend configuration
func (m *Manager) GetBackendConfig() *domain.BackendConfig {
	return &m.config.Backend
}

// GetArchiveConfig returns report archive configuration
func (m *Manager) GetArchiveConfig() *domain.ArchiveConfig {
	return &m.config.Archive
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate backend configuration
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if config.Backend.RateLimit <= 0 {
		return fmt.Errorf("backend rate limit must be positive: %d", config.Backend.RateLimit)
	}
	if !domain.ModelTier(config.Backend.DefaultModel).IsValid() {
		return fmt.Errorf("invalid default model tier: %s", config.Backend.DefaultModel)
	}

	// Validate archive configuration
	switch config.Archive.Driver {
	case "sqlite":
		if config.Archive.Path == "" {
			return fmt.Errorf("archive path is required for sqlite driver")
		}
	case "postgres":
		if config.Archive.URL == "" {
			return fmt.Errorf("archive URL is required for postgres driver")
		}
	case "none":
		// Archiving disabled
	default:
		return fmt.Errorf("invalid archive driver: %s", config.Archive.Driver)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
