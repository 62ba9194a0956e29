/*
Package configs is responsible for loading and parsing the application's configuration settings.

Values are resolved in three layers: built-in defaults, an optional YAML file, and
operating system environment variables. The result configures the API client (base
address, polling period, admin identity), the local session store, and the local
API server.
*/
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBaseURL is the address of the hosted chat Worker.
	DefaultAPIBaseURL = "https://monet-chat-api.bin856672.workers.dev/"

	// DefaultAdminUsername is the designated administrator identity.
	DefaultAdminUsername = "xiyue"

	// DefaultPollInterval is the message polling period.
	DefaultPollInterval = 3 * time.Second

	// DefaultPort is the listening port of the local API server.
	DefaultPort = 8787

	// DefaultAutoClearTick is how often the local API server checks the auto-clear period.
	DefaultAutoClearTick = time.Minute

	// ConfigFileEnv names the environment variable pointing at a YAML config file.
	ConfigFileEnv = "MONETCHAT_CONFIG"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Settings
	Environment string `yaml:"environment"`

	// Client Settings
	APIBaseURL    string        `yaml:"api_base_url"`
	AdminUsername string        `yaml:"admin_username"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	StorePath     string        `yaml:"store_path"`

	// Local Server Settings
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AutoClearTick  time.Duration `yaml:"auto_clear_tick"`
}

// IsDevelopment reports whether the application runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Default returns the configuration used when nothing else is provided.
func Default() *AppConfig {
	return &AppConfig{
		Environment:    "production",
		APIBaseURL:     DefaultAPIBaseURL,
		AdminUsername:  DefaultAdminUsername,
		PollInterval:   DefaultPollInterval,
		StorePath:      defaultStorePath(),
		Port:           DefaultPort,
		AllowedOrigins: []string{},
		AutoClearTick:  DefaultAutoClearTick,
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".monetchat", "session")
	}
	return filepath.Join(home, ".monetchat", "session")
}

// LoadConfig reads and parses the application configuration.
// path names an optional YAML file; when empty, MONETCHAT_CONFIG is consulted.
// Environment variables override file values. The client settings are validated before
// the result is returned.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path onto cfg.
func loadFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}

	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		cfg.AdminUsername = v
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL environment variable: %w", err)
		}
		cfg.PollInterval = d
	}

	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.StorePath = v
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT environment variable: %w", err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = cfg.AllowedOrigins[:0]
		for _, origin := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	if v := os.Getenv("AUTO_CLEAR_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AUTO_CLEAR_TICK environment variable: %w", err)
		}
		cfg.AutoClearTick = d
	}

	return nil
}

// Validate checks the settings every client command relies on.
// Local server settings are checked separately by ValidateServer.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("API base URL must not be empty")
	}

	if strings.TrimSpace(c.AdminUsername) == "" {
		return errors.New("admin username must not be empty")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}

	return nil
}

// ValidateServer checks the local API server settings on top of Validate.
func (c *AppConfig) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.AutoClearTick <= 0 {
		return fmt.Errorf("auto-clear tick must be positive, got %s", c.AutoClearTick)
	}

	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	return nil
}
