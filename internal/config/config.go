package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	APIURL         string        `yaml:"api_url" validate:"required,url"`
	SocketPath     string        `yaml:"socket_path" validate:"required,startswith=/"`
	PollInterval   time.Duration `yaml:"poll_interval" validate:"gt=0"`
	SessionBackend string        `yaml:"session_backend" validate:"oneof=memory file sqlite"`
	SessionPath    string        `yaml:"session_path" validate:"required_unless=SessionBackend memory"`
	DashboardAddr  string        `yaml:"dashboard_addr" validate:"required"`
	SessionSecret  string        `yaml:"session_secret" validate:"required,min=16"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		SocketPath:     "/ws",
		PollInterval:   5 * time.Second,
		SessionBackend: BackendFile,
		SessionPath:    defaultSessionPath(),
		DashboardAddr:  ":8080",
		SessionSecret:  "realtimehub-dev-session-secret",
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".realtimehub/session.json"
	}
	return dir + "/realtimehub/session.json"
}

// New loads configuration from .env, the optional YAML file and environment
// variables, in that order of increasing precedence.
func New(yamlPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := Default()
	if yamlPath != "" {
		if err := cfg.loadYAML(yamlPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config from YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("SOCKET_PATH"); v != "" {
		c.SocketPath = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL %q: %w", v, err)
		}
		c.PollInterval = d
	}
	if v := os.Getenv("SESSION_BACKEND"); v != "" {
		c.SessionBackend = strings.ToLower(v)
	}
	if v := os.Getenv("SESSION_PATH"); v != "" {
		c.SessionPath = v
	}
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		c.DashboardAddr = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	return nil
}

// Validate checks the configuration, returning the first offending field.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("field %s failed on '%s'", fe.Field(), fe.Tag())
	}
	return err
}

// SocketURL is the chat socket endpoint derived from APIURL.
func (c *Config) SocketURL() string {
	u := c.APIURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + c.SocketPath
}
