// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"support-feed/internal/feed"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"server"`

	RabbitMQ struct {
		URL string `yaml:"url" validate:"required,url"`
	} `yaml:"rabbitmq"`

	Database struct {
		URL string `yaml:"url" validate:"required"`
	} `yaml:"database"`

	// Workers is the size of the notification dispatch pool.
	Workers int `yaml:"workers" validate:"min=1,max=256"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret" validate:"required,min=16"`
	} `yaml:"auth"`

	Feed struct {
		HistoryLimit int           `yaml:"history_limit" validate:"min=1,max=500"`
		Identity     feed.Identity `yaml:"identity"`
	} `yaml:"feed"`

	Notify struct {
		QueueSize         int           `yaml:"queue_size" validate:"min=1"`
		Desktop           bool          `yaml:"desktop"`
		PermissionTimeout time.Duration `yaml:"permission_timeout"`
	} `yaml:"notify"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// LoadConfig reads a YAML file, expanding ${VAR} references from the
// environment before decoding.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Feed.HistoryLimit == 0 {
		c.Feed.HistoryLimit = feed.DefaultHistoryLimit
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 256
	}
	if c.Notify.PermissionTimeout == 0 {
		c.Notify.PermissionTimeout = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
