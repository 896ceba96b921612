package esindex

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	envURL      = "ELASTICSEARCH_URL"
	envUsername = "ELASTICSEARCH_USERNAME"
	envPassword = "ELASTICSEARCH_PASSWORD"
)

// Config holds the connection settings of the backend.
type Config struct {
	// URL is the backend URL (default: http://localhost:9200)
	URL string `yaml:"url"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Sniff enables cluster node discovery.
	Sniff bool `yaml:"sniff"`

	// HealthcheckInterval is the period of background health checks
	// (default: 10s). Negative disables health checks.
	HealthcheckInterval time.Duration `yaml:"healthcheck_interval"`
}

// SetDefaults applies default values to the config if not set
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:9200"
	}
	if c.HealthcheckInterval == 0 {
		c.HealthcheckInterval = 10 * time.Second
	}
}

// LoadConfig reads a YAML config file, then lets the environment (and a
// .env file in the working directory, if any) override the connection values.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "ReadFile")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "Unmarshal [%s]", path)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "godotenv.Load")
	}

	if v := os.Getenv(envURL); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv(envUsername); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(envPassword); v != "" {
		cfg.Password = v
	}

	cfg.SetDefaults()
	return &cfg, nil
}
