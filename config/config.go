package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	Env      string         `yaml:"env"`
	HTTPAddr string         `yaml:"http_addr"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	RedisURL string         `yaml:"redis_url"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  bool           `yaml:"metrics_enabled"`
}

type DatabaseConfig struct {
	// Driver is mysql, pgx or memory.
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

type AuthConfig struct {
	AccessSecret  string        `yaml:"access_token_secret"`
	RefreshSecret string        `yaml:"refresh_token_secret"`
	AccessTTL     time.Duration `yaml:"access_token_life"`
	RefreshTTL    time.Duration `yaml:"refresh_token_life"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output"`
}

func defaults() *Config {
	return &Config{
		Env:      "development",
		HTTPAddr: ":3002",
		Database: DatabaseConfig{
			Driver:          "mysql",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    10 * time.Second,
		},
		Auth: AuthConfig{
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Metrics: true,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence. Outside production a .env file is
// loaded first when present.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	cfg := defaults()

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("APP_ENV", &c.Env)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("DB_DRIVER", &c.Database.Driver)
	str("DSN", &c.Database.DSN)
	str("ACCESS_TOKEN_SECRET", &c.Auth.AccessSecret)
	str("REFRESH_TOKEN_SECRET", &c.Auth.RefreshSecret)
	str("REDIS_URL", &c.RedisURL)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_OUTPUT", &c.Logging.Output)

	var errs []error
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num("DB_MAX_OPEN_CONNS", &c.Database.MaxOpenConns)
	num("DB_MAX_IDLE_CONNS", &c.Database.MaxIdleConns)
	dur("DB_CONN_MAX_LIFETIME", &c.Database.ConnMaxLifetime)
	dur("QUERY_TIMEOUT", &c.Database.QueryTimeout)
	dur("ACCESS_TOKEN_LIFE", &c.Auth.AccessTTL)
	dur("REFRESH_TOKEN_LIFE", &c.Auth.RefreshTTL)

	if v, ok := os.LookupEnv("METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("METRICS_ENABLED: %w", err))
		} else {
			c.Metrics = b
		}
	}
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "pgx":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("DSN is required for driver "+c.Database.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	return errors.Join(errs...)
}
