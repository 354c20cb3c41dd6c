package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("ACCESS_TOKEN_SECRET", "a")
	t.Setenv("REFRESH_TOKEN_SECRET", "r")
	t.Setenv("CONFIG_PATH", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":3002" {
		t.Errorf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.Database.QueryTimeout != 10*time.Second {
		t.Errorf("query timeout = %v", cfg.Database.QueryTimeout)
	}
	if cfg.Auth.AccessTTL != 24*time.Hour || cfg.Auth.RefreshTTL != 168*time.Hour {
		t.Errorf("token lifetimes = %v / %v", cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "app.yaml")
	yaml := "http_addr: \":9000\"\nlogging:\n  level: debug\ndatabase:\n  query_timeout: 3s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("file value lost: addr = %q", cfg.HTTPAddr)
	}
	if cfg.Database.QueryTimeout != 3*time.Second {
		t.Errorf("query timeout = %v", cfg.Database.QueryTimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should win: level = %q", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"Unknown driver", map[string]string{"DB_DRIVER": "sqlite"}, "unknown DB_DRIVER"},
		{"Missing DSN", map[string]string{"DB_DRIVER": "pgx", "DSN": ""}, "DSN is required"},
		{"Missing secret", map[string]string{"ACCESS_TOKEN_SECRET": ""}, "ACCESS_TOKEN_SECRET"},
		{"Bad duration", map[string]string{"QUERY_TIMEOUT": "soon"}, "QUERY_TIMEOUT"},
		{"Missing explicit file", map[string]string{"CONFIG_PATH": "/does/not/exist.yaml"}, "read config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
