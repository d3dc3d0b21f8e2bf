package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Assessment.MaxQuestions)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "englevel.yaml")
	err := os.WriteFile(path, []byte(`
assessment:
  max_questions: 10
  seed: 7
  match_level: true
cache:
  backend: redis
  ttl: 30m
redis:
  addr: redis:6379
server:
  rate_limit: 2.5
`), 0o644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Assessment.MaxQuestions)
	assert.Equal(t, uint64(7), cfg.Assessment.Seed)
	assert.True(t, cfg.Assessment.MatchLevel)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, "sqlite", cfg.Database.Driver, "unset keys keep defaults")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ENGLEVEL_DATABASE_DRIVER", "postgres")
	t.Setenv("ENGLEVEL_DATABASE_DSN", "postgres://u:p@localhost/englevel")
	t.Setenv("ENGLEVEL_ASSESSMENT_MAX_QUESTIONS", "12")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost/englevel", cfg.Database.DSN)
	assert.Equal(t, 12, cfg.Assessment.MaxQuestions)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero questions", func(c *Config) { c.Assessment.MaxQuestions = 0 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"postgres with dsn", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "postgres://localhost/x"
		}, false},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"redis without addr", func(c *Config) {
			c.Cache.Backend = CacheRedis
			c.Redis.Addr = ""
		}, true},
		{"sql cache", func(c *Config) { c.Cache.Backend = CacheSQL }, false},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, true},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
