// Package config loads englevel settings from an optional YAML file, the
// environment (ENGLEVEL_ prefix) and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. ENGLEVEL_DATABASE_DSN.
const EnvPrefix = "ENGLEVEL"

// Config is the full application configuration.
type Config struct {
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Bank       BankConfig       `mapstructure:"bank"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	AMQP       AMQPConfig       `mapstructure:"amqp"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

type AssessmentConfig struct {
	MaxQuestions  int    `mapstructure:"max_questions"`
	Seed          uint64 `mapstructure:"seed"`
	MatchLevel    bool   `mapstructure:"match_level"`
	ExcludeRecent int    `mapstructure:"exclude_recent"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"` // empty uses store.DefaultDBPath for sqlite
}

// BankConfig selects the question source. With Path empty the database is
// used when it holds questions, otherwise the embedded seed bank.
type BankConfig struct {
	Path string `mapstructure:"path"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // memory, redis or sql
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AMQPConfig enables event publishing when URL is set.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type ServerConfig struct {
	Addr      string  `mapstructure:"addr"`
	Mode      string  `mapstructure:"mode"`       // gin mode: debug, release or test
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second per client, 0 disables
	RateBurst int     `mapstructure:"rate_burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty logs to stderr only
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQL    = "sql"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("assessment.max_questions", placement.DefaultMaxQuestions)
	v.SetDefault("assessment.seed", 0)
	v.SetDefault("assessment.match_level", false)
	v.SetDefault("assessment.exclude_recent", 60)

	v.SetDefault("database.driver", store.DriverSQLite)
	v.SetDefault("database.dsn", "")

	v.SetDefault("bank.path", "")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 2*time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "englevel.events")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load reads configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks for settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.Assessment.MaxQuestions <= 0 {
		errs = append(errs, fmt.Errorf("assessment.max_questions must be positive, got %d", c.Assessment.MaxQuestions))
	}
	switch c.Database.Driver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("ENGLEVEL_DATABASE_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver: %q", c.Database.Driver))
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheSQL:
	case CacheRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("ENGLEVEL_REDIS_ADDR is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend: %q", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown server mode: %q", c.Server.Mode))
	}
	return errors.Join(errs...)
}
