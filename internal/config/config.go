package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	buckets "reporting-store/internal/buckets/core/domain"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	BackendPostgres = "postgres"
	BackendMongoDB  = "mongodb"
	BackendSQLite   = "sqlite"
)

type Config struct {
	HTTPAddr    string         `yaml:"http_addr"`
	LogLevel    string         `yaml:"log_level"`
	Development bool           `yaml:"development"`
	Store       StoreConfig    `yaml:"store"`
	Buckets     []BucketConfig `yaml:"buckets"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// BucketConfig seeds the bucket registry at startup.
type BucketConfig struct {
	Name              string   `yaml:"name"`
	RawQueriesAllowed bool     `yaml:"raw_queries_allowed"`
	BearerToken       string   `yaml:"bearer_token"`
	AutoIDKeys        []string `yaml:"auto_id_keys,omitempty"`
}

func (b BucketConfig) Bucket() buckets.Bucket {
	return buckets.Bucket{
		Name:              b.Name,
		RawQueriesAllowed: b.RawQueriesAllowed,
		BearerToken:       b.BearerToken,
		AutoIDKeys:        b.AutoIDKeys,
	}
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Store: StoreConfig{
			Backend: BackendSQLite,
			Postgres: PostgresConfig{
				MaxOpenConns:    20,
				MaxIdleConns:    10,
				ConnMaxLifetime: 30 * time.Minute,
			},
			Mongo:  MongoConfig{Database: "reporting"},
			SQLite: SQLiteConfig{Path: "reporting-store.db"},
		},
	}
}

// Load reads the YAML file at path, when given, on top of the defaults and
// then applies environment overrides.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "reading config file '%s'", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parsing config file '%s'", path)
		}
	}

	applyEnv(&cfg, getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&cfg.HTTPAddr, "HTTP_ADDR")
	set(&cfg.LogLevel, "LOG_LEVEL")
	set(&cfg.Store.Backend, "STORE_BACKEND")
	set(&cfg.Store.Postgres.DSN, "POSTGRES_DSN")
	set(&cfg.Store.Mongo.URI, "MONGO_URI")
	set(&cfg.Store.Mongo.Database, "MONGO_DATABASE")
	set(&cfg.Store.SQLite.Path, "SQLITE_PATH")
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is not set")
		}
	case BackendMongoDB:
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is not set")
		}
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is not set")
		}
	default:
		return fmt.Errorf("unknown store backend '%s'", c.Store.Backend)
	}

	for _, b := range c.Buckets {
		if err := b.Bucket().Validate(); err != nil {
			return errors.Wrapf(err, "bucket '%s'", b.Name)
		}
	}
	return nil
}
