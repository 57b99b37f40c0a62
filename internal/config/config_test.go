package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	buckets "reporting-store/internal/buckets/core/domain"

	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("", env(nil))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, BackendSQLite, cfg.Store.Backend)
	require.Equal(t, 20, cfg.Store.Postgres.MaxOpenConns)
	require.Equal(t, 10, cfg.Store.Postgres.MaxIdleConns)
	require.Equal(t, 30*time.Minute, cfg.Store.Postgres.ConnMaxLifetime)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
http_addr: ":9000"
log_level: debug
store:
  backend: postgres
  postgres:
    dsn: postgres://file
    conn_max_lifetime: 5m
buckets:
  - name: licensing
    raw_queries_allowed: true
    bearer_token: secret
    auto_id_keys: [authority, licence]
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path, env(map[string]string{
		"POSTGRES_DSN": "postgres://env",
		"LOG_LEVEL":    " ",
	}))
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "postgres://env", cfg.Store.Postgres.DSN)
	require.Equal(t, 5*time.Minute, cfg.Store.Postgres.ConnMaxLifetime)
	require.Equal(t, 20, cfg.Store.Postgres.MaxOpenConns)

	require.Len(t, cfg.Buckets, 1)
	require.Equal(t, buckets.Bucket{
		Name:              "licensing",
		RawQueriesAllowed: true,
		BearerToken:       "secret",
		AutoIDKeys:        []string{"authority", "licence"},
	}, cfg.Buckets[0].Bucket())
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		vars map[string]string
	}{
		{name: "unknown backend", vars: map[string]string{"STORE_BACKEND": "redis"}},
		{name: "postgres without dsn", vars: map[string]string{"STORE_BACKEND": "postgres"}},
		{name: "mongo without uri", vars: map[string]string{"STORE_BACKEND": "mongodb"}},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load("", env(tc.vars))
			require.Error(t, err)
		})
	}
}

func TestLoad_InvalidBucketName(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buckets:\n  - name: Not-Valid\n"), 0o600))

	_, err := Load(path, env(nil))
	require.Error(t, err)
	require.True(t, errors.Is(err, buckets.ErrInvalidBucketName))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	require.Error(t, err)
}
