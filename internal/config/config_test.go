package config

import (
	"os"
	"path/filepath"
	"testing"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvSet_Defaults(t *testing.T) {
	cfg, err := FromEnvSet(env.EnvSet{})
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "storage", cfg.StorageDir)
	assert.Equal(t, 20, cfg.MaxMB)
	assert.EqualValues(t, 20*1024*1024, cfg.MaxBytes())
	assert.False(t, cfg.CatalogEnabled())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Zero(t, cfg.RateLimit)
}

func TestFromEnvSet_Overrides(t *testing.T) {
	cfg, err := FromEnvSet(env.EnvSet{
		"MAX_MB":              "50",
		"UPLOAD_ADDR":         "127.0.0.1:9000",
		"UPLOAD_DATABASE_URL": "postgres://u:p@localhost:5432/uploads?sslmode=disable",
		"UPLOAD_CORS_ORIGINS": "http://a.test, http://b.test",
		"UPLOAD_LOG_FORMAT":   "json",
	})
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaxMB)
	assert.EqualValues(t, 50*1024*1024, cfg.MaxBytes())
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.True(t, cfg.CatalogEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestFromEnvSet_Invalid(t *testing.T) {
	tests := []struct {
		name string
		es   env.EnvSet
		want string
	}{
		{"zero max", env.EnvSet{"MAX_MB": "0"}, "MAX_MB"},
		{"negative max", env.EnvSet{"MAX_MB": "-5"}, "MAX_MB"},
		{"non numeric max", env.EnvSet{"MAX_MB": "twenty"}, "decode environment"},
		{"bad addr", env.EnvSet{"UPLOAD_ADDR": "8000"}, "UPLOAD_ADDR"},
		{"port out of range", env.EnvSet{"UPLOAD_ADDR": ":70000"}, "UPLOAD_ADDR"},
		{"bad db url", env.EnvSet{"UPLOAD_DATABASE_URL": "mysql://x"}, "UPLOAD_DATABASE_URL"},
		{"bad log level", env.EnvSet{"UPLOAD_LOG_LEVEL": "verbose"}, "UPLOAD_LOG_LEVEL"},
		{"bad log format", env.EnvSet{"UPLOAD_LOG_FORMAT": "xml"}, "UPLOAD_LOG_FORMAT"},
		{"negative rate", env.EnvSet{"UPLOAD_RATE_LIMIT": "-1"}, "UPLOAD_RATE_LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnvSet(tt.es)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Config{
		Addr:        "nope",
		StorageDir:  "storage",
		MaxMB:       0,
		LogLevel:    "info",
		LogFormat:   "text",
		CORSOrigins: "*",
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")
}

func TestLoad_DotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAX_MB=7\n"), 0o600))

	// godotenv.Load sets the variable for the process; restore it afterwards.
	t.Setenv("MAX_MB", "")
	require.NoError(t, os.Unsetenv("MAX_MB"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxMB)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	t.Setenv("MAX_MB", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxMB)
}
