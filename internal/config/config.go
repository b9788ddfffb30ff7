// Package config loads the upload service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds every setting of the upload service.
type Config struct {
	Addr        string `env:"UPLOAD_ADDR,default=:8000"`
	StorageDir  string `env:"UPLOAD_STORAGE_DIR,default=storage"`
	MaxMB       int    `env:"MAX_MB,default=20"`
	DatabaseURL string `env:"UPLOAD_DATABASE_URL"`
	LogLevel    string `env:"UPLOAD_LOG_LEVEL,default=info"`
	LogFormat   string `env:"UPLOAD_LOG_FORMAT,default=text"`
	CORSOrigins string `env:"UPLOAD_CORS_ORIGINS,default=*"`
	RateLimit   int    `env:"UPLOAD_RATE_LIMIT,default=0"`
	Version     string `env:"UPLOAD_VERSION,default=dev"`
	Commit      string `env:"UPLOAD_COMMIT,default=unknown"`
}

// Load reads an optional dotenv file, then the process environment.
// Variables already set in the environment win over the file.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return FromEnvSet(es)
}

// FromEnvSet decodes and validates cfg from an explicit variable set.
func FromEnvSet(es env.EnvSet) (Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MaxBytes is MaxMB expressed in bytes.
func (c Config) MaxBytes() int64 {
	return int64(c.MaxMB) * 1024 * 1024
}

// CatalogEnabled reports whether uploads are indexed in Postgres.
func (c Config) CatalogEnabled() bool {
	return c.DatabaseURL != ""
}

// AllowedOrigins splits UPLOAD_CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
