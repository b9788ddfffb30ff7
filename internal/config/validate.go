package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validator collects every problem so startup reports them together.
type Validator struct {
	errors []ValidationError
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Err returns nil or a single error listing every problem.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d error(s):", len(v.errors))
	for i, err := range v.errors {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return fmt.Errorf("%s", sb.String())
}

// ValidateAddr accepts "host:port" or ":port" with a port in 1..65535.
func (v *Validator) ValidateAddr(key, value string) {
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		v.AddError(key, "must be host:port or :port")
		return
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if n < 1 || n > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

func (v *Validator) ValidatePositive(key string, value int) {
	if value <= 0 {
		v.AddError(key, fmt.Sprintf("must be a positive integer (got %d)", value))
	}
}

func (v *Validator) ValidateNonNegative(key string, value int) {
	if value < 0 {
		v.AddError(key, fmt.Sprintf("must not be negative (got %d)", value))
	}
}

func (v *Validator) ValidateEnum(key, value string, allowed []string) {
	for _, opt := range allowed {
		if value == opt {
			return
		}
	}
	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

// Validate checks every field of c.
func (c Config) Validate() error {
	var v Validator

	v.ValidateAddr("UPLOAD_ADDR", c.Addr)
	v.ValidatePositive("MAX_MB", c.MaxMB)
	v.ValidateNonNegative("UPLOAD_RATE_LIMIT", c.RateLimit)

	if strings.TrimSpace(c.StorageDir) == "" {
		v.AddError("UPLOAD_STORAGE_DIR", "must not be empty")
	}

	if c.DatabaseURL != "" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		v.AddError("UPLOAD_DATABASE_URL", "must be a valid PostgreSQL connection string")
	}

	v.ValidateEnum("UPLOAD_LOG_LEVEL", c.LogLevel, []string{"debug", "info", "warn", "error"})
	v.ValidateEnum("UPLOAD_LOG_FORMAT", c.LogFormat, []string{"text", "json", "logfmt"})

	if len(c.AllowedOrigins()) == 0 {
		v.AddError("UPLOAD_CORS_ORIGINS", "must list at least one origin or *")
	}

	return v.Err()
}
