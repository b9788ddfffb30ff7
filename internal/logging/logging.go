// Package logging builds the levelled logger shared by both binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Options selects level, output format, and destination.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json, logfmt
	Prefix string
	Output io.Writer
}

// New returns a logger configured from opts. Empty fields fall back to
// info level, text format, stderr.
func New(opts Options) (*log.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := log.InfoLevel
	if opts.Level != "" {
		l, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	var formatter log.Formatter
	switch opts.Format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	return log.NewWithOptions(out, log.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		ReportCaller:    level == log.DebugLevel,
	}), nil
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
