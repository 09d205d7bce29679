// Package logging builds the leveled console logger used across todo.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/config"
)

// Options holds configuration for console logging.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultOptions returns default options for console logging.
func DefaultOptions() Options {
	return Options{
		Level:           log.WarnLevel,
		Formatter:       log.TextFormatter,
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "todo",
	}
}

// OptionsFromConfig maps the logging section of cfg onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	if cfg == nil {
		return opts, nil
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return opts, err
	}
	formatter, err := ParseFormatter(cfg.LogFormat)
	if err != nil {
		return opts, err
	}
	opts.Level = level
	opts.Formatter = formatter
	opts.ReportTimestamp = cfg.LogTimestamps
	opts.ReportCaller = cfg.LogCaller
	return opts, nil
}

// New creates a logger writing to w. A nil w writes to stderr.
func New(w io.Writer, opts Options) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
}

// FromConfig creates a logger for cfg writing to w.
func FromConfig(w io.Writer, cfg *config.Config) (*log.Logger, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(w, opts), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel converts a level name into a log.Level.
func ParseLevel(s string) (log.Level, error) {
	name, err := config.ParseLogLevel(s)
	if err != nil {
		return log.InfoLevel, err
	}
	return log.ParseLevel(name)
}

// ParseFormatter converts a format name into a log.Formatter.
func ParseFormatter(s string) (log.Formatter, error) {
	name, err := config.ParseLogFormat(s)
	if err != nil {
		return log.TextFormatter, err
	}
	switch strings.ToLower(name) {
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	case "text":
		return log.TextFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("unsupported log format %q", s)
}
