package config

import (
	"fmt"
	"strings"
)

// ParseLogLevel normalizes a log level name.
func ParseLogLevel(s string) (string, error) {
	level := strings.ToLower(strings.TrimSpace(s))
	switch level {
	case "debug", "info", "warn", "error":
		return level, nil
	case "warning":
		return "warn", nil
	case "":
		return DefaultLogLevel, nil
	}
	return "", fmt.Errorf("invalid log level %q (debug, info, warn, error)", s)
}

// ParseLogFormat normalizes a log format name.
func ParseLogFormat(s string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(s))
	switch format {
	case "text", "json", "logfmt":
		return format, nil
	case "":
		return DefaultLogFormat, nil
	}
	return "", fmt.Errorf("invalid log format %q (text, json, logfmt)", s)
}

// SchemaPath returns the schema override, or "" for the embedded schema.
func (c *Config) SchemaPath() string {
	if c == nil {
		return ""
	}
	return c.SchemaFile
}

// DueSoonWindow returns the due-soon look-ahead in days.
func (c *Config) DueSoonWindow() int {
	if c == nil {
		return DefaultDueSoonDays
	}
	return c.DueSoonDays
}
