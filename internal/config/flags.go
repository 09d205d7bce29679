package config

import (
	"flag"
)

// parseFlags defines the global flags on fs, parses args, and applies every
// flag that was explicitly set.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todo", flag.ContinueOnError)
	}

	taskFile := fs.String("file", cfg.TaskFile, "Path to task file")
	schemaFile := fs.String("schema", cfg.SchemaFile, "Path to a JSON Schema overriding the built-in one")
	dueSoonDays := fs.Int("due-soon-days", cfg.DueSoonDays, "Days ahead counted as due soon")
	hook := fs.String("hook", cfg.HookCommand, "Hook command to run after each change")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	logTimestamps := fs.Bool("log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	logCaller := fs.Bool("log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Map flag names to source field names
	flagToSource := map[string]string{
		"file":           "task_file",
		"schema":         "schema_file",
		"due-soon-days":  "due_soon_days",
		"hook":           "hook_command",
		"log-level":      "log_level",
		"log-format":     "log_format",
		"log-timestamps": "log_timestamps",
		"log-caller":     "log_caller",
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cfg.TaskFile = *taskFile
		case "schema":
			cfg.SchemaFile = *schemaFile
		case "due-soon-days":
			cfg.DueSoonDays = *dueSoonDays
		case "hook":
			cfg.HookCommand = *hook
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "log-timestamps":
			cfg.LogTimestamps = *logTimestamps
		case "log-caller":
			cfg.LogCaller = *logCaller
		}
		if field, ok := flagToSource[f.Name]; ok && sources != nil {
			sources[field] = SourceFlag
		}
	})

	return nil
}
