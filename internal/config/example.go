package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todo configuration file
# Values can be overridden by TODO_* environment variables or CLI flags

# Task file (relative to the working directory, supports ~ expansion)
task_file = "tasks.json"

# JSON Schema used to validate the task file (empty uses the built-in schema)
# schema_file = "tasks.schema.json"

# Days ahead (including today) that count as "due soon"
due_soon_days = 3

# Command run after every change: <action> <task-id> <status> <task-file>
# hook_command = "/path/to/hook.sh"

# Logging (written to stderr)
log_level = "warn"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
