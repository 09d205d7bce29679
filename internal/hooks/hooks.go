// Package hooks invokes an external command after each task change.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-shellwords"

	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/todo"
)

// Action names passed as the first hook argument.
const (
	ActionAdd      = "add"
	ActionComplete = "complete"
	ActionEdit     = "edit"
	ActionDelete   = "delete"
)

// Options configures a hook invocation.
type Options struct {
	// Command is split with shell quoting rules; the first word is the
	// executable.
	Command  string
	Action   string
	Task     todo.Task
	TaskFile string
	WorkDir  string
	Stdout   io.Writer
	Stderr   io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
}

// Func is called after every successful change.
type Func func(ctx context.Context, action string, task todo.Task)

// Runner returns a Func that invokes base.Command for each change, filling in
// the action and task. Failures are logged. It returns nil when the command
// is empty.
func Runner(base Options, logger *log.Logger) Func {
	if strings.TrimSpace(base.Command) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return func(ctx context.Context, action string, task todo.Task) {
		opts := base
		opts.Action = action
		opts.Task = task
		result, err := Invoke(ctx, opts)
		if result.Ran {
			logger.Debug("hook ran", "command", result.Command, "exit_code", result.ExitCode)
		}
		if err != nil {
			logger.Warn("hook failed", "action", action, "task_id", task.ID, "err", err)
		}
	}
}

// ParseCommand splits a hook command line into words.
func ParseCommand(command string) ([]string, error) {
	words, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse hook command %q: %w", command, err)
	}
	return words, nil
}

// Invoke runs the hook as: <command> <action> <task-id> <status> <task-file>.
// An empty command is a no-op.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	fields, err := ParseCommand(opts.Command)
	if err != nil {
		return Result{}, err
	}
	if len(fields) == 0 {
		return Result{}, nil
	}
	if opts.Action == "" {
		return Result{}, fmt.Errorf("hook action is empty")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	args := append(fields[1:], opts.Action, opts.Task.ID, string(opts.Task.Status), opts.TaskFile)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Stdout = writerOr(opts.Stdout, os.Stdout)
	cmd.Stderr = writerOr(opts.Stderr, os.Stderr)

	err = cmd.Run()
	exitCode := exitCodeFromError(err)
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCode,
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
