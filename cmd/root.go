// Package cmd implements the CLI command structure for todo.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/hooks"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/menu"
	"github.com/nibzard/todo-go/internal/todo"
	"github.com/nibzard/todo-go/internal/ui"
	"github.com/nibzard/todo-go/internal/utils"
)

// Version is set via ldflags at build time.
var Version = "dev"

var timeNow = time.Now

// env carries the resolved configuration and I/O streams of one invocation.
type env struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	logger  *log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// Run executes the todo CLI on the process streams.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(stdout)
	}

	logger, err := logging.FromConfig(stderr, cws.Config)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	e := &env{
		cfg:     cws.Config,
		sources: cws,
		logger:  logger,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}

	// No subcommand runs the interactive menu
	subcommand := "menu"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}
	logger.Debug("starting", "command", subcommand, "task_file", e.cfg.TaskFile)

	switch subcommand {
	case "menu":
		return menuCommand(ctx, e, remainingArgs)
	case "ls", "list":
		return lsCommand(e, remainingArgs)
	case "tui":
		return tuiCommand(ctx, e, remainingArgs)
	case "doctor":
		return doctorCommand(e, remainingArgs)
	case "config":
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	case "version":
		return versionCommand(stdout)
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// menuCommand runs the interactive numbered menu.
func menuCommand(ctx context.Context, e *env, args []string) error {
	path, err := taskPathArg(e.cfg, args)
	if err != nil {
		return err
	}
	store, err := openStore(e, path)
	if err != nil {
		return err
	}

	m := menu.New(store, e.stdin, e.stdout,
		menu.WithLogger(e.logger),
		menu.WithDueSoonDays(e.cfg.DueSoonWindow()),
		menu.WithHook(newHook(e, path)),
	)
	return m.Run(ctx)
}

// lsCommand prints the tasks matching a filter, numbered like the menu view.
func lsCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("todo ls", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	file := fs.String("file", "", "Task file (overrides the global setting)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	modeArg := ""
	if len(remaining) == 1 {
		modeArg = remaining[0]
	}
	mode, err := todo.ParseFilterMode(modeArg)
	if err != nil {
		modes := make([]string, 0, len(todo.FilterModes()))
		for _, m := range todo.FilterModes() {
			modes = append(modes, string(m))
		}
		return fmt.Errorf("%w (expected %s)", err, strings.Join(modes, "|"))
	}

	path := e.cfg.TaskFile
	if *file != "" {
		path = resolvePath(e.cfg, *file)
	}
	store, err := openStore(e, path)
	if err != nil {
		return err
	}

	tasks, err := store.Filter(mode, timeNow(), e.cfg.DueSoonWindow())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(e.stdout, "No tasks found.")
		return nil
	}
	menu.WriteTasks(e.stdout, tasks)
	return nil
}

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, e *env, args []string) error {
	path, err := taskPathArg(e.cfg, args)
	if err != nil {
		return err
	}
	store, err := openStore(e, path)
	if err != nil {
		return err
	}

	hookOpts := hookOptions(e, path)
	// Hook output would corrupt the alternate screen.
	hookOpts.Stdout = io.Discard
	hookOpts.Stderr = io.Discard

	return ui.RunTUI(ctx, ui.Options{
		Store:       store,
		LoadOptions: loadOptions(e.cfg),
		DueSoonDays: e.cfg.DueSoonWindow(),
		Hook:        hooks.Runner(hookOpts, e.logger),
		Logger:      e.logger,
	})
}

// doctorCommand reports the effective configuration and checks the task file.
func doctorCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("todo doctor", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := taskPathArg(e.cfg, fs.Args())
	if err != nil {
		return err
	}

	w := e.stdout
	fmt.Fprintln(w, "Todo Doctor")
	fmt.Fprintln(w, "===========")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config files:")
	if len(e.sources.Files) == 0 {
		fmt.Fprintln(w, "  (none, using defaults)")
	}
	for _, f := range e.sources.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Settings:")
	for _, s := range settings(e.cfg) {
		fmt.Fprintf(w, "  %-15s %s (%s)\n", s.key+":", s.value, e.sources.Sources[s.key])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Task file: %s\n", path)
	if !checkTaskFile(w, path, e.cfg.SchemaPath(), *verbose) {
		allOK = false
	}
	fmt.Fprintln(w)

	if schemaPath := e.cfg.SchemaPath(); schemaPath != "" {
		fmt.Fprintf(w, "Schema file: %s\n", schemaPath)
		if info, err := os.Stat(schemaPath); err != nil {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		} else if info.IsDir() {
			fmt.Fprintln(w, "  ❌ Error: path is a directory")
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
		fmt.Fprintln(w)
	}

	if e.cfg.HookCommand != "" {
		fmt.Fprintf(w, "Hook: %s\n", e.cfg.HookCommand)
		words, err := hooks.ParseCommand(e.cfg.HookCommand)
		switch {
		case err != nil:
			fmt.Fprintf(w, "  ❌ %v\n", err)
			allOK = false
		case len(words) > 0 && !checkBinary(w, words[0]):
			allOK = false
		}
		fmt.Fprintln(w)
	}

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

func checkTaskFile(w io.Writer, path, schemaPath string, verbose bool) bool {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(w, "  ⚠️  Not found (created on the first change)")
		return true
	case err != nil:
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return false
	case info.IsDir():
		fmt.Fprintln(w, "  ❌ Error: path is a directory")
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return false
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(w, "  ❌ Invalid JSON: %v\n", err)
		return false
	}

	result := todo.Validate(doc, todo.ValidationOptions{SchemaPath: schemaPath})
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	if !result.Valid {
		fmt.Fprintln(w, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", e)
		}
		return false
	}

	tasks, err := todo.LoadWithOptions(path, todo.LoadOptions{Validation: todo.ValidationOptions{SchemaPath: schemaPath}})
	if err != nil {
		fmt.Fprintf(w, "  ❌ Load error: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "  ✅ Valid (%d tasks)\n", len(tasks))
	if verbose {
		menu.WriteTasks(w, tasks)
	}
	return true
}

func checkBinary(w io.Writer, binary string) bool {
	path, err := exec.LookPath(binary)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Not found: %s\n", binary)
		return false
	}
	fmt.Fprintf(w, "  ✅ %s\n", path)
	return true
}

type setting struct {
	key   string
	value string
}

func settings(cfg *config.Config) []setting {
	orNone := func(s, none string) string {
		if s == "" {
			return none
		}
		return s
	}
	return []setting{
		{"task_file", cfg.TaskFile},
		{"schema_file", orNone(cfg.SchemaFile, "(built-in)")},
		{"due_soon_days", fmt.Sprint(cfg.DueSoonDays)},
		{"hook_command", orNone(cfg.HookCommand, "(none)")},
		{"log_level", cfg.LogLevel},
		{"log_format", cfg.LogFormat},
		{"log_timestamps", fmt.Sprint(cfg.LogTimestamps)},
		{"log_caller", fmt.Sprint(cfg.LogCaller)},
	}
}

func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "todo version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "todo - a command-line task tracker")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todo [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  menu [file]          Interactive menu (default command)")
	fmt.Fprintln(w, "  ls [filter]          List tasks (all|completed|pending|due-soon)")
	fmt.Fprintln(w, "  tui [file]           Launch terminal UI")
	fmt.Fprintln(w, "  doctor [-v] [file]   Show config sources and check the task file")
	fmt.Fprintln(w, "  config               Print an example todo.toml")
	fmt.Fprintln(w, "  version              Show version information")
	fmt.Fprintln(w, "  help                 Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -file string")
	fmt.Fprintln(w, "        Task file (overrides the global setting)")
}

func openStore(e *env, path string) (*todo.Store, error) {
	store, err := todo.Open(path, loadOptions(e.cfg))
	if err != nil {
		var fileErr *todo.FileError
		if errors.As(err, &fileErr) {
			for _, verr := range fileErr.Errors {
				e.logger.Debug("validation error", "path", path, "err", verr)
			}
		}
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	e.logger.Debug("tasks loaded", "path", path, "count", store.Len())
	return store, nil
}

func loadOptions(cfg *config.Config) todo.LoadOptions {
	return todo.LoadOptions{Validation: todo.ValidationOptions{SchemaPath: cfg.SchemaPath()}}
}

func hookOptions(e *env, path string) hooks.Options {
	return hooks.Options{
		Command:  e.cfg.HookCommand,
		TaskFile: path,
		WorkDir:  e.cfg.WorkDir,
		Stdout:   e.stdout,
		Stderr:   e.stderr,
	}
}

func newHook(e *env, path string) hooks.Func {
	return hooks.Runner(hookOptions(e, path), e.logger)
}

// taskPathArg returns the optional positional task file, or the configured one.
func taskPathArg(cfg *config.Config, args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	if len(args) == 1 {
		return resolvePath(cfg, args[0]), nil
	}
	return cfg.TaskFile, nil
}

func resolvePath(cfg *config.Config, p string) string {
	p = utils.ExpandPath(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.WorkDir, p)
}
