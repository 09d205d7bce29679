// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/todo"
)

// isolate runs the test in a fresh working directory with no user config.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, key := range []string{
		"TODO_FILE", "TODO_SCHEMA", "TODO_DUE_SOON_DAYS", "TODO_HOOK",
		"TODO_LOG_LEVEL", "TODO_LOG_FORMAT", "TODO_LOG_TIMESTAMPS", "TODO_LOG_CALLER",
	} {
		t.Setenv(key, "")
	}
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	return work
}

func testConfig(work string) *config.Config {
	return &config.Config{TaskFile: filepath.Join(work, "tasks.json"), WorkDir: work}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeTasks(t *testing.T, path string, tasks ...[2]string) {
	t.Helper()
	store := todo.NewStore(path, nil)
	for _, task := range tasks {
		if _, err := store.Add(task[0], task[1]); err != nil {
			t.Fatal(err)
		}
	}
}

// TestRun tests the main Run function.
func TestRun(t *testing.T) {
	isolate(t)

	t.Run("shows help with -help and -h", func(t *testing.T) {
		for _, arg := range []string{"--help", "-h", "help"} {
			out, _, err := runCLI(t, "", arg)
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", arg, err)
			}
			if !strings.Contains(out, "Usage:") || !strings.Contains(out, "-due-soon-days") {
				t.Errorf("%s: unexpected usage output:\n%s", arg, out)
			}
		}
	})

	t.Run("shows version", func(t *testing.T) {
		for _, arg := range []string{"--version", "-v", "version"} {
			out, _, err := runCLI(t, "", arg)
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", arg, err)
			}
			if out != "todo version "+Version+"\n" {
				t.Errorf("%s: got %q", arg, out)
			}
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		_, stderr, err := runCLI(t, "", "unknown-command")
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
		if !strings.Contains(stderr, "Unknown command: unknown-command") {
			t.Errorf("expected message on stderr, got %q", stderr)
		}
	})

	t.Run("invalid config value returns error", func(t *testing.T) {
		_, _, err := runCLI(t, "", "-log-level", "loud")
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})

	t.Run("config prints example", func(t *testing.T) {
		out, _, err := runCLI(t, "", "config")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "task_file") || !strings.Contains(out, "due_soon_days") {
			t.Errorf("unexpected example config:\n%s", out)
		}
	})
}

func TestMenuIsDefaultCommand(t *testing.T) {
	work := isolate(t)

	out, _, err := runCLI(t, "1\nWrite report\n2030-01-01\n6\n")
	if err != nil {
		t.Fatalf("menu failed: %v", err)
	}
	if !strings.Contains(out, "Task added successfully!") || !strings.Contains(out, "Exiting program.") {
		t.Errorf("unexpected menu output:\n%s", out)
	}

	tasks, err := todo.Load(filepath.Join(work, "tasks.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Description != "Write report" || tasks[0].DueLabel() != "2030-01-01" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestMenuUsesFileFlag(t *testing.T) {
	work := isolate(t)
	path := filepath.Join(work, "other.json")

	if _, _, err := runCLI(t, "1\nA\n\n6\n", "-file", "other.json", "menu"); err != nil {
		t.Fatal(err)
	}
	tasks, err := todo.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected task in %s, got %d", path, len(tasks))
	}
	if _, err := os.Stat(filepath.Join(work, "tasks.json")); !os.IsNotExist(err) {
		t.Errorf("default task file should not exist, stat err: %v", err)
	}
}

func TestMenuMalformedFileFails(t *testing.T) {
	work := isolate(t)
	if err := os.WriteFile(filepath.Join(work, "tasks.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, "6\n")
	if err == nil || !strings.Contains(err.Error(), "loading tasks") {
		t.Fatalf("expected load error, got %v", err)
	}
	if out != "" {
		t.Errorf("menu should not start, got %q", out)
	}
}

func TestMenuRunsHook(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook script is POSIX shell")
	}
	work := isolate(t)
	record := filepath.Join(work, "hook.log")
	script := filepath.Join(work, "hook.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$1 $3\" >> "+record+"\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, "1\nA\n\n3\n1\n1\n6\n", "-hook", script); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	if got := string(data); got != "add Pending\ncomplete Completed\n" {
		t.Errorf("hook log: got %q", got)
	}
}

func TestLsCommand(t *testing.T) {
	work := isolate(t)
	path := filepath.Join(work, "tasks.json")
	writeTasks(t, path, [2]string{"A", ""}, [2]string{"B", "2025-06-12"}, [2]string{"C", "2025-08-01"})
	store, err := todo.Open(path, todo.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.MarkComplete(1); err != nil {
		t.Fatal(err)
	}

	timeNow = func() time.Time { return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.Local) }
	t.Cleanup(func() { timeNow = time.Now })

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ls"}, "1. A | Due: No due date | Status: Completed\n2. B | Due: 2025-06-12 | Status: Pending\n3. C | Due: 2025-08-01 | Status: Pending\n"},
		{[]string{"ls", "completed"}, "1. A | Due: No due date | Status: Completed\n"},
		{[]string{"ls", "pending"}, "1. B | Due: 2025-06-12 | Status: Pending\n2. C | Due: 2025-08-01 | Status: Pending\n"},
		{[]string{"ls", "due-soon"}, "1. B | Due: 2025-06-12 | Status: Pending\n"},
		{[]string{"-due-soon-days", "1", "ls", "due_soon"}, "No tasks found.\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, _, err := runCLI(t, "", tt.args...)
			if err != nil {
				t.Fatalf("ls failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", out, tt.want)
			}
		})
	}

	t.Run("unknown filter", func(t *testing.T) {
		_, _, err := runCLI(t, "", "ls", "someday")
		if err == nil || !strings.Contains(err.Error(), "all|completed|pending|due-soon") {
			t.Errorf("expected filter error, got %v", err)
		}
	})
}

func TestLsFileFlag(t *testing.T) {
	work := isolate(t)
	writeTasks(t, filepath.Join(work, "work.json"), [2]string{"From work", ""})

	out, _, err := runCLI(t, "", "ls", "-file", "work.json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "1. From work") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTuiCommandRequiresTTY(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "", "tui")
	if err == nil || !strings.Contains(err.Error(), "TTY") {
		t.Errorf("expected TTY error, got %v", err)
	}
}

func TestDoctorCommand(t *testing.T) {
	t.Run("missing task file passes", func(t *testing.T) {
		isolate(t)
		out, _, err := runCLI(t, "", "doctor")
		if err != nil {
			t.Fatalf("expected doctor to pass, got %v\n%s", err, out)
		}
		for _, want := range []string{"(none, using defaults)", "due_soon_days:  3 (default)", "Not found", "All checks passed"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("valid file with sources", func(t *testing.T) {
		work := isolate(t)
		writeTasks(t, filepath.Join(work, "tasks.json"), [2]string{"A", ""}, [2]string{"B", "2025-01-02"})
		if err := os.WriteFile(filepath.Join(work, "todo.toml"), []byte("due_soon_days = 5\n"), 0644); err != nil {
			t.Fatal(err)
		}

		out, _, err := runCLI(t, "", "doctor", "-v")
		if err != nil {
			t.Fatalf("expected doctor to pass, got %v\n%s", err, out)
		}
		for _, want := range []string{"todo.toml", "due_soon_days:  5 (project file)", "Valid (2 tasks)", "2. B | Due: 2025-01-02"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("invalid file fails", func(t *testing.T) {
		work := isolate(t)
		bad := `[{"description": "A", "due_date": "soon", "status": "Done"}]`
		if err := os.WriteFile(filepath.Join(work, "tasks.json"), []byte(bad), 0644); err != nil {
			t.Fatal(err)
		}

		out, _, err := runCLI(t, "", "doctor")
		if err == nil {
			t.Fatal("expected doctor to fail")
		}
		if !strings.Contains(out, "Validation failed") || !strings.Contains(out, "[0].status") {
			t.Errorf("expected validation details:\n%s", out)
		}
	})

	t.Run("missing hook binary fails", func(t *testing.T) {
		isolate(t)
		out, _, err := runCLI(t, "", "-hook", "definitely-not-a-real-binary-xyz", "doctor")
		if err == nil {
			t.Fatal("expected doctor to fail")
		}
		if !strings.Contains(out, "Not found: definitely-not-a-real-binary-xyz") {
			t.Errorf("expected hook check:\n%s", out)
		}
	})
}

func TestTaskPathArg(t *testing.T) {
	work := isolate(t)
	cfg := testConfig(work)

	got, err := taskPathArg(cfg, nil)
	if err != nil || got != cfg.TaskFile {
		t.Errorf("no args: got %q, %v", got, err)
	}
	got, err = taskPathArg(cfg, []string{"sub/list.json"})
	if err != nil || got != filepath.Join(work, "sub", "list.json") {
		t.Errorf("relative: got %q, %v", got, err)
	}
	if _, err := taskPathArg(cfg, []string{"a", "b"}); err == nil {
		t.Error("expected error for extra arguments")
	}
}
