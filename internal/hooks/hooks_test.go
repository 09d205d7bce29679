// Package hooks provides tests for external post-change hook invocation.
package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/todo"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hook scripts are POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "hook.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func sampleTask() todo.Task {
	return todo.Task{ID: "abc-123", Description: "Write tests", Status: todo.StatusCompleted}
}

// TestInvoke tests the Invoke function with various scenarios.
func TestInvoke(t *testing.T) {
	t.Run("empty command returns success without running", func(t *testing.T) {
		result, err := Invoke(context.Background(), Options{Action: ActionAdd})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Ran {
			t.Error("expected Ran to be false")
		}
	})

	t.Run("whitespace command returns success without running", func(t *testing.T) {
		result, err := Invoke(context.Background(), Options{Command: "   ", Action: ActionAdd})
		if err != nil || result.Ran {
			t.Errorf("expected no-op, got %+v, %v", result, err)
		}
	})

	t.Run("missing action returns error", func(t *testing.T) {
		_, err := Invoke(context.Background(), Options{Command: "echo"})
		if err == nil || !strings.Contains(err.Error(), "action") {
			t.Errorf("expected action error, got %v", err)
		}
	})

	t.Run("nonexistent command returns error", func(t *testing.T) {
		result, err := Invoke(context.Background(), Options{
			Command: filepath.Join(t.TempDir(), "no-such-hook"),
			Action:  ActionAdd,
		})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if result.ExitCode != -1 {
			t.Errorf("expected ExitCode -1, got %d", result.ExitCode)
		}
	})
}

// TestInvokeSuccessfulHook tests that the hook receives its arguments.
func TestInvokeSuccessfulHook(t *testing.T) {
	script := writeScript(t, `echo "$@"`)
	var stdout bytes.Buffer

	result, err := Invoke(context.Background(), Options{
		Command:  script + " --quiet",
		Action:   ActionComplete,
		Task:     sampleTask(),
		TaskFile: "/tmp/tasks.json",
		Stdout:   &stdout,
		Stderr:   &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Ran {
		t.Error("expected Ran to be true")
	}
	if result.ExitCode != 0 {
		t.Errorf("expected ExitCode 0, got %d", result.ExitCode)
	}
	want := "--quiet complete abc-123 Completed /tmp/tasks.json"
	if got := strings.TrimSpace(stdout.String()); got != want {
		t.Errorf("hook args: got %q, want %q", got, want)
	}
	if len(result.Command) != 6 {
		t.Errorf("expected 6 command parts, got %v", result.Command)
	}
}

// TestInvokeHookFailure tests a hook that returns non-zero exit code.
func TestInvokeHookFailure(t *testing.T) {
	script := writeScript(t, "echo boom >&2\nexit 3")
	var stderr bytes.Buffer

	result, err := Invoke(context.Background(), Options{
		Command: script,
		Action:  ActionDelete,
		Task:    sampleTask(),
		Stdout:  &bytes.Buffer{},
		Stderr:  &stderr,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !result.Ran {
		t.Error("expected Ran to be true")
	}
	if result.ExitCode != 3 {
		t.Errorf("expected ExitCode 3, got %d", result.ExitCode)
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("expected stderr passthrough, got %q", stderr.String())
	}
}

// TestInvokeWorkDir tests that the hook runs in the configured directory.
func TestInvokeWorkDir(t *testing.T) {
	script := writeScript(t, "pwd")
	workDir := t.TempDir()
	var stdout bytes.Buffer

	if _, err := Invoke(context.Background(), Options{
		Command: script,
		Action:  ActionEdit,
		Task:    sampleTask(),
		WorkDir: workDir,
		Stdout:  &stdout,
	}); err != nil {
		t.Fatal(err)
	}

	got, _ := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	want, _ := filepath.EvalSymlinks(workDir)
	if got != want {
		t.Errorf("pwd: got %q, want %q", got, want)
	}
}

// TestInvokeCancelledContext tests that a cancelled context stops the hook.
func TestInvokeCancelledContext(t *testing.T) {
	script := writeScript(t, "sleep 5")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Invoke(ctx, Options{Command: script, Action: ActionAdd, Task: sampleTask()})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if result.ExitCode == 0 {
		t.Errorf("expected non-zero exit code, got %d", result.ExitCode)
	}
}

func TestRunnerEmptyCommand(t *testing.T) {
	if Runner(Options{Command: "   "}, nil) != nil {
		t.Error("expected nil Func for empty command")
	}
}

func TestRunnerFillsActionAndTask(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "args.txt")
	script := writeScript(t, `echo "$@" > "`+outFile+`"`)

	fn := Runner(Options{Command: script, TaskFile: "tasks.json"}, nil)
	if fn == nil {
		t.Fatal("expected non-nil Func")
	}
	fn(context.Background(), ActionDelete, sampleTask())

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	want := "delete abc-123 Completed tasks.json"
	if got := strings.TrimSpace(string(data)); got != want {
		t.Errorf("args: got %q, want %q", got, want)
	}
}

func TestRunnerLogsFailure(t *testing.T) {
	script := writeScript(t, "exit 2")
	var logs bytes.Buffer
	logger := logging.New(&logs, logging.DefaultOptions())

	Runner(Options{Command: script, Stderr: &bytes.Buffer{}}, logger)(context.Background(), ActionAdd, sampleTask())

	if !strings.Contains(logs.String(), "hook failed") {
		t.Errorf("expected warning in logs, got %q", logs.String())
	}
}

func TestInvokeQuotedArguments(t *testing.T) {
	script := writeScript(t, `printf '%s|' "$@"`)
	var stdout bytes.Buffer

	_, err := Invoke(context.Background(), Options{
		Command:  script + ` "two words" 'x'`,
		Action:   ActionEdit,
		Task:     sampleTask(),
		TaskFile: "tasks.json",
		Stdout:   &stdout,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "two words|x|edit|abc-123|Completed|tasks.json|"
	if stdout.String() != want {
		t.Errorf("args: got %q, want %q", stdout.String(), want)
	}
}

func TestParseCommand(t *testing.T) {
	words, err := ParseCommand(`notify-send "task changed"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 || words[1] != "task changed" {
		t.Errorf("unexpected words: %q", words)
	}

	if _, err := ParseCommand(`hook "unterminated`); err == nil {
		t.Error("expected error for unterminated quote")
	}
	if _, err := Invoke(context.Background(), Options{Command: `hook "unterminated`, Action: ActionAdd}); err == nil {
		t.Error("Invoke should reject an unparsable command")
	}
}
