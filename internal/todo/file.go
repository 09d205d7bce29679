package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// LoadOptions controls how a task file is read.
type LoadOptions struct {
	Validation ValidationOptions
}

// Load reads and parses a task file from path.
// A missing file is not an error: it yields an empty list.
func Load(path string) ([]Task, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions is Load with an explicit validation configuration.
func LoadWithOptions(path string, opts LoadOptions) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Task{}, nil
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("parse task file: %s is empty", path)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if result := Validate(doc, opts.Validation); !result.Valid {
		return nil, &FileError{Path: path, Errors: result.Errors}
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.NewString()
		}
		if due := tasks[i].DueDate; due != nil {
			normalized, err := NormalizeStoredDate(*due)
			if err != nil {
				return nil, &FileError{Path: path, Errors: []error{
					&ValidationError{Path: fmt.Sprintf("[%d].due_date", i), Err: err},
				}}
			}
			tasks[i].DueDate = &normalized
		}
	}
	return tasks, nil
}

// LockPath returns the sidecar file Save locks while writing path. It is
// left in place after the write so every writer locks the same inode.
func LockPath(path string) string {
	return path + ".lock"
}

// Save writes tasks to path with 4-space indentation, replacing the file.
// The write happens while holding an advisory lock on LockPath(path).
func Save(path string, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal task file: %w", err)
	}

	// Add trailing newline
	data = append(data, '\n')

	lock := flock.New(LockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock task file: %w", err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}

	return nil
}

// FileError reports a task file that parsed as JSON but failed validation.
type FileError struct {
	Path   string
	Errors []error
}

func (e *FileError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("invalid task file %s", e.Path)
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid task file %s: %v", e.Path, e.Errors[0])
	}
	return fmt.Sprintf("invalid task file %s: %v (and %d more)", e.Path, e.Errors[0], len(e.Errors)-1)
}

// Unwrap returns the individual validation errors.
func (e *FileError) Unwrap() []error {
	return e.Errors
}
