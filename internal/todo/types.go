package todo

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the only accepted due date format for new input.
const DateLayout = "2006-01-02"

// storedDateLayout also admits unpadded months and days, which older task
// files contain.
const storedDateLayout = "2006-1-2"

// Status represents a task status.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

var (
	// ErrInvalidDate is returned when a due date does not match DateLayout.
	ErrInvalidDate = errors.New("invalid date format")
	// ErrIndexOutOfRange is returned for task numbers outside 1..len(tasks).
	ErrIndexOutOfRange = errors.New("task number out of range")
	// ErrUnknownFilter is returned for an unrecognized view filter.
	ErrUnknownFilter = errors.New("unknown filter")
)

// Task represents a single to-do item.
type Task struct {
	ID          string     `json:"id,omitempty"`
	Description string     `json:"description"`
	DueDate     *string    `json:"due_date"`
	Status      Status     `json:"status"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// NewTask builds a pending task with a fresh ID. dueDate may be empty.
func NewTask(description, dueDate string) (Task, error) {
	due, err := normalizeDueDate(dueDate)
	if err != nil {
		return Task{}, err
	}
	now := time.Now().UTC()
	return Task{
		ID:          uuid.NewString(),
		Description: description,
		DueDate:     due,
		Status:      StatusPending,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}, nil
}

// Due returns the parsed due date. ok is false when the task has none or it
// does not parse.
func (t *Task) Due() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	d, err := ParseDate(*t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// DueLabel returns the due date for display, or "No due date".
func (t *Task) DueLabel() string {
	if t.DueDate == nil || *t.DueDate == "" {
		return "No due date"
	}
	return *t.DueDate
}

// IsCompleted reports whether the task is completed.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

func (t *Task) touch() {
	now := time.Now().UTC()
	t.UpdatedAt = &now
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// NormalizeStoredDate parses a due date read from a task file and returns it
// in DateLayout form. Unpadded months and days are accepted.
func NormalizeStoredDate(s string) (string, error) {
	d, err := time.Parse(storedDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d.Format(DateLayout), nil
}

// normalizeDueDate validates a user-entered due date. Empty means no date.
func normalizeDueDate(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	if _, err := ParseDate(s); err != nil {
		return nil, err
	}
	return &s, nil
}
