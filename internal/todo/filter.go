package todo

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDueSoonDays is the look-ahead window of the due-soon filter.
const DefaultDueSoonDays = 3

// FilterMode selects a subset of tasks for display.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterCompleted FilterMode = "completed"
	FilterPending   FilterMode = "pending"
	FilterDueSoon   FilterMode = "due-soon"
)

// FilterModes lists the modes in menu order.
func FilterModes() []FilterMode {
	return []FilterMode{FilterAll, FilterCompleted, FilterPending, FilterDueSoon}
}

// ParseFilterMode accepts a mode name (case-insensitive, "_" or "-").
func ParseFilterMode(s string) (FilterMode, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	switch FilterMode(normalized) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCompleted, "done":
		return FilterCompleted, nil
	case FilterPending:
		return FilterPending, nil
	case FilterDueSoon, "soon":
		return FilterDueSoon, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// Filter returns the tasks matching mode, preserving order. The input is not
// modified. For FilterDueSoon a task matches when its due date falls on or
// before the calendar day now+days; tasks without a due date never match.
func Filter(tasks []Task, mode FilterMode, now time.Time, days int) ([]Task, error) {
	var match func(*Task) bool
	switch mode {
	case FilterAll:
		match = func(*Task) bool { return true }
	case FilterCompleted:
		match = func(t *Task) bool { return t.Status == StatusCompleted }
	case FilterPending:
		match = func(t *Task) bool { return t.Status == StatusPending }
	case FilterDueSoon:
		cutoff := calendarDay(now).AddDate(0, 0, days)
		match = func(t *Task) bool {
			due, ok := t.Due()
			return ok && !due.After(cutoff)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, mode)
	}

	filtered := make([]Task, 0, len(tasks))
	for i := range tasks {
		if match(&tasks[i]) {
			filtered = append(filtered, cloneTask(tasks[i]))
		}
	}
	return filtered, nil
}

// calendarDay drops the clock and zone from t, keeping its local date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
