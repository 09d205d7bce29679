package todo

import (
	"fmt"
	"time"
)

// Store owns the in-memory task list and its backing file.
// Every mutation rewrites the whole file; memory is only updated after the
// write succeeds, so the two never diverge.
type Store struct {
	path  string
	tasks []Task
}

// Open loads the task file at path into a new Store.
func Open(path string, opts LoadOptions) (*Store, error) {
	tasks, err := LoadWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, tasks: tasks}, nil
}

// NewStore returns a Store over tasks without reading path.
func NewStore(path string, tasks []Task) *Store {
	return &Store{path: path, tasks: cloneTasks(tasks)}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Tasks returns a copy of all tasks in order.
func (s *Store) Tasks() []Task {
	return cloneTasks(s.tasks)
}

// Get returns the task at a 1-based index.
func (s *Store) Get(index int) (Task, error) {
	i, err := s.position(index)
	if err != nil {
		return Task{}, err
	}
	return cloneTask(s.tasks[i]), nil
}

// IndexOf returns the 1-based index of the task with id, or 0.
func (s *Store) IndexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i + 1
		}
	}
	return 0
}

// Save persists the current list.
func (s *Store) Save() error {
	return Save(s.path, s.tasks)
}

// Add appends a new pending task and persists the list.
func (s *Store) Add(description, dueDate string) (Task, error) {
	task, err := NewTask(description, dueDate)
	if err != nil {
		return Task{}, err
	}
	next := append(cloneTasks(s.tasks), task)
	if err := s.commit(next); err != nil {
		return Task{}, err
	}
	return cloneTask(task), nil
}

// MarkComplete sets the task at a 1-based index to Completed.
func (s *Store) MarkComplete(index int) (Task, error) {
	return s.update(index, func(t *Task) error {
		t.Status = StatusCompleted
		return nil
	})
}

// Edit replaces both the description and the due date of the task at a
// 1-based index. An empty dueDate clears it.
func (s *Store) Edit(index int, description, dueDate string) (Task, error) {
	return s.update(index, func(t *Task) error {
		due, err := normalizeDueDate(dueDate)
		if err != nil {
			return err
		}
		t.Description = description
		t.DueDate = due
		return nil
	})
}

// Delete removes the task at a 1-based index.
func (s *Store) Delete(index int) (Task, error) {
	i, err := s.position(index)
	if err != nil {
		return Task{}, err
	}
	removed := cloneTask(s.tasks[i])
	next := make([]Task, 0, len(s.tasks)-1)
	next = append(next, cloneTasks(s.tasks[:i])...)
	next = append(next, cloneTasks(s.tasks[i+1:])...)
	if err := s.commit(next); err != nil {
		return Task{}, err
	}
	return removed, nil
}

// Filter returns the tasks matching mode relative to now.
func (s *Store) Filter(mode FilterMode, now time.Time, days int) ([]Task, error) {
	return Filter(s.tasks, mode, now, days)
}

func (s *Store) update(index int, fn func(*Task) error) (Task, error) {
	i, err := s.position(index)
	if err != nil {
		return Task{}, err
	}
	next := cloneTasks(s.tasks)
	if err := fn(&next[i]); err != nil {
		return Task{}, err
	}
	next[i].touch()
	if err := s.commit(next); err != nil {
		return Task{}, err
	}
	return cloneTask(next[i]), nil
}

func (s *Store) position(index int) (int, error) {
	if index < 1 || index > len(s.tasks) {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return index - 1, nil
}

func (s *Store) commit(next []Task) error {
	if err := Save(s.path, next); err != nil {
		return err
	}
	s.tasks = next
	return nil
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = cloneTask(tasks[i])
	}
	return out
}

func cloneTask(t Task) Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if t.CreatedAt != nil {
		created := *t.CreatedAt
		t.CreatedAt = &created
	}
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		t.UpdatedAt = &updated
	}
	return t
}
