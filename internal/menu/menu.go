// Package menu implements the interactive numbered-menu front end.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/hooks"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/todo"
)

// Option configures a Menu.
type Option func(*Menu)

// WithLogger sets the logger for diagnostic events.
func WithLogger(logger *log.Logger) Option {
	return func(m *Menu) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used by the due-soon filter.
func WithClock(now func() time.Time) Option {
	return func(m *Menu) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDueSoonDays sets the due-soon look-ahead.
func WithDueSoonDays(days int) Option {
	return func(m *Menu) {
		m.dueSoonDays = days
	}
}

// WithHook registers a function run after each change.
func WithHook(fn hooks.Func) Option {
	return func(m *Menu) {
		m.hook = fn
	}
}

// ErrFinished is returned when Run is called on a Menu that already ran.
var ErrFinished = errors.New("menu already finished")

// Menu is a read-eval-print loop over a task store. A Menu is single-use:
// its input reader is consumed by the first Run.
type Menu struct {
	store       *todo.Store
	in          *bufio.Reader
	lines       chan line
	done        chan struct{}
	out         io.Writer
	logger      *log.Logger
	now         func() time.Time
	dueSoonDays int
	hook        hooks.Func
}

// New creates a Menu reading choices from in and writing to out.
func New(store *todo.Store, in io.Reader, out io.Writer, opts ...Option) *Menu {
	m := &Menu{
		store:       store,
		in:          bufio.NewReader(in),
		out:         out,
		logger:      logging.Discard(),
		now:         time.Now,
		dueSoonDays: todo.DefaultDueSoonDays,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run loops until the user exits, input ends, or ctx is cancelled.
// End of input is a normal exit.
func (m *Menu) Run(ctx context.Context) error {
	if m.done != nil {
		return ErrFinished
	}
	m.done = make(chan struct{})
	defer close(m.done)
	return m.loop(ctx)
}

func (m *Menu) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintln(m.out, "\nTo-Do List Manager")
		fmt.Fprintln(m.out, "1. Add Task")
		fmt.Fprintln(m.out, "2. View Tasks")
		fmt.Fprintln(m.out, "3. Mark Task as Completed")
		fmt.Fprintln(m.out, "4. Edit Task")
		fmt.Fprintln(m.out, "5. Delete Task")
		fmt.Fprintln(m.out, "6. Exit")

		choice, err := m.prompt(ctx, "Enter your choice: ")
		if err != nil {
			return m.endOfInput(err)
		}

		switch choice {
		case "1":
			err = m.add(ctx)
		case "2":
			err = m.view(ctx)
		case "3":
			err = m.markComplete(ctx)
		case "4":
			err = m.edit(ctx)
		case "5":
			err = m.delete(ctx)
		case "6":
			fmt.Fprintln(m.out, "Exiting program.")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Please try again.")
		}
		if err != nil {
			return m.endOfInput(err)
		}
	}
}

func (m *Menu) add(ctx context.Context) error {
	description, err := m.prompt(ctx, "Enter task description: ")
	if err != nil {
		return err
	}
	dueDate, err := m.prompt(ctx, "Enter due date (YYYY-MM-DD, optional): ")
	if err != nil {
		return err
	}

	task, err := m.store.Add(description, dueDate)
	switch {
	case errors.Is(err, todo.ErrInvalidDate):
		fmt.Fprintln(m.out, "Invalid date format. Task not added.")
		return nil
	case err != nil:
		m.reportSaveError(err)
		return nil
	}

	m.logger.Debug("task added", "task_id", task.ID, "index", m.store.Len(), "due", task.DueLabel())
	fmt.Fprintln(m.out, "Task added successfully!")
	m.runHook(ctx, hooks.ActionAdd, task)
	return nil
}

func (m *Menu) view(ctx context.Context) error {
	fmt.Fprintln(m.out, "\nView options:")
	fmt.Fprintln(m.out, "1. All tasks")
	fmt.Fprintln(m.out, "2. Completed tasks")
	fmt.Fprintln(m.out, "3. Pending tasks")
	fmt.Fprintf(m.out, "4. Tasks due soon (within %d days)\n", m.dueSoonDays)

	option, err := m.prompt(ctx, "Choose an option: ")
	if err != nil {
		return err
	}

	mode, ok := viewModes[option]
	if !ok {
		fmt.Fprintln(m.out, "Invalid option.")
		return nil
	}

	tasks, err := m.store.Filter(mode, m.now(), m.dueSoonDays)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid option.")
		return nil
	}

	if len(tasks) == 0 {
		fmt.Fprintln(m.out, "No tasks found.")
	} else {
		fmt.Fprintln(m.out, "\nTasks:")
		WriteTasks(m.out, tasks)
	}
	fmt.Fprintln(m.out)
	return nil
}

var viewModes = map[string]todo.FilterMode{
	"1": todo.FilterAll,
	"2": todo.FilterCompleted,
	"3": todo.FilterPending,
	"4": todo.FilterDueSoon,
}

func (m *Menu) markComplete(ctx context.Context) error {
	index, ok, err := m.selectTask(ctx, "Enter task number to mark as complete: ")
	if err != nil || !ok {
		return err
	}

	task, err := m.store.MarkComplete(index)
	if err != nil {
		m.reportMutationError(err)
		return nil
	}

	m.logger.Debug("task completed", "task_id", task.ID, "index", index, "status", task.Status)
	fmt.Fprintln(m.out, "Task marked as complete.")
	m.runHook(ctx, hooks.ActionComplete, task)
	return nil
}

func (m *Menu) edit(ctx context.Context) error {
	index, ok, err := m.selectTask(ctx, "Enter task number to edit: ")
	if err != nil || !ok {
		return err
	}

	description, err := m.prompt(ctx, "Enter new task description: ")
	if err != nil {
		return err
	}
	dueDate, err := m.prompt(ctx, "Enter new due date (YYYY-MM-DD, optional): ")
	if err != nil {
		return err
	}

	task, err := m.store.Edit(index, description, dueDate)
	switch {
	case errors.Is(err, todo.ErrInvalidDate):
		fmt.Fprintln(m.out, "Invalid date format.")
		return nil
	case err != nil:
		m.reportMutationError(err)
		return nil
	}

	m.logger.Debug("task edited", "task_id", task.ID, "index", index, "due", task.DueLabel())
	fmt.Fprintln(m.out, "Task updated successfully.")
	m.runHook(ctx, hooks.ActionEdit, task)
	return nil
}

func (m *Menu) delete(ctx context.Context) error {
	index, ok, err := m.selectTask(ctx, "Enter task number to delete: ")
	if err != nil || !ok {
		return err
	}

	task, err := m.store.Delete(index)
	if err != nil {
		m.reportMutationError(err)
		return nil
	}

	m.logger.Debug("task deleted", "task_id", task.ID, "index", index)
	fmt.Fprintln(m.out, "Task deleted successfully.")
	m.runHook(ctx, hooks.ActionDelete, task)
	return nil
}

// selectTask shows the view menu, then reads a 1-based task number. The
// number always addresses the full task list, whatever filter was shown.
// ok is false when the number was rejected (and reported).
func (m *Menu) selectTask(ctx context.Context, label string) (int, bool, error) {
	if err := m.view(ctx); err != nil {
		return 0, false, err
	}
	raw, err := m.prompt(ctx, label)
	if err != nil {
		return 0, false, err
	}

	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		fmt.Fprintln(m.out, "Invalid task number.")
		return 0, false, nil
	}
	if _, err := m.store.Get(index); err != nil {
		fmt.Fprintln(m.out, "Invalid task number.")
		return 0, false, nil
	}
	return index, true, nil
}

func (m *Menu) reportMutationError(err error) {
	if errors.Is(err, todo.ErrIndexOutOfRange) {
		fmt.Fprintln(m.out, "Invalid task number.")
		return
	}
	m.reportSaveError(err)
}

func (m *Menu) reportSaveError(err error) {
	m.logger.Error("save failed", "path", m.store.Path(), "err", err)
	fmt.Fprintf(m.out, "Could not save tasks: %v\n", err)
}

func (m *Menu) runHook(ctx context.Context, action string, task todo.Task) {
	if m.hook != nil {
		m.hook(ctx, action, task)
	}
}

type line struct {
	text string
	err  error
}

// prompt writes label and reads one line without its line terminator.
// A final line without a newline is returned; io.EOF only when nothing was
// read. Cancelling ctx abandons the pending read.
func (m *Menu) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(m.out, label)
	if m.lines == nil {
		m.lines = make(chan line)
		go m.readLines()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-m.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// readLines feeds m.lines until input ends or Run returns. A read that is
// blocked when Run returns exits after its line arrives.
func (m *Menu) readLines() {
	defer close(m.lines)
	for {
		text, err := m.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && text != "" {
				m.send(line{text: strings.TrimRight(text, "\r\n")})
				return
			}
			if !errors.Is(err, io.EOF) {
				m.send(line{err: err})
			}
			return
		}
		if !m.send(line{text: strings.TrimRight(text, "\r\n")}) {
			return
		}
	}
}

func (m *Menu) send(l line) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.lines <- l:
		return true
	case <-m.done:
		return false
	}
}

func (m *Menu) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(m.out)
		return nil
	}
	return err
}

// WriteTasks prints tasks as numbered lines:
// "N. <description> | Due: <date> | Status: <status>".
func WriteTasks(w io.Writer, tasks []todo.Task) {
	for i := range tasks {
		fmt.Fprintf(w, "%d. %s | Due: %s | Status: %s\n",
			i+1, tasks[i].Description, tasks[i].DueLabel(), tasks[i].Status)
	}
}
