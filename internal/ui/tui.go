// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"

	"github.com/nibzard/todo-go/internal/hooks"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/todo"
)

// Options configures the TUI.
type Options struct {
	Store       *todo.Store
	LoadOptions todo.LoadOptions
	DueSoonDays int
	Now         func() time.Time
	Hook        hooks.Func
	Logger      *log.Logger
}

// RunTUI starts the full-screen task viewer. It requires a terminal.
func RunTUI(ctx context.Context, opts Options) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	if opts.Store == nil {
		return errors.New("tui: no task store")
	}

	model := newTUIModel(ctx, opts)
	watcher, err := watchTaskFile(opts.Store.Path())
	if err != nil {
		model.logger.Warn("task file watch disabled", "path", opts.Store.Path(), "err", err)
	} else {
		defer watcher.Close()
		model.watcher = watcher
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type tuiModel struct {
	ctx      context.Context
	store    *todo.Store
	loadOpts todo.LoadOptions
	days     int
	now      func() time.Time
	hook     hooks.Func
	logger   *log.Logger

	watcher *fsnotify.Watcher

	filter   todo.FilterMode
	rows     []todo.Task
	cursor   int
	showHelp bool
	message  string
	err      error
}

func newTUIModel(ctx context.Context, opts Options) *tuiModel {
	if ctx == nil {
		ctx = context.Background()
	}
	m := &tuiModel{
		ctx:      ctx,
		store:    opts.Store,
		loadOpts: opts.LoadOptions,
		days:     opts.DueSoonDays,
		now:      opts.Now,
		hook:     opts.Hook,
		logger:   opts.Logger,
		filter:   todo.FilterAll,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	m.applyFilter()
	return m
}

// fileChangedMsg reports that the task file changed on disk.
type fileChangedMsg struct{}

type watchErrMsg struct {
	err error
}

func (m *tuiModel) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var key tea.KeyMsg
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key = msg
	case fileChangedMsg:
		m.refresh()
		return m, m.waitForChange()
	case watchErrMsg:
		m.logger.Warn("task file watch failed", "err", msg.err)
		return m, m.waitForChange()
	default:
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "h", "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "0", "1":
		m.setFilter(todo.FilterAll)
	case "2":
		m.setFilter(todo.FilterCompleted)
	case "3":
		m.setFilter(todo.FilterPending)
	case "4":
		m.setFilter(todo.FilterDueSoon)
	case "r", "f5":
		m.reload()
	case "c":
		return m, m.mutateSelected(hooks.ActionComplete)
	case "x":
		return m, m.mutateSelected(hooks.ActionDelete)
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b)
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	} else if m.message != "" {
		b.WriteString(m.message + "\n\n")
	}

	b.WriteString(fmt.Sprintf("Showing: %s (%d of %d)\n\n", filterLabel(m.filter, m.days), len(m.rows), m.store.Len()))
	if len(m.rows) == 0 {
		b.WriteString("  No tasks found.\n\n")
	} else {
		for i := range m.rows {
			b.WriteString(m.formatRow(i))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("File: %s\n", m.store.Path()))
	writeFooter(&b)
	return b.String()
}

func (m *tuiModel) setFilter(mode todo.FilterMode) {
	m.filter = mode
	m.cursor = 0
	m.message = ""
	m.applyFilter()
}

func (m *tuiModel) applyFilter() {
	rows, err := m.store.Filter(m.filter, m.now(), m.days)
	if err != nil {
		m.err = err
		m.rows = nil
		return
	}
	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) reload() {
	if m.refresh() {
		m.message = "Reloaded."
	}
}

// refresh rereads the task file, keeping the old list on failure.
func (m *tuiModel) refresh() bool {
	store, err := todo.Open(m.store.Path(), m.loadOpts)
	if err != nil {
		m.err = err
		return false
	}
	m.store = store
	m.err = nil
	m.applyFilter()
	return true
}

// watchTaskFile watches the directory holding path, so replacing the file
// (as editors do) is seen as well as writes to it.
func watchTaskFile(path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func (m *tuiModel) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	watcher, path := m.watcher, filepath.Clean(m.store.Path())
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					return fileChangedMsg{}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

// mutateSelected applies action to the highlighted row. Rows are matched to
// the full list by task id, so the right task changes whatever filter is
// active.
func (m *tuiModel) mutateSelected(action string) tea.Cmd {
	if len(m.rows) == 0 {
		return nil
	}
	selected := m.rows[m.cursor]
	index := m.store.IndexOf(selected.ID)
	if index == 0 {
		m.err = fmt.Errorf("task %s no longer exists", selected.ID)
		return nil
	}

	var (
		task todo.Task
		err  error
	)
	switch action {
	case hooks.ActionComplete:
		task, err = m.store.MarkComplete(index)
		m.message = "Task marked as complete."
	case hooks.ActionDelete:
		task, err = m.store.Delete(index)
		m.message = "Task deleted successfully."
	default:
		return nil
	}
	if err != nil {
		m.message = ""
		m.err = err
		m.logger.Error("tui change failed", "action", action, "index", index, "err", err)
		return nil
	}

	m.err = nil
	m.logger.Debug("task changed", "action", action, "task_id", task.ID, "index", index, "status", task.Status)
	m.applyFilter()
	return m.hookCmd(action, task)
}

func (m *tuiModel) hookCmd(action string, task todo.Task) tea.Cmd {
	if m.hook == nil {
		return nil
	}
	ctx, hook := m.ctx, m.hook
	return func() tea.Msg {
		hook(ctx, action, task)
		return nil
	}
}

func (m *tuiModel) formatRow(i int) string {
	cursor := " "
	if i == m.cursor {
		cursor = ">"
	}
	t := &m.rows[i]
	row := fmt.Sprintf("%s %d. %s | Due: %s | Status: %s",
		cursor, m.store.IndexOf(t.ID), t.Description, t.DueLabel(), t.Status)
	switch {
	case i == m.cursor:
		return selectedStyle.Render(row)
	case t.IsCompleted():
		return completedStyle.Render(row)
	}
	return row
}

func filterLabel(mode todo.FilterMode, days int) string {
	switch mode {
	case todo.FilterCompleted:
		return "completed tasks"
	case todo.FilterPending:
		return "pending tasks"
	case todo.FilterDueSoon:
		return fmt.Sprintf("tasks due soon (within %d days)", days)
	}
	return "all tasks"
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	completedStyle = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func writeTitle(b *strings.Builder) {
	title := "To-Do List"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  up, k        Move up\n")
	b.WriteString("  down, j      Move down\n")
	b.WriteString("  c            Mark selected task as completed\n")
	b.WriteString("  x            Delete selected task\n")
	b.WriteString("  r, F5        Reload task file (also automatic on change)\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  0, 1         Show all tasks\n")
	b.WriteString("  2            Show completed tasks\n")
	b.WriteString("  3            Show pending tasks\n")
	b.WriteString("  4            Show tasks due soon\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString("Press h for help | q to quit\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
