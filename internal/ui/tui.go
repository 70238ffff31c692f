// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/nextask/internal/store"
	"github.com/nibzard/nextask/internal/task"
)

// TaskStore is the part of the store the TUI drives.
type TaskStore interface {
	State() store.State
	Subscribe(fn func(store.State)) func()
	LoadTasksFromLocalStorage()
	LoadError() error
	SetTaskInputDescription(text string)
	AddNewTask() bool
	ToggleTaskCompletion(id string)
	DeleteTask(id string)
	ClearErrorMessage()
	StartFreshList()
}

type focus int

const (
	focusInput focus = iota
	focusList
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	shakeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("255"))
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// RunTUI loads the task list and runs the interactive interface until the
// user quits or ctx is cancelled.
func RunTUI(ctx context.Context, st TaskStore) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(st)
	defer model.unsubscribe()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type tuiModel struct {
	store       TaskStore
	state       store.State
	changes     chan struct{}
	unsubscribe func()
	focus       focus
	cursor      int
	malformed   bool
	showHelp    bool
}

// changedMsg signals that the store state moved outside of Update, for
// example when a message or shake timer fired.
type changedMsg struct{}

type loadedMsg struct{}

func newTUIModel(st TaskStore) *tuiModel {
	m := &tuiModel{
		store:   st,
		state:   st.State(),
		changes: make(chan struct{}, 1),
	}
	m.unsubscribe = st.Subscribe(func(store.State) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), waitForChange(m.changes))
}

func (m *tuiModel) loadCmd() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		st.LoadTasksFromLocalStorage()
		return loadedMsg{}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	case loadedMsg:
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.refresh()
		return m, cmd
	}
	return m, nil
}

func (m *tuiModel) refresh() {
	m.state = m.store.State()
	m.malformed = errors.Is(m.store.LoadError(), task.ErrMalformed)
	if m.cursor >= len(m.state.Tasks) {
		m.cursor = len(m.state.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.state.IsLoadingTasks {
		return nil
	}
	if m.state.AppStatus == store.StatusError {
		switch msg.String() {
		case "n":
			m.store.StartFreshList()
			m.focus = focusInput
		case "q", "esc":
			return tea.Quit
		}
		return nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		if m.showHelp {
			m.showHelp = false
			return nil
		}
		m.store.ClearErrorMessage()
		return nil
	case tea.KeyCtrlN:
		if m.malformed {
			m.store.StartFreshList()
			m.focus = focusInput
		}
		return nil
	case tea.KeyTab, tea.KeyShiftTab:
		if m.focus == focusInput {
			m.focus = focusList
		} else {
			m.focus = focusInput
		}
		return nil
	}

	if m.focus == focusInput {
		return m.handleInputKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *tuiModel) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	input := m.state.TaskInputDescription
	switch msg.Type {
	case tea.KeyEnter:
		m.store.AddNewTask()
	case tea.KeyBackspace:
		if input != "" {
			_, size := utf8.DecodeLastRuneInString(input)
			m.store.SetTaskInputDescription(input[:len(input)-size])
		}
	case tea.KeyCtrlU:
		m.store.SetTaskInputDescription("")
	case tea.KeySpace:
		m.store.SetTaskInputDescription(input + " ")
	case tea.KeyRunes:
		m.store.SetTaskInputDescription(input + string(msg.Runes))
	}
	return nil
}

func (m *tuiModel) handleListKey(msg tea.KeyMsg) tea.Cmd {
	tasks := m.state.Tasks
	switch msg.String() {
	case "q":
		return tea.Quit
	case "?", "h":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case " ", "x", "enter":
		if m.cursor < len(tasks) {
			m.store.ToggleTaskCompletion(tasks[m.cursor].ID)
		}
	case "d", "delete":
		if m.cursor < len(tasks) {
			m.store.DeleteTask(tasks[m.cursor].ID)
		}
	case "i", "a":
		m.focus = focusInput
	}
	return nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.state.IsLoadingTasks {
		b.WriteString("Loading tasks...\n")
		return b.String()
	}
	if m.state.AppStatus == store.StatusError {
		writeErrorView(&b, m.state)
		return b.String()
	}
	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	if m.state.AppStatus == store.StatusLocalStorageUnavailable {
		b.WriteString(warnStyle.Render(store.MsgStorageUnavailable) + "\n")
		if m.malformed {
			b.WriteString(faintStyle.Render("The saved list is not valid JSON and is left untouched. ctrl+n starts a fresh list.") + "\n")
		}
		b.WriteString("\n")
	}
	writeInput(&b, m.state, m.focus == focusInput)
	writeTasks(&b, m.state.Tasks, m.cursor, m.focus == focusList)
	writeFooter(&b, m.state.Tasks, m.focus)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	b.WriteString(titleStyle.Render("NexTask") + "\n\n")
}

func writeErrorView(b *strings.Builder, state store.State) {
	msg := state.ErrorMessage
	if msg == "" {
		msg = store.MsgCorruptedData
	}
	b.WriteString(errorStyle.Render(msg) + "\n\n")
	b.WriteString("The saved task list could not be read and was left untouched.\n\n")
	b.WriteString(faintStyle.Render("n start a fresh list | q quit") + "\n")
}

func writeInput(b *strings.Builder, state store.State, focused bool) {
	prompt := "  New task: "
	if focused {
		prompt = "> New task: "
	}
	line := prompt + state.TaskInputDescription
	if focused {
		line += "_"
	}
	if state.InputShake {
		line = shakeStyle.Render(line)
	}
	b.WriteString(line + "\n")

	count := utf8.RuneCountInString(strings.TrimSpace(state.TaskInputDescription))
	counter := fmt.Sprintf("  %d/%d", count, task.MaxDescriptionLength)
	if count > task.MaxDescriptionLength {
		b.WriteString(errorStyle.Render(counter) + "\n")
	} else {
		b.WriteString(counterStyle.Render(counter) + "\n")
	}

	// The unavailable message is already shown as a banner.
	if state.ErrorMessage != "" && state.ErrorMessage != store.MsgStorageUnavailable {
		b.WriteString("  " + errorStyle.Render(state.ErrorMessage) + "\n")
	}
	b.WriteString("\n")
}

func writeTasks(b *strings.Builder, tasks []task.Task, cursor int, focused bool) {
	if len(tasks) == 0 {
		b.WriteString(faintStyle.Render("  No tasks yet. Type one above and press enter.") + "\n\n")
		return
	}
	for i, t := range tasks {
		b.WriteString(formatTask(t, focused && i == cursor) + "\n")
	}
	b.WriteString("\n")
}

func formatTask(t task.Task, selected bool) string {
	mark := "[ ]"
	desc := t.Description
	if t.Completed {
		mark = "[x]"
		desc = doneStyle.Render(desc)
	}
	line := fmt.Sprintf("  %s %s", mark, desc)
	if selected {
		return cursorStyle.Render(line)
	}
	return line
}

func writeFooter(b *strings.Builder, tasks []task.Task, f focus) {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	b.WriteString(fmt.Sprintf("%d tasks, %d done\n", len(tasks), done))
	if f == focusInput {
		b.WriteString(faintStyle.Render("enter add | tab list | esc dismiss | ctrl+c quit") + "\n")
		return
	}
	b.WriteString(faintStyle.Render("space toggle | d delete | tab input | ? help | q quit") + "\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  tab          Switch between input and list\n")
	b.WriteString("  enter        Add task (input) / toggle (list)\n")
	b.WriteString("  ctrl+u       Clear input\n")
	b.WriteString("  ctrl+n       Start a fresh list when the saved one is unreadable\n")
	b.WriteString("  up/k down/j  Move selection\n")
	b.WriteString("  space, x     Toggle completion\n")
	b.WriteString("  d, delete    Delete task\n")
	b.WriteString("  esc          Dismiss message\n")
	b.WriteString("  q, ctrl+c    Quit\n\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
