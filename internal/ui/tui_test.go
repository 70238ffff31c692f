package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/nibzard/nextask/internal/storage"
	"github.com/nibzard/nextask/internal/store"
	"github.com/nibzard/nextask/internal/task"
)

func newLoadedModel(t *testing.T, slot storage.Slot) (*tuiModel, *store.Store) {
	t.Helper()
	seq := 0
	st := store.New(slot, store.WithIDGenerator(func() string {
		seq++
		return "id-" + string(rune('a'+seq-1))
	}))
	t.Cleanup(st.Close)

	m := newTUIModel(st)
	t.Cleanup(m.unsubscribe)
	msg := m.loadCmd()()
	m.Update(msg)
	return m, st
}

func typeText(m *tuiModel, text string) {
	for _, r := range text {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadingView(t *testing.T) {
	st := store.New(storage.NewMemorySlot())
	m := newTUIModel(st)
	defer m.unsubscribe()

	if !strings.Contains(m.View(), "Loading tasks...") {
		t.Errorf("expected loading view, got:\n%s", m.View())
	}
}

func TestTypingAndAdding(t *testing.T) {
	slot := storage.NewMemorySlot()
	m, st := newLoadedModel(t, slot)

	typeText(m, "Buy milk")
	if got := st.State().TaskInputDescription; got != "Buy milk" {
		t.Fatalf("input: got %q", got)
	}

	m.Update(key(tea.KeyBackspace))
	if got := st.State().TaskInputDescription; got != "Buy mil" {
		t.Fatalf("after backspace: got %q", got)
	}
	typeText(m, "k")
	m.Update(key(tea.KeyEnter))

	want := []task.Task{{ID: "id-a", Description: "Buy milk"}}
	if diff := cmp.Diff(want, st.State().Tasks); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}
	if m.state.TaskInputDescription != "" {
		t.Errorf("input not cleared in model: %q", m.state.TaskInputDescription)
	}
	if !strings.Contains(m.View(), "[ ] Buy milk") {
		t.Errorf("view missing task:\n%s", m.View())
	}
	if slot.Writes() != 1 {
		t.Errorf("writes: got %d, want 1", slot.Writes())
	}
}

func TestEmptyAddShowsError(t *testing.T) {
	m, _ := newLoadedModel(t, storage.NewMemorySlot())

	typeText(m, "   ")
	m.Update(key(tea.KeyEnter))

	if !m.state.InputShake {
		t.Error("expected input shake")
	}
	if !strings.Contains(m.View(), store.MsgEmptyTask) {
		t.Errorf("view missing error message:\n%s", m.View())
	}

	m.Update(key(tea.KeyEsc))
	if m.state.ErrorMessage != "" {
		t.Errorf("esc should dismiss the message, got %q", m.state.ErrorMessage)
	}
}

func TestBackspaceRemovesWholeRune(t *testing.T) {
	m, st := newLoadedModel(t, storage.NewMemorySlot())

	m.Update(runes("añ"))
	m.Update(key(tea.KeyBackspace))
	if got := st.State().TaskInputDescription; got != "a" {
		t.Errorf("got %q, want %q", got, "a")
	}
	m.Update(key(tea.KeyCtrlU))
	if got := st.State().TaskInputDescription; got != "" {
		t.Errorf("ctrl+u: got %q", got)
	}
}

func TestListNavigation(t *testing.T) {
	m, st := newLoadedModel(t, storage.NewMemorySlot())
	for _, text := range []string{"one", "two", "three"} {
		typeText(m, text)
		m.Update(key(tea.KeyEnter))
	}

	m.Update(key(tea.KeyTab))
	if m.focus != focusList {
		t.Fatal("tab should focus the list")
	}

	m.Update(runes("j"))
	m.Update(runes("j"))
	m.Update(runes("j"))
	if m.cursor != 2 {
		t.Errorf("cursor: got %d, want 2", m.cursor)
	}
	m.Update(runes("k"))
	if m.cursor != 1 {
		t.Errorf("cursor: got %d, want 1", m.cursor)
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !st.State().Tasks[1].Completed {
		t.Error("space should toggle the selected task")
	}
	if !strings.Contains(m.View(), "1 done") {
		t.Errorf("footer missing done count:\n%s", m.View())
	}

	m.Update(runes("d"))
	var got []string
	for _, tk := range st.State().Tasks {
		got = append(got, tk.Description)
	}
	if diff := cmp.Diff([]string{"one", "three"}, got); diff != "" {
		t.Errorf("after delete (-want +got):\n%s", diff)
	}

	m.Update(runes("j"))
	m.Update(runes("d"))
	if m.cursor != 0 {
		t.Errorf("cursor should clamp after deleting the last row, got %d", m.cursor)
	}

	// Typing in the list does not edit the input.
	m.Update(runes("z"))
	if st.State().TaskInputDescription != "" {
		t.Errorf("list keys leaked into input: %q", st.State().TaskInputDescription)
	}
}

func TestCorruptedView(t *testing.T) {
	slot := storage.NewMemorySlot()
	if err := slot.Set(store.DefaultStorageKey, []byte(`{"tasks_list":[{"id":1}]}`)); err != nil {
		t.Fatal(err)
	}
	m, st := newLoadedModel(t, slot)

	view := m.View()
	if !strings.Contains(view, store.MsgCorruptedData) {
		t.Errorf("expected corruption message:\n%s", view)
	}

	// Edits are ignored in the error view.
	typeText(m, "x")
	if st.State().TaskInputDescription != "" {
		t.Error("input should be ignored in the error view")
	}

	m.Update(runes("n"))
	if st.State().AppStatus != store.StatusInitialized {
		t.Errorf("status: got %q", st.State().AppStatus)
	}
	data, _, _ := slot.Get(store.DefaultStorageKey)
	if !bytes.Contains(data, []byte(`"tasks_list": []`)) {
		t.Errorf("fresh list not persisted: %s", data)
	}
}

func TestUnavailableBanner(t *testing.T) {
	slot := storage.NewMemorySlot()
	slot.ReadErr = storage.ErrUnavailable
	m, _ := newLoadedModel(t, slot)

	if !strings.Contains(m.View(), store.MsgStorageUnavailable) {
		t.Errorf("expected unavailable banner:\n%s", m.View())
	}
	typeText(m, "still works")
	m.Update(key(tea.KeyEnter))
	if len(m.state.Tasks) != 1 {
		t.Errorf("tasks: got %d, want 1", len(m.state.Tasks))
	}
}

func TestMalformedSlotKeptUntilFreshStart(t *testing.T) {
	slot := storage.NewMemorySlot()
	blob := []byte(`{"tasks_list":[],}`)
	if err := slot.Set(store.DefaultStorageKey, blob); err != nil {
		t.Fatal(err)
	}
	m, st := newLoadedModel(t, slot)

	if !strings.Contains(m.View(), "not valid JSON") {
		t.Errorf("expected malformed hint:\n%s", m.View())
	}
	typeText(m, "new")
	m.Update(key(tea.KeyEnter))
	if len(m.state.Tasks) != 1 {
		t.Fatalf("tasks: got %d, want 1", len(m.state.Tasks))
	}
	if data, _, _ := slot.Get(store.DefaultStorageKey); !bytes.Equal(data, blob) {
		t.Fatalf("malformed blob was overwritten: %s", data)
	}

	m.Update(key(tea.KeyCtrlN))
	if st.LoadError() != nil || m.malformed {
		t.Errorf("fresh start should clear the load error, got %v", st.LoadError())
	}
	data, _, _ := slot.Get(store.DefaultStorageKey)
	if !bytes.Contains(data, []byte(`"tasks_list": []`)) {
		t.Errorf("fresh list not persisted: %s", data)
	}
}

func TestQuitKeys(t *testing.T) {
	m, _ := newLoadedModel(t, storage.NewMemorySlot())

	typeText(m, "q")
	if m.state.TaskInputDescription != "q" {
		t.Errorf("q in input should type, got %q", m.state.TaskInputDescription)
	}

	_, cmd := m.Update(key(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatal("ctrl+c should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestSubscriptionWakesModel(t *testing.T) {
	m, st := newLoadedModel(t, storage.NewMemorySlot())

	st.SetTaskInputDescription("from outside")
	msg := waitForChange(m.changes)()
	if _, ok := msg.(changedMsg); !ok {
		t.Fatalf("got %T, want changedMsg", msg)
	}
	m.Update(msg)
	if m.state.TaskInputDescription != "from outside" {
		t.Errorf("model not refreshed: %q", m.state.TaskInputDescription)
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("buffer is not a TTY")
	}
}
