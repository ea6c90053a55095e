package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"kanban-cli/internal/backend"
	"kanban-cli/internal/board"
	"kanban-cli/internal/reorder"
)

const opTimeout = 10 * time.Second

type viewKind int

const (
	viewBoard viewKind = iota
	viewPreview
)

type modalKind int

const (
	modalNone modalKind = iota
	modalAdd
	modalEdit
	modalTags
	modalConfirmDelete
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

type boardLoadedMsg struct {
	tasks    []board.Task
	settings board.Settings
}

// opDoneMsg reports a finished mutation. completedID is set when the op
// moved a task into done; selectID asks for focus to land on a task once
// the board reloads.
type opDoneMsg struct {
	completedID string
	selectID    string
}

type errMsg struct{ err error }

type reloadTickMsg struct{}

type flashClearMsg struct{ seq int }

type Model struct {
	store *backend.Facade

	width  int
	height int

	view     viewKind
	board    boardView
	settings board.Settings
	sel      selection
	carrying bool
	loaded   bool

	modal        modalKind
	modalForID   string
	input        textinput.Model
	confirmFocus confirmModalFocus

	preview    viewport.Model
	previewFor string

	flashText string
	flashErr  bool
	flashSeq  int
}

func newModel(store *backend.Facade) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	return Model{
		store: store,
		input: ti,
	}
}

func (m Model) readOnly() bool { return m.store.Mode() == backend.ModeReadOnly }

func (m Model) Init() tea.Cmd {
	return tea.Batch(loadBoard(m.store), tickReload())
}

func tickReload() tea.Cmd {
	// Poll so edits made by the CLI, the web UI, or another terminal show up.
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func loadBoard(store *backend.Facade) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		tasks, err := store.GetAll(ctx)
		if err != nil {
			return errMsg{err}
		}
		settings, err := store.Settings(ctx)
		if err != nil {
			return errMsg{err}
		}
		return boardLoadedMsg{tasks: tasks, settings: settings}
	}
}

func applyPlan(store *backend.Facade, plan reorder.Plan, movedID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if _, err := store.BatchUpdate(ctx, plan.Patches); err != nil {
			return errMsg{err}
		}
		msg := opDoneMsg{selectID: movedID}
		if plan.Completed {
			msg.completedID = movedID
		}
		return msg
	}
}

func createTask(store *backend.Facade, draft board.TaskDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		t, err := store.Create(ctx, draft)
		if err != nil {
			return errMsg{err}
		}
		return opDoneMsg{selectID: t.ID}
	}
}

func updateTaskText(store *backend.Facade, id, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if _, err := store.Update(ctx, id, board.TaskPatch{Text: &text}); err != nil {
			return errMsg{err}
		}
		return opDoneMsg{selectID: id}
	}
}

func updateTaskTags(store *backend.Facade, id string, tags []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if _, err := store.Update(ctx, id, board.TaskPatch{Tags: &tags}); err != nil {
			return errMsg{err}
		}
		return opDoneMsg{selectID: id}
	}
}

func deleteTask(store *backend.Facade, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if _, err := store.Delete(ctx, id); err != nil {
			return errMsg{err}
		}
		return opDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == viewPreview {
			m.openPreview(m.previewFor)
		}
		return m, nil

	case boardLoadedMsg:
		m.loaded = true
		m.board = buildBoardView(msg.tasks)
		m.settings = msg.settings
		m.sel = m.board.clamp(m.sel)
		if m.carrying {
			if _, ok := m.board.selected(m.sel); !ok {
				m.carrying = false
			}
		}
		if m.view == viewPreview {
			if _, _, ok := m.board.indexOfTaskID(m.previewFor); !ok {
				// The previewed task vanished under us (deleted elsewhere).
				m.view = viewBoard
			} else {
				m.openPreview(m.previewFor)
			}
		}
		return m, nil

	case opDoneMsg:
		if msg.selectID != "" {
			m.sel.TaskID = msg.selectID
		}
		var cmd tea.Cmd
		if msg.completedID != "" {
			cmd = m.startFlash("Completed "+msg.completedID, false)
		}
		return m, tea.Batch(loadBoard(m.store), cmd)

	case errMsg:
		return m, m.startFlash(msg.err.Error(), true)

	case reloadTickMsg:
		return m, tea.Batch(loadBoard(m.store), tickReload())

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flashText = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) startFlash(text string, isErr bool) tea.Cmd {
	m.flashText = text
	m.flashErr = isErr
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg { return flashClearMsg{seq: seq} })
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != modalNone {
		return m.updateModal(msg)
	}

	if m.view == viewPreview {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc", "enter":
			m.view = viewBoard
			return m, nil
		}
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "r":
		return m, loadBoard(m.store)

	case "left", "h":
		if m.carrying {
			return m.moveCarried(-1, 0)
		}
		m.moveSel(-1, 0)
		return m, nil

	case "right", "l":
		if m.carrying {
			return m.moveCarried(1, 0)
		}
		m.moveSel(1, 0)
		return m, nil

	case "up", "k":
		if m.carrying {
			return m.moveCarried(0, -1)
		}
		m.moveSel(0, -1)
		return m, nil

	case "down", "j":
		if m.carrying {
			return m.moveCarried(0, 1)
		}
		m.moveSel(0, 1)
		return m, nil

	case " ", "space":
		if m.carrying {
			m.carrying = false
			return m, nil
		}
		if cmd, blocked := m.rejectReadOnly(); blocked {
			return m, cmd
		}
		if _, ok := m.board.selected(m.sel); ok {
			m.carrying = true
		}
		return m, nil

	case "esc":
		m.carrying = false
		return m, nil

	case "enter":
		if t, ok := m.board.selected(m.sel); ok {
			m.view = viewPreview
			m.openPreview(t.ID)
		}
		return m, nil

	case "a":
		if cmd, blocked := m.rejectReadOnly(); blocked {
			return m, cmd
		}
		m.modal = modalAdd
		m.input.Placeholder = "Task text (markdown)"
		m.input.SetValue("")
		return m, m.input.Focus()

	case "e":
		if cmd, blocked := m.rejectReadOnly(); blocked {
			return m, cmd
		}
		t, ok := m.board.selected(m.sel)
		if !ok {
			return m, nil
		}
		m.modal = modalEdit
		m.modalForID = t.ID
		m.input.Placeholder = ""
		m.input.SetValue(t.Text)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "t":
		if cmd, blocked := m.rejectReadOnly(); blocked {
			return m, cmd
		}
		t, ok := m.board.selected(m.sel)
		if !ok {
			return m, nil
		}
		m.modal = modalTags
		m.modalForID = t.ID
		m.input.Placeholder = "comma-separated tags"
		m.input.SetValue(strings.Join(t.Tags, ", "))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "x":
		if cmd, blocked := m.rejectReadOnly(); blocked {
			return m, cmd
		}
		t, ok := m.board.selected(m.sel)
		if !ok {
			return m, nil
		}
		m.modal = modalConfirmDelete
		m.modalForID = t.ID
		m.confirmFocus = confirmFocusCancel
		return m, nil
	}

	return m, nil
}

// rejectReadOnly flashes instead of mutating when the board is a snapshot.
func (m *Model) rejectReadOnly() (tea.Cmd, bool) {
	if !m.readOnly() {
		return nil, false
	}
	return m.startFlash("read-only board", true), true
}

func (m *Model) moveSel(dCol, dRow int) {
	sel := m.sel
	sel.Col += dCol
	sel.Row += dRow
	// Let the indexes win over the id pin, or the move would snap back.
	sel.TaskID = ""
	m.sel = m.board.clamp(sel)
}

// moveCarried commits one carry step: the grabbed task moves to the adjacent
// position, status and order in a single batch.
func (m Model) moveCarried(dCol, dRow int) (tea.Model, tea.Cmd) {
	t, ok := m.board.selected(m.sel)
	if !ok {
		m.carrying = false
		return m, nil
	}

	targetCol := m.sel.Col + dCol
	if targetCol < 0 || targetCol >= len(m.board.cols) {
		return m, nil
	}
	ids := m.board.columnIDs(targetCol)
	to := m.board.cols[targetCol].status

	// Insert positions count within the target column with the carried task
	// taken out.
	var insertAt int
	if dCol != 0 {
		insertAt = m.sel.Row
		if insertAt > len(ids) {
			insertAt = len(ids)
		}
	} else {
		rest := len(ids) - 1
		insertAt = m.sel.Row + dRow
		if insertAt < 0 {
			insertAt = 0
		}
		if insertAt > rest {
			insertAt = rest
		}
		if insertAt == m.sel.Row {
			// Already at the edge.
			return m, nil
		}
	}

	plan, err := reorder.PlanDrop(ids, t.ID, insertAt, t.Status, to)
	if err != nil {
		return m, m.startFlash(err.Error(), true)
	}
	m.sel.TaskID = t.ID
	return m, applyPlan(m.store, plan, t.ID)
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalAdd, modalEdit, modalTags:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "ctrl+g":
			m.closeModal()
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			kind := m.modal
			forID := m.modalForID
			m.closeModal()
			if kind == modalTags {
				// An empty input clears the tags.
				return m, updateTaskTags(m.store, forID, parseTags(text))
			}
			if text == "" {
				return m, nil
			}
			if kind == modalAdd {
				status := board.StatusTodo
				if m.sel.Col >= 0 && m.sel.Col < len(m.board.cols) {
					status = m.board.cols[m.sel.Col].status
				}
				return m, createTask(m.store, board.TaskDraft{Text: text, Status: status})
			}
			return m, updateTaskText(m.store, forID, text)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modalConfirmDelete:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "ctrl+g", "n":
			m.closeModal()
			return m, nil
		case "tab", "left", "right", "h", "l":
			if m.confirmFocus == confirmFocusConfirm {
				m.confirmFocus = confirmFocusCancel
			} else {
				m.confirmFocus = confirmFocusConfirm
			}
			return m, nil
		case "y":
			id := m.modalForID
			m.closeModal()
			return m, deleteTask(m.store, id)
		case "enter":
			id := m.modalForID
			focus := m.confirmFocus
			m.closeModal()
			if focus == confirmFocusConfirm {
				return m, deleteTask(m.store, id)
			}
			return m, nil
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) closeModal() {
	m.modal = modalNone
	m.modalForID = ""
	m.input.Blur()
}

// parseTags splits a comma-separated tag line, dropping empties and repeats.
func parseTags(s string) []string {
	tags := make([]string, 0, 4)
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimPrefix(strings.TrimSpace(part), "#")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func (m *Model) openPreview(id string) {
	ci, ri, ok := m.board.indexOfTaskID(id)
	if !ok {
		return
	}
	t := m.board.cols[ci].tasks[ri]

	w := m.width - 4
	if w > 80 {
		w = 80
	}
	if w < 20 {
		w = 20
	}
	h := m.height - 6
	if h < 5 {
		h = 5
	}

	meta := []string{
		lipglossBold(t.ID) + styleMuted().Render("  "+string(t.Type)+" · "+columnTitles[t.Status]),
	}
	if len(t.Tags) > 0 {
		meta = append(meta, styleMuted().Render("#"+strings.Join(t.Tags, " #")))
	}
	stamps := "created " + t.CreatedAt
	if t.UpdatedAt != "" && t.UpdatedAt != t.CreatedAt {
		stamps += "  updated " + t.UpdatedAt
	}
	if t.ClosedAt != "" {
		stamps += "  closed " + t.ClosedAt
	}
	meta = append(meta, styleMuted().Render(stamps), "")

	content := strings.Join(meta, "\n") + "\n" + renderMarkdown(t.Text, w)

	m.previewFor = t.ID
	m.preview = viewport.New(w, h)
	m.preview.SetContent(content)
}
