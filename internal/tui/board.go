package tui

import (
	"strings"

	"kanban-cli/internal/board"
)

type boardColumn struct {
	status board.Status
	title  string
	tasks  []board.Task
}

type boardView struct {
	cols []boardColumn
}

// selection addresses one card. TaskID is the stable handle (preferred over
// the indexes for tracking focus across reloads and moves).
type selection struct {
	Col    int
	Row    int
	TaskID string
}

var columnTitles = map[board.Status]string{
	board.StatusTodo:       "To Do",
	board.StatusInProgress: "In Progress",
	board.StatusDone:       "Done",
}

func buildBoardView(tasks []board.Task) boardView {
	byStatus := board.ByStatus(tasks)
	cols := make([]boardColumn, 0, len(board.Statuses))
	for _, s := range board.Statuses {
		cols = append(cols, boardColumn{
			status: s,
			title:  columnTitles[s],
			tasks:  byStatus[s],
		})
	}
	return boardView{cols: cols}
}

func (b boardView) indexOfTaskID(id string) (int, int, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, 0, false
	}
	for ci := range b.cols {
		for ri := range b.cols[ci].tasks {
			if b.cols[ci].tasks[ri].ID == id {
				return ci, ri, true
			}
		}
	}
	return 0, 0, false
}

func (b boardView) clamp(sel selection) selection {
	if len(b.cols) == 0 {
		return selection{Col: 0, Row: -1}
	}

	// Prefer stable selection by id when the task is still on the board.
	if ci, ri, ok := b.indexOfTaskID(sel.TaskID); ok {
		sel.Col = ci
		sel.Row = ri
	} else {
		sel.TaskID = ""
	}

	if sel.Col < 0 {
		sel.Col = 0
	}
	if sel.Col >= len(b.cols) {
		sel.Col = len(b.cols) - 1
	}

	n := len(b.cols[sel.Col].tasks)
	if n == 0 {
		sel.Row = -1
		return sel
	}
	if sel.Row < 0 {
		sel.Row = 0
	}
	if sel.Row >= n {
		sel.Row = n - 1
	}
	sel.TaskID = b.cols[sel.Col].tasks[sel.Row].ID
	return sel
}

func (b boardView) selected(sel selection) (board.Task, bool) {
	sel = b.clamp(sel)
	if sel.Col < 0 || sel.Col >= len(b.cols) {
		return board.Task{}, false
	}
	if sel.Row < 0 || sel.Row >= len(b.cols[sel.Col].tasks) {
		return board.Task{}, false
	}
	return b.cols[sel.Col].tasks[sel.Row], true
}

// columnIDs returns the id sequence of column ci, already sorted by order.
func (b boardView) columnIDs(ci int) []string {
	if ci < 0 || ci >= len(b.cols) {
		return nil
	}
	ids := make([]string, 0, len(b.cols[ci].tasks))
	for _, t := range b.cols[ci].tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func (b boardView) taskCount() int {
	n := 0
	for _, c := range b.cols {
		n += len(c.tasks)
	}
	return n
}
