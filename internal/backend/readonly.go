package backend

import (
	"context"

	"kanban-cli/internal/board"
)

// ReadOnly serves a snapshot fetched once at startup. Reads come from
// memory; every mutator rejects with ErrReadOnly and touches nothing.
type ReadOnly struct {
	doc board.Board
}

func NewReadOnly(doc board.Board) *ReadOnly {
	return &ReadOnly{doc: doc.Clone()}
}

func (b *ReadOnly) Mode() Mode { return ModeReadOnly }

func (b *ReadOnly) GetAll(context.Context) ([]board.Task, error) {
	out := make([]board.Task, len(b.doc.Tasks))
	for i, t := range b.doc.Tasks {
		out[i] = t.Clone()
	}
	return out, nil
}

func (b *ReadOnly) Create(context.Context, board.TaskDraft) (board.Task, error) {
	return board.Task{}, ErrReadOnly
}

func (b *ReadOnly) Update(context.Context, string, board.TaskPatch) (board.Task, error) {
	return board.Task{}, ErrReadOnly
}

func (b *ReadOnly) BatchUpdate(context.Context, map[string]board.TaskPatch) ([]board.Task, error) {
	return nil, ErrReadOnly
}

func (b *ReadOnly) Delete(context.Context, string) (bool, error) {
	return false, ErrReadOnly
}

func (b *ReadOnly) TagSuggestions(context.Context) ([]string, error) {
	return board.TagUnion(b.doc.Tasks), nil
}

func (b *ReadOnly) Settings(context.Context) (board.Settings, error) {
	return b.doc.Settings.Clone(), nil
}

func (b *ReadOnly) UpdateSettings(context.Context, board.SettingsPatch) (board.Settings, error) {
	return board.Settings{}, ErrReadOnly
}
