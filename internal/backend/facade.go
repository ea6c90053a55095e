package backend

import (
	"context"
	"sync"

	"kanban-cli/internal/board"
)

// Facade serializes access to the resolved backend. The HTTP handlers, the
// websocket notifier, and the TUI refresh loop all share one Facade, so a
// reorder batch is never interleaved with another mutation.
type Facade struct {
	mu  sync.Mutex
	res Resolution
}

func NewFacade(res Resolution) *Facade {
	return &Facade{res: res}
}

// Resolution reports how the backing store was chosen. It never changes
// after construction.
func (f *Facade) Resolution() Resolution { return f.res }

func (f *Facade) Mode() Mode { return f.res.Mode }

func (f *Facade) GetAll(ctx context.Context) ([]board.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.GetAll(ctx)
}

func (f *Facade) Create(ctx context.Context, draft board.TaskDraft) (board.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.Create(ctx, draft)
}

func (f *Facade) Update(ctx context.Context, id string, patch board.TaskPatch) (board.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.Update(ctx, id, patch)
}

func (f *Facade) BatchUpdate(ctx context.Context, patches map[string]board.TaskPatch) ([]board.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.BatchUpdate(ctx, patches)
}

func (f *Facade) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.Delete(ctx, id)
}

func (f *Facade) TagSuggestions(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.TagSuggestions(ctx)
}

func (f *Facade) Settings(ctx context.Context) (board.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.Settings(ctx)
}

func (f *Facade) UpdateSettings(ctx context.Context, patch board.SettingsPatch) (board.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res.Backend.UpdateSettings(ctx, patch)
}
