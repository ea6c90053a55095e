package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"kanban-cli/internal/board"
	"kanban-cli/internal/perm"
)

// LocalDir persists the board as the fixed-name file inside a user-granted
// directory. Every mutation reloads the file fresh, modifies it, and writes
// it back whole through an atomic rename; edits made by other programs
// between calls simply win or lose by timing (accepted race, no merging).
type LocalDir struct {
	mgr    *perm.Manager
	now    func() time.Time
	onSave func(path string)
}

func NewLocalDir(mgr *perm.Manager) *LocalDir {
	return &LocalDir{mgr: mgr, now: time.Now}
}

// OnSave registers an observer for successful board writes. The callback
// runs on the mutating call's goroutine with the path that was written.
func (b *LocalDir) OnSave(fn func(path string)) {
	b.onSave = fn
}

func (b *LocalDir) Mode() Mode { return ModeLocalDir }

// load restores the grant silently and reads the board file. A missing file
// loads as an empty board so a freshly linked directory works immediately.
func (b *LocalDir) load(ctx context.Context) (board.Board, perm.Grant, error) {
	g, ok, err := b.mgr.Restore(ctx)
	if err != nil {
		return board.Board{}, perm.Grant{}, err
	}
	if !ok {
		return board.Board{}, perm.Grant{}, perm.ErrDenied
	}
	return b.read(g)
}

func (b *LocalDir) read(g perm.Grant) (board.Board, perm.Grant, error) {
	data, err := os.ReadFile(b.mgr.BoardPath(g))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return board.Board{Tasks: []board.Task{}}, g, nil
		}
		return board.Board{}, perm.Grant{}, err
	}
	doc, err := board.DecodeBoard(data)
	if err != nil {
		return board.Board{}, perm.Grant{}, err
	}
	return doc, g, nil
}

// mutate runs the two-phase permission check, reloads the file fresh,
// applies fn, and writes the whole document back.
func (b *LocalDir) mutate(ctx context.Context, fn func(doc *board.Board) error) error {
	g, err := b.mgr.EnsureWritable(ctx)
	if err != nil {
		return err
	}
	doc, g, err := b.read(g)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	data, err := board.EncodeBoard(doc)
	if err != nil {
		return err
	}
	path := b.mgr.BoardPath(g)
	if err := atomicWriteFile(filepath.Dir(path), board.FileName+".*.tmp", path, data, 0o644); err != nil {
		return err
	}
	if b.onSave != nil {
		b.onSave(path)
	}
	return nil
}

func (b *LocalDir) GetAll(ctx context.Context) ([]board.Task, error) {
	doc, _, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

func (b *LocalDir) Create(ctx context.Context, draft board.TaskDraft) (board.Task, error) {
	var created board.Task
	err := b.mutate(ctx, func(doc *board.Board) error {
		// The file is the source of truth between calls, so the counter is
		// re-derived from its contents on every create.
		next := MaxID(doc.Tasks) + 1
		created = board.NewTask(FormatID(next), draft, b.now())
		doc.Tasks = append(doc.Tasks, created)
		return nil
	})
	return created, err
}

func (b *LocalDir) Update(ctx context.Context, id string, patch board.TaskPatch) (board.Task, error) {
	var updated board.Task
	err := b.mutate(ctx, func(doc *board.Board) error {
		t := doc.Find(id)
		if t == nil {
			return &NotFoundError{ID: id}
		}
		patch.Apply(t, b.now())
		updated = t.Clone()
		return nil
	})
	return updated, err
}

func (b *LocalDir) BatchUpdate(ctx context.Context, patches map[string]board.TaskPatch) ([]board.Task, error) {
	out := []board.Task{}
	err := b.mutate(ctx, func(doc *board.Board) error {
		now := b.now()
		for i := range doc.Tasks {
			patch, ok := patches[doc.Tasks[i].ID]
			if !ok {
				continue
			}
			patch.Apply(&doc.Tasks[i], now)
			out = append(out, doc.Tasks[i].Clone())
		}
		slices.SortFunc(out, func(a, c board.Task) int { return compareIDs(a.ID, c.ID) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *LocalDir) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := b.mutate(ctx, func(doc *board.Board) error {
		removed = doc.Remove(id)
		return nil
	})
	return removed, err
}

func (b *LocalDir) TagSuggestions(ctx context.Context) ([]string, error) {
	doc, _, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return board.TagUnion(doc.Tasks), nil
}

func (b *LocalDir) Settings(ctx context.Context) (board.Settings, error) {
	doc, _, err := b.load(ctx)
	if err != nil {
		return board.Settings{}, err
	}
	return doc.Settings, nil
}

func (b *LocalDir) UpdateSettings(ctx context.Context, patch board.SettingsPatch) (board.Settings, error) {
	var out board.Settings
	err := b.mutate(ctx, func(doc *board.Board) error {
		patch.Apply(&doc.Settings)
		out = doc.Settings.Clone()
		return nil
	})
	if err != nil {
		return board.Settings{}, err
	}
	return out, nil
}
