package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"kanban-cli/internal/board"
)

// LocalKV keeps the whole board as JSON values in the embedded key-value
// store. It mirrors web local-storage semantics: always available, nothing
// to acquire, terminal fallback of the detector.
type LocalKV struct {
	kv  KV
	now func() time.Time
}

// OpenLocalKV readies the store. A store without a counter record self-heals
// it from the highest existing id, once per open, so externally edited data
// cannot make the generator repeat ids.
func OpenLocalKV(ctx context.Context, kv KV) (*LocalKV, error) {
	b := &LocalKV{kv: kv, now: time.Now}
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		_, ok, err := kvGet(ctx, tx, kvKeyLastID)
		if err != nil || ok {
			return err
		}
		tasks, err := readStoredTasks(ctx, tx)
		if err != nil {
			return err
		}
		return kvPut(ctx, tx, kvKeyLastID, strconv.Itoa(MaxID(tasks)))
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *LocalKV) Mode() Mode { return ModeLocalKV }

func (b *LocalKV) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := b.kv.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *LocalKV) GetAll(ctx context.Context) ([]board.Task, error) {
	var out []board.Task
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		tasks, err := readStoredTasks(ctx, tx)
		if err != nil {
			return err
		}
		out = tasks
		return nil
	})
	return out, err
}

func (b *LocalKV) Create(ctx context.Context, draft board.TaskDraft) (board.Task, error) {
	var created board.Task
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		tasks, err := readStoredTasks(ctx, tx)
		if err != nil {
			return err
		}
		last, err := readCounter(ctx, tx, tasks)
		if err != nil {
			return err
		}
		next := last + 1
		created = board.NewTask(FormatID(next), draft, b.now())
		tasks = append(tasks, created)
		if err := writeStoredTasks(ctx, tx, tasks); err != nil {
			return err
		}
		return kvPut(ctx, tx, kvKeyLastID, strconv.Itoa(next))
	})
	return created, err
}

func (b *LocalKV) Update(ctx context.Context, id string, patch board.TaskPatch) (board.Task, error) {
	var updated board.Task
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		tasks, err := readStoredTasks(ctx, tx)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(tasks, func(t board.Task) bool { return t.ID == id })
		if i < 0 {
			return &NotFoundError{ID: id}
		}
		patch.Apply(&tasks[i], b.now())
		updated = tasks[i].Clone()
		return writeStoredTasks(ctx, tx, tasks)
	})
	return updated, err
}

func (b *LocalKV) BatchUpdate(ctx context.Context, patches map[string]board.TaskPatch) ([]board.Task, error) {
	var out []board.Task
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		tasks, err := readStoredTasks(ctx, tx)
		if err != nil {
			return err
		}
		now := b.now()
		out = out[:0]
		for i := range tasks {
			patch, ok := patches[tasks[i].ID]
			if !ok {
				continue
			}
			patch.Apply(&tasks[i], now)
			out = append(out, tasks[i].Clone())
		}
		if len(out) == 0 {
			return nil
		}
		slices.SortFunc(out, func(a, c board.Task) int { return compareIDs(a.ID, c.ID) })
		return writeStoredTasks(ctx, tx, tasks)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []board.Task{}
	}
	return out, nil
}

func (b *LocalKV) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		tasks, err := readStoredTasks(ctx, tx)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(tasks, func(t board.Task) bool { return t.ID == id })
		if i < 0 {
			return nil
		}
		removed = true
		tasks = append(tasks[:i], tasks[i+1:]...)
		return writeStoredTasks(ctx, tx, tasks)
	})
	return removed, err
}

func (b *LocalKV) TagSuggestions(ctx context.Context) ([]string, error) {
	tasks, err := b.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return board.TagUnion(tasks), nil
}

func (b *LocalKV) Settings(ctx context.Context) (board.Settings, error) {
	var out board.Settings
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		s, err := readStoredSettings(ctx, tx)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

func (b *LocalKV) UpdateSettings(ctx context.Context, patch board.SettingsPatch) (board.Settings, error) {
	var out board.Settings
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		s, err := readStoredSettings(ctx, tx)
		if err != nil {
			return err
		}
		patch.Apply(&s)
		raw, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if err := kvPut(ctx, tx, kvKeySettings, string(raw)); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

func readStoredTasks(ctx context.Context, q querier) ([]board.Task, error) {
	raw, ok, err := kvGet(ctx, q, kvKeyTasks)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []board.Task{}, nil
	}
	var tasks []board.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("%w: stored task collection: %v", ErrMalformedBoard, err)
	}
	if tasks == nil {
		tasks = []board.Task{}
	}
	return tasks, nil
}

func writeStoredTasks(ctx context.Context, q querier, tasks []board.Task) error {
	raw, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return kvPut(ctx, q, kvKeyTasks, string(raw))
}

func readStoredSettings(ctx context.Context, q querier) (board.Settings, error) {
	raw, ok, err := kvGet(ctx, q, kvKeySettings)
	if err != nil {
		return board.Settings{}, err
	}
	if !ok {
		return board.DefaultSettings(), nil
	}
	var s board.Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return board.Settings{}, fmt.Errorf("%w: stored settings: %v", ErrMalformedBoard, err)
	}
	return s, nil
}

// readCounter prefers the persisted record and falls back to an id scan for
// stores whose record disappeared mid-run.
func readCounter(ctx context.Context, q querier, tasks []board.Task) (int, error) {
	raw, ok, err := kvGet(ctx, q, kvKeyLastID)
	if err != nil {
		return 0, err
	}
	if ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n, nil
		}
	}
	return MaxID(tasks), nil
}
