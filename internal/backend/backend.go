// Package backend is the storage layer behind the board: one shared contract,
// four implementations with different capabilities, and the detector that
// decides once per process which of them is active.
package backend

import (
	"context"

	"kanban-cli/internal/board"
)

// Mode identifies the active storage implementation.
type Mode string

const (
	ModeReadOnly Mode = "readonly"
	ModeRemote   Mode = "remote"
	ModeLocalDir Mode = "localdir"
	ModeLocalKV  Mode = "localkv"
)

// Backend is the uniform storage contract. Implementations differ in medium
// and capability (networked, capability-scoped directory, embedded store,
// immutable snapshot) but expose identical semantics:
//
//   - Update fails ErrNotFound for an unknown id.
//   - BatchUpdate applies entries independently, silently skipping unknown
//     ids; results come back in ascending id order.
//   - Delete reports absence as success=false rather than an error.
//   - TagSuggestions is the sorted duplicate-free union across all tasks.
//   - UpdateSettings merges the patch over defaults and returns the result.
//
// A read-only implementation rejects every mutator with ErrReadOnly and
// performs no side effect.
type Backend interface {
	GetAll(ctx context.Context) ([]board.Task, error)
	Create(ctx context.Context, draft board.TaskDraft) (board.Task, error)
	Update(ctx context.Context, id string, patch board.TaskPatch) (board.Task, error)
	BatchUpdate(ctx context.Context, patches map[string]board.TaskPatch) ([]board.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	TagSuggestions(ctx context.Context) ([]string, error)
	Settings(ctx context.Context) (board.Settings, error)
	UpdateSettings(ctx context.Context, patch board.SettingsPatch) (board.Settings, error)
	Mode() Mode
}
