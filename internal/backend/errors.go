package backend

import (
	"errors"
	"fmt"

	"kanban-cli/internal/board"
	"kanban-cli/internal/perm"
)

// Error taxonomy shared by every backend. Callers branch with errors.Is.
var (
	// ErrNotFound reports an unknown task id on a single update.
	ErrNotFound = errors.New("task not found")

	// ErrReadOnly reports a mutation attempted against a read-only board.
	ErrReadOnly = errors.New("board is read-only")

	// ErrUnavailable reports a remote service that failed or timed out its
	// reachability probe. Never fatal: the detector falls through to the
	// next tier.
	ErrUnavailable = errors.New("remote backend unavailable")
)

// ErrPermissionDenied reports a missing, declined, or revoked directory
// capability. Defined by the permission manager; re-exported here so the
// whole taxonomy is checkable from one place.
var ErrPermissionDenied = perm.ErrDenied

// ErrMalformedBoard reports a persisted board document that does not parse
// into the settings+tasks shape. Re-exported from the board codec.
var ErrMalformedBoard = board.ErrMalformed

// NotFoundError carries the offending id and matches ErrNotFound.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
