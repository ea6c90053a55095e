// Package perm manages the capability grant behind the local-directory
// backend: a user-approved directory, persisted across sessions so a later
// process can restore access without re-prompting.
package perm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"kanban-cli/internal/board"
)

// ErrDenied reports a missing, declined, or revoked directory capability.
var ErrDenied = errors.New("directory permission denied")

// Grant is the persisted capability handle. Token gives the handle a stable
// identity across re-approvals of the same path.
type Grant struct {
	Path      string `json:"path"`
	Token     string `json:"token"`
	GrantedAt string `json:"grantedAt"`
}

// Store persists the grant across sessions. The local key-value store
// satisfies this.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Prompter obtains user consent where a silent check is not enough.
// Implementations may block awaiting interaction.
type Prompter interface {
	// ConfirmGrant asks for write access to dir.
	ConfirmGrant(dir string) bool
	// ConfirmCreate asks to create the board file at path.
	ConfirmCreate(path string) bool
}

// grantKey is the fixed slot the handle occupies in the store.
const grantKey = "dir_handle"

type Manager struct {
	Store    Store
	Prompter Prompter

	// BoardFile overrides the fixed board file name inside the granted
	// directory. Empty means the default.
	BoardFile string
}

func NewManager(store Store, prompter Prompter) *Manager {
	return &Manager{Store: store, Prompter: prompter}
}

func (m *Manager) boardFileName() string {
	if strings.TrimSpace(m.BoardFile) != "" {
		return m.BoardFile
	}
	return board.FileName
}

// BoardPath locates the fixed-name board file inside the granted directory.
func (m *Manager) BoardPath(g Grant) string {
	return filepath.Join(g.Path, m.boardFileName())
}

// Stored returns the persisted handle without verifying it.
func (m *Manager) Stored(ctx context.Context) (Grant, bool, error) {
	raw, ok, err := m.Store.Get(ctx, grantKey)
	if err != nil {
		return Grant{}, false, err
	}
	if !ok {
		return Grant{}, false, nil
	}
	var g Grant
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		// An unreadable handle counts as no handle.
		return Grant{}, false, nil
	}
	return g, true, nil
}

// Restore silently loads the persisted grant and verifies it still holds.
// A revoked or vanished grant reports ok=false; the handle stays on record
// so a later explicit request can target the same directory.
func (m *Manager) Restore(ctx context.Context) (Grant, bool, error) {
	g, ok, err := m.Stored(ctx)
	if err != nil || !ok {
		return Grant{}, false, err
	}
	if err := m.Verify(g); err != nil {
		return Grant{}, false, nil
	}
	return g, true, nil
}

// Verify checks that the granted directory still exists and accepts writes.
func (m *Manager) Verify(g Grant) error {
	dir := strings.TrimSpace(g.Path)
	if dir == "" {
		return ErrDenied
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s is not an accessible directory", ErrDenied, dir)
	}
	probe, err := os.CreateTemp(dir, ".kanban-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable", ErrDenied, dir)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// Grant runs the interactive flow for dir: consent, a writability check,
// and the fixed-name board file (created on approval when absent, aborting
// the connection when declined). The handle is persisted under its fixed
// key for later restores.
func (m *Manager) Grant(ctx context.Context, dir string) (Grant, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Grant{}, fmt.Errorf("%w: no directory named", ErrDenied)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Grant{}, err
	}
	if m.Prompter == nil || !m.Prompter.ConfirmGrant(abs) {
		return Grant{}, fmt.Errorf("%w: access to %s not granted", ErrDenied, abs)
	}
	g := Grant{
		Path:      abs,
		Token:     uuid.NewString(),
		GrantedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := m.Verify(g); err != nil {
		return Grant{}, err
	}
	if err := m.ensureBoardFile(g); err != nil {
		return Grant{}, err
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return Grant{}, err
	}
	if err := m.Store.Put(ctx, grantKey, string(raw)); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// EnsureWritable is the two-phase pre-mutation check: query the existing
// grant silently, then escalate to an explicit request when the silent
// check fails. With no handle on record there is nothing to request.
func (m *Manager) EnsureWritable(ctx context.Context) (Grant, error) {
	g, ok, err := m.Stored(ctx)
	if err != nil {
		return Grant{}, err
	}
	if !ok {
		return Grant{}, fmt.Errorf("%w: no directory grant on record", ErrDenied)
	}
	if err := m.Verify(g); err == nil {
		return g, nil
	}
	if m.Prompter == nil || !m.Prompter.ConfirmGrant(g.Path) {
		return Grant{}, fmt.Errorf("%w: access to %s not re-granted", ErrDenied, g.Path)
	}
	if err := m.Verify(g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// Revoke drops the persisted handle. The directory itself is untouched.
func (m *Manager) Revoke(ctx context.Context) error {
	return m.Store.Delete(ctx, grantKey)
}

func (m *Manager) ensureBoardFile(g Grant) error {
	path := m.BoardPath(g)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if m.Prompter == nil || !m.Prompter.ConfirmCreate(path) {
		return fmt.Errorf("%w: creation of %s declined", ErrDenied, path)
	}
	empty, err := board.EncodeBoard(board.Board{})
	if err != nil {
		return err
	}
	return os.WriteFile(path, empty, 0o644)
}
