package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"kanban-cli/internal/board"
	"kanban-cli/internal/perm"
)

// Options configure mode detection. Snapshot and Server usually come from
// the saved Config; either may be overridden per invocation.
type Options struct {
	// Snapshot locates a read-only board snapshot, http(s) URL or file path.
	Snapshot string

	// Server is the remote API base URL.
	Server string

	// KV backs both the key-value fallback backend and grant persistence.
	KV KV

	// Prompter handles consent dialogs for the directory backend. Detection
	// itself never prompts; it only restores grants silently.
	Prompter perm.Prompter

	// Logger receives detection progress. Nil discards it.
	Logger *log.Logger
}

// Resolution is the outcome of detection, fixed for the process lifetime.
// Switching modes means restarting the process.
type Resolution struct {
	Mode    Mode
	Backend Backend

	// Reason is a short human-readable account of why this mode won.
	Reason string
}

// Resolve picks the storage backend, trying each candidate in a fixed order:
// a configured snapshot, then a reachable server, then a restorable directory
// grant, then the key-value store. A configured candidate that fails its
// check logs a warning and falls through to the next; the key-value store
// needs no precondition and terminates the chain.
func Resolve(ctx context.Context, opts Options) (Resolution, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if loc := strings.TrimSpace(opts.Snapshot); loc != "" {
		doc, err := fetchSnapshot(ctx, loc)
		if err == nil {
			logger.Info("serving read-only snapshot", "from", loc)
			return Resolution{
				Mode:    ModeReadOnly,
				Backend: NewReadOnly(doc),
				Reason:  fmt.Sprintf("snapshot %s", loc),
			}, nil
		}
		logger.Warn("snapshot unavailable, trying next mode", "from", loc, "err", err)
	}

	if base := strings.TrimSpace(opts.Server); base != "" {
		remote := NewRemote(base)
		h, err := remote.Probe(ctx)
		if err == nil {
			logger.Info("connected to server", "server", h.Server)
			return Resolution{
				Mode:    ModeRemote,
				Backend: remote,
				Reason:  fmt.Sprintf("server %s", base),
			}, nil
		}
		logger.Warn("server unreachable, trying next mode", "server", base, "err", err)
	}

	mgr := perm.NewManager(opts.KV, opts.Prompter)
	g, ok, err := mgr.Restore(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		logger.Info("restored board directory", "path", g.Path)
		return Resolution{
			Mode:    ModeLocalDir,
			Backend: NewLocalDir(mgr),
			Reason:  fmt.Sprintf("directory %s", g.Path),
		}, nil
	}

	b, err := OpenLocalKV(ctx, opts.KV)
	if err != nil {
		return Resolution{}, err
	}
	logger.Info("using local key-value store", "path", opts.KV.Path)
	return Resolution{
		Mode:    ModeLocalKV,
		Backend: b,
		Reason:  "key-value store",
	}, nil
}

// fetchSnapshot retrieves and decodes the board behind a locator. The fetch
// happens exactly once; the decoded document is the snapshot for the rest of
// the process.
func fetchSnapshot(ctx context.Context, loc string) (board.Board, error) {
	raw, err := fetchSnapshotBytes(ctx, loc)
	if err != nil {
		return board.Board{}, err
	}
	return board.DecodeBoard(raw)
}

func fetchSnapshotBytes(ctx context.Context, loc string) ([]byte, error) {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("snapshot fetch answered %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(loc)
}
