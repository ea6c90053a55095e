package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"kanban-cli/internal/backend"
	"kanban-cli/internal/perm"
	"kanban-cli/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "serve [board-file]",
		Short: "Serve the web board UI and JSON API",
		Long: strings.TrimSpace(`
Serve the board over HTTP: a server-rendered web UI plus the JSON API under
/api that remote kanban clients talk to.

Without arguments the board comes from the detected storage backend. With a
board file argument that file is served directly, leaving the linked
directory untouched.
`),
		Example: strings.TrimSpace(`
# Serve the detected board on localhost
kanban serve --addr 127.0.0.1:8000

# Serve a specific board file
kanban serve ./backlog.yaml
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var f *backend.Facade
			var err error
			if len(args) == 1 {
				f, err = fileBackend(ctx, app, args[0])
			} else {
				f, err = loadFacade(ctx, app)
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			srv, err := server.New(f, appLogger(app))
			if err != nil {
				return writeErr(cmd, err)
			}

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			// The random_port setting picks a free port unless --addr pins one.
			if !cmd.Flags().Changed("addr") {
				if st, err := f.Settings(ctx); err == nil && st.RandomPort {
					listenAddr = "127.0.0.1:0"
				}
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			opened := false
			openErr := ""
			if open {
				if err := openPath(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}

			res := f.Resolution()
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"mode":      res.Mode,
					"reason":    res.Reason,
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})

			fmt.Fprintf(cmd.ErrOrStderr(), "Kanban board running at %s (mode=%s)\n", url, res.Mode)
			if openErr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", openErr)
			}

			return http.Serve(ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&open, "open", true, "Open the board in your default browser")
	return cmd
}

// fileBackend serves one explicitly named board file. Naming the file on
// the command line is the consent, so only file creation still asks; the
// grant lives in memory and never repoints other surfaces.
func fileBackend(ctx context.Context, app *App, path string) (*backend.Facade, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	mgr := perm.NewManager(&memStore{}, adhocPrompter{create: stdinPrompter{assumeYes: app.Yes}})
	mgr.BoardFile = filepath.Base(abs)
	if _, err := mgr.Grant(ctx, filepath.Dir(abs)); err != nil {
		return nil, err
	}
	return backend.NewFacade(backend.Resolution{
		Mode:    backend.ModeLocalDir,
		Backend: backend.NewLocalDir(mgr),
		Reason:  "file " + abs,
	}), nil
}

type adhocPrompter struct {
	create stdinPrompter
}

func (adhocPrompter) ConfirmGrant(string) bool { return true }

func (p adhocPrompter) ConfirmCreate(path string) bool {
	return p.create.ConfirmCreate(path)
}

// memStore holds a process-lifetime grant for ad-hoc boards.
type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]string{}
	}
	s.m[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func openPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("empty path")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path).Run()
	default:
		return exec.Command("xdg-open", path).Run()
	}
}
