package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"kanban-cli/internal/backend"
	"kanban-cli/internal/format"
	"kanban-cli/internal/gitrepo"
	"kanban-cli/internal/tui"
)

// App carries persistent flag state into every subcommand.
type App struct {
	Server     string
	Snapshot   string
	ConfigDir  string
	PrettyJSON bool
	Format     string
	Debug      bool
	Yes        bool

	// facade caches the resolved backend; mode detection runs at most once
	// per invocation.
	facade *backend.Facade

	// committer batches git autosync commits. Built on the first board save,
	// flushed when the command finishes.
	committer *gitrepo.Committer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "kanban",
		Short:        "Kanban board CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  kanban

  # Scriptable commands
  kanban tasks list

  # Serve the web board
  kanban serve

  # Direct task lookup (shortcut for: kanban tasks show <task-id>)
  kanban K-012
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			// One-shot commands exit before the autosync debounce fires.
			// Autosync trouble never fails the command that caused the save.
			_ = app.committer.Flush(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("KANBAN_SERVER", ""), "Remote API base URL (overrides the saved serverUrl)")
	cmd.PersistentFlags().StringVar(&app.Snapshot, "snapshot", envOr("KANBAN_SNAPSHOT", ""), "Read-only board snapshot, http(s) URL or file path (wins over --server)")
	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("KANBAN_CONFIG_DIR", ""), "Path to config dir (advanced: use only for fixtures/tests)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("KANBAN_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Log mode detection details to stderr")
	cmd.PersistentFlags().BoolVar(&app.Yes, "yes", false, "Assume yes for grant and create prompts")

	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newTagsCmd(app))
	cmd.AddCommand(newSettingsCmd(app))
	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newModeCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newDoctorCmd(app))

	return cmd
}

func runTUI(app *App) error {
	f, err := loadFacade(context.Background(), app)
	if err != nil {
		return err
	}
	return tui.Run(f)
}

// loadFacade runs mode detection once and pins the result for the rest of
// the invocation.
func loadFacade(ctx context.Context, app *App) (*backend.Facade, error) {
	if app.facade != nil {
		return app.facade, nil
	}
	kv, err := appKV(app)
	if err != nil {
		return nil, err
	}
	cfg, err := backend.LoadConfig()
	if err != nil {
		return nil, err
	}
	server := strings.TrimSpace(app.Server)
	if server == "" {
		server = cfg.ServerURL
	}
	snapshot := strings.TrimSpace(app.Snapshot)
	if snapshot == "" {
		snapshot = cfg.SnapshotURL
	}
	res, err := backend.Resolve(ctx, backend.Options{
		Snapshot: snapshot,
		Server:   server,
		KV:       kv,
		Prompter: stdinPrompter{assumeYes: app.Yes},
		Logger:   appLogger(app),
	})
	if err != nil {
		return nil, err
	}
	app.facade = backend.NewFacade(res)
	if cfg.GitAutosync {
		if ld, ok := res.Backend.(*backend.LocalDir); ok {
			// The board path is only known once a write lands, so the
			// committer is built on the first save. Saves are serialized by
			// the facade, which keeps this race-free.
			ld.OnSave(func(path string) {
				if app.committer == nil {
					app.committer = gitrepo.NewCommitter(gitrepo.CommitterOpts{
						Dir:  filepath.Dir(path),
						File: filepath.Base(path),
					})
				}
				app.committer.Notify()
			})
		}
	}
	return app.facade, nil
}

// appKV locates the shared key-value store, honoring --config-dir. The
// backend helpers read the environment, so the flag wins by setting it for
// this process.
func appKV(app *App) (backend.KV, error) {
	if dir := strings.TrimSpace(app.ConfigDir); dir != "" {
		if err := os.Setenv("KANBAN_CONFIG_DIR", dir); err != nil {
			return backend.KV{}, err
		}
	}
	path, err := backend.DefaultKVPath()
	if err != nil {
		return backend.KV{}, err
	}
	return backend.KV{Path: path}, nil
}

func appLogger(app *App) *log.Logger {
	level := log.WarnLevel
	if app.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "kanban",
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
