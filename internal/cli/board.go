package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"kanban-cli/internal/board"
	"kanban-cli/internal/perm"
	"kanban-cli/internal/publish"
)

func newBoardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage the linked board directory",
	}
	cmd.AddCommand(newBoardLinkCmd(app))
	cmd.AddCommand(newBoardUnlinkCmd(app))
	cmd.AddCommand(newBoardStatusCmd(app))
	cmd.AddCommand(newBoardExportCmd(app))
	return cmd
}

func newBoardLinkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <dir>",
		Short: "Grant access to a directory and keep the board file there",
		Long: `Link a directory as the board's home. The grant is remembered, so later
invocations (and the TUI and web UI) pick the directory up without asking
again. Unset the link with "kanban board unlink".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := grantManager(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			g, err := mgr.Grant(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"path":      g.Path,
					"boardFile": mgr.BoardPath(g),
					"grantedAt": g.GrantedAt,
				},
			})
		},
	}
	return cmd
}

func newBoardUnlinkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlink",
		Short: "Forget the directory grant (files stay in place)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := grantManager(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, ok, err := mgr.Stored(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			} else if !ok {
				return writeErr(cmd, errors.New("no board directory linked"))
			}
			if err := mgr.Revoke(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"unlinked": true},
			})
		},
	}
	return cmd
}

func newBoardStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the linked directory and whether it is still usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := grantManager(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			g, ok, err := mgr.Stored(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeOut(cmd, app, map[string]any{
					"data": map[string]any{"linked": false},
				})
			}
			out := map[string]any{
				"linked":    true,
				"path":      g.Path,
				"boardFile": mgr.BoardPath(g),
				"grantedAt": g.GrantedAt,
				"writable":  true,
			}
			if err := mgr.Verify(g); err != nil {
				out["writable"] = false
				out["problem"] = err.Error()
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	return cmd
}

func newBoardExportCmd(app *App) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the board as a markdown document (default backlog.md)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := f.GetAll(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			settings, err := f.Settings(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			path := "backlog.md"
			if len(args) == 1 {
				path = args[0]
			}
			res, err := publish.WriteBoard(board.Board{Settings: settings, Tasks: tasks}, path, publish.WriteOptions{
				Overwrite: overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing file")
	return cmd
}

func grantManager(app *App) (*perm.Manager, error) {
	kv, err := appKV(app)
	if err != nil {
		return nil, err
	}
	return perm.NewManager(kv, stdinPrompter{assumeYes: app.Yes}), nil
}
