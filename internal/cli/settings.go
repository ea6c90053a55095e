package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"kanban-cli/internal/board"
)

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change board settings",
	}
	cmd.AddCommand(newSettingsGetCmd(app))
	cmd.AddCommand(newSettingsSetCmd(app))
	return cmd
}

func newSettingsGetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show effective settings (defaults merged with stored values)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := f.Settings(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": s})
		},
	}
	return cmd
}

func newSettingsSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one setting",
		Example: `  kanban settings set darkmode true
  kanban settings set random_port false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			// Values parse as JSON where possible (true, 42, "x") and fall
			// back to the raw string, so quoting stays optional.
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}
			s, err := f.UpdateSettings(cmd.Context(), board.SettingsPatch{args[0]: value})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": s})
		},
	}
	return cmd
}
