package cli

import (
	"github.com/spf13/cobra"
)

func newModeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show which storage backend this invocation resolved to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res := f.Resolution()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"mode":   res.Mode,
					"reason": res.Reason,
				},
			})
		},
	}
	return cmd
}
