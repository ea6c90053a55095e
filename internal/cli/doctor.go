package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"kanban-cli/internal/backend"
)

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Probe every storage mode and report what works",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := appKV(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			report := backend.Diagnose(cmd.Context(), backend.Options{
				Snapshot: app.Snapshot,
				Server:   app.Server,
				KV:       kv,
				Prompter: stdinPrompter{assumeYes: app.Yes},
			})
			if err := writeOut(cmd, app, map[string]any{
				"data": report,
				"meta": map[string]any{"failures": report.Failures()},
			}); err != nil {
				return err
			}
			if fail && report.Failures() > 0 {
				return errors.New("doctor found failing checks")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit non-zero when a check fails")
	return cmd
}
