package cli

import (
	"github.com/spf13/cobra"
)

func newTagsCmd(app *App) *cobra.Command {
	suggestions := newTagsSuggestionsCmd(app)
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag utilities",
		Args:  cobra.NoArgs,
		// Bare `kanban tags` means suggestions.
		RunE: suggestions.RunE,
	}
	cmd.AddCommand(suggestions)
	return cmd
}

func newTagsSuggestionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "suggestions",
		Short:   "List every tag in use, sorted",
		Aliases: []string{"list", "ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tags, err := f.TagSuggestions(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": tags})
		},
	}
	return cmd
}
