package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"kanban-cli/internal/backend"
)

// Run starts the interactive board on the resolved backend and blocks until
// the user quits.
func Run(store *backend.Facade) error {
	// The darkmode setting steers the palette; fetch it before first paint.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	st, err := store.Settings(ctx)
	cancel()
	if err == nil {
		applyTheme(st.Darkmode)
	}

	_, err = tea.NewProgram(newModel(store), tea.WithAltScreen()).Run()
	return err
}
