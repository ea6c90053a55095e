package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorSurfaceFg  = ac("#434343", "#cecece")
	colorMuted      = ac("#9e9e9e", "#626262")
	colorControlBg  = ac("#eeeeee", "#161616")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("#1a1a1a", "#f0f0f0")
	colorAccent     = ac("#325cc0", "#5f87d7")
	colorAccentFg   = ac("#ffffff", "#0f0f0f")
	colorDanger     = ac("#b4231f", "#ff7066")
	colorOK         = ac("#1d7d43", "#53d08a")
)

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}

// applyTheme pins the light/dark choice before the first render. The board's
// darkmode setting decides; KANBAN_TUI_THEME overrides it for terminals where
// background detection or the stored preference is wrong.
func applyTheme(darkmode bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("KANBAN_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	lipgloss.SetHasDarkBackground(darkmode)
}
