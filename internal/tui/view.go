package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kanban-cli/internal/board"
)

func lipglossBold(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if !m.loaded {
		return "Loading board…"
	}

	if m.modal != modalNone {
		return m.viewModal()
	}
	if m.view == viewPreview {
		return m.viewPreview()
	}
	return m.viewBoard()
}

func (m Model) viewBoard() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	bodyH := m.height - 3
	if bodyH < 1 {
		bodyH = 1
	}
	cols := renderColumns(m.board, m.sel, m.carrying, m.width, bodyH)

	return strings.Join([]string{header, cols, footer}, "\n")
}

func (m Model) renderHeader() string {
	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccentFg).
		Background(colorAccent).
		Padding(0, 1).
		Render("Kanban")

	mode := styleMuted().Render(" " + string(m.store.Mode()))
	lock := ""
	if m.readOnly() {
		lock = lipgloss.NewStyle().Foreground(colorDanger).Render("  read-only")
	}

	left := badge + mode + lock

	right := ""
	if m.flashText != "" {
		st := lipgloss.NewStyle().Foreground(colorOK).Bold(true)
		if m.flashErr {
			st = st.Foreground(colorDanger)
		}
		right = st.Render(m.flashText)
	}

	leftW := lipgloss.Width(left)
	rightW := lipgloss.Width(right)
	pad := m.width - leftW - rightW
	if pad < 1 {
		pad = 1
	}
	return normalizePane(left+strings.Repeat(" ", pad)+right, m.width, 1)
}

func (m Model) renderFooter() string {
	var help string
	switch {
	case m.readOnly():
		help = "←↓↑→/hjkl: select   enter: view   r: refresh   q: quit"
	case m.carrying:
		help = "←↓↑→/hjkl: move card   space: drop   esc: cancel"
	default:
		help = "←↓↑→/hjkl: select   space: grab   enter: view   a: add   e: edit   t: tags   x: delete   q: quit"
	}
	return normalizePane(styleMuted().Render(help), m.width, 1)
}

func renderColumns(b boardView, sel selection, carrying bool, width, height int) string {
	n := len(b.cols)
	if n == 0 {
		return normalizePane("", width, height)
	}
	sel = b.clamp(sel)

	gap := 2
	avail := width - gap*(n-1)
	if avail < n {
		avail = n
	}
	colW := avail / n
	if colW < 10 {
		colW = 10
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerSelectedStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	muted := styleMuted()

	// Whitespace defines the card, not borders; stacked borders read like a
	// continuous list.
	itemStyle := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	itemInnerW := colW - 2
	if itemInnerW < 0 {
		itemInnerW = 0
	}

	renderCard := func(col boardColumn, t board.Task, selected bool) string {
		selBg := colorSelectedBg
		selFg := colorSelectedFg
		if carrying {
			selBg = colorAccent
			selFg = colorAccentFg
		}

		idStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
		metaStyle := muted
		textStyle := lipgloss.NewStyle().Foreground(colorSurfaceFg)
		if col.status == board.StatusDone && !selected {
			textStyle = textStyle.Foreground(colorMuted).Strikethrough(true)
		}
		if selected {
			idStyle = idStyle.Foreground(selFg).Background(selBg)
			metaStyle = metaStyle.Background(selBg)
			textStyle = textStyle.Foreground(selFg).Background(selBg)
		}

		metaPlain := t.ID
		if t.Type != "" {
			metaPlain += " · " + string(t.Type)
		}
		meta := idStyle.Render(t.ID)
		if rest := strings.TrimPrefix(truncateText(metaPlain, itemInnerW), t.ID); rest != "" {
			meta += metaStyle.Render(rest)
		}

		// Cards show the first text line only; the preview has the rest.
		first := t.Text
		if i := strings.IndexByte(first, '\n'); i >= 0 {
			first = first[:i]
		}
		textLines := wrapText(first, itemInnerW)
		if len(textLines) > 3 {
			textLines = textLines[:3]
			textLines[2] = truncateText(textLines[2]+"…", itemInnerW)
		}

		content := make([]string, 0, len(textLines)+2)
		content = append(content, meta)
		for _, ln := range textLines {
			content = append(content, textStyle.Render(ln))
		}
		if len(t.Tags) > 0 {
			content = append(content, metaStyle.Render(truncateText("#"+strings.Join(t.Tags, " #"), itemInnerW)))
		}

		inner := normalizePane(strings.Join(content, "\n"), itemInnerW, 0)
		if selected {
			return itemStyle.Background(selBg).Render(inner)
		}
		return itemStyle.Render(inner)
	}

	renderCol := func(ci int, c boardColumn) string {
		head := truncateText(fmt.Sprintf("%s (%d)", c.title, len(c.tasks)), colW)
		hs := headerStyle
		if ci == sel.Col {
			hs = headerSelectedStyle
		}
		lines := []string{hs.Width(colW).Render(head)}

		if len(c.tasks) == 0 {
			lines = append(lines, muted.Render("(empty)"))
			return normalizePane(strings.Join(lines, "\n"), colW, height)
		}

		lines = append(lines, "")
		for i, t := range c.tasks {
			card := renderCard(c, t, ci == sel.Col && i == sel.Row)
			lines = append(lines, strings.Split(card, "\n")...)
			if i < len(c.tasks)-1 {
				sepW := colW - 2
				if sepW < 0 {
					sepW = 0
				}
				lines = append(lines, muted.Render(" "+strings.Repeat("─", sepW)+" "))
			}
		}
		return normalizePane(strings.Join(lines, "\n"), colW, height)
	}

	rendered := make([]string, 0, n)
	for i, c := range b.cols {
		rendered = append(rendered, renderCol(i, c))
	}

	// JoinHorizontal doesn't provide inter-column spacing; insert gaps by hand.
	out := rendered[0]
	sep := strings.Repeat(" ", gap)
	for i := 1; i < len(rendered); i++ {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, rendered[i])
	}

	return normalizePane(out, width, height)
}

func (m Model) viewPreview() string {
	header := m.renderHeader()
	footer := normalizePane(styleMuted().Render("↓↑/jk: scroll   esc: back   q: back"), m.width, 1)

	bodyH := m.height - 3
	if bodyH < 1 {
		bodyH = 1
	}
	body := normalizePane(m.preview.View(), m.width, bodyH)

	return strings.Join([]string{header, body, footer}, "\n")
}

func (m Model) viewModal() string {
	var box string
	switch m.modal {
	case modalAdd:
		status := board.StatusTodo
		if m.sel.Col >= 0 && m.sel.Col < len(m.board.cols) {
			status = m.board.cols[m.sel.Col].status
		}
		box = renderInputModal(m.width, "Add to "+columnTitles[status], m.input.View())
	case modalEdit:
		box = renderInputModal(m.width, "Edit "+m.modalForID, m.input.View())
	case modalTags:
		box = renderInputModal(m.width, "Tags for "+m.modalForID, m.input.View())
	case modalConfirmDelete:
		box = renderConfirmModal(m.width, "Delete "+m.modalForID,
			"Delete this task? There is no undo.", "Delete", "Cancel", m.confirmFocus)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func modalBodyWidth(width int) int {
	w := width - 12
	if w > 56 {
		w = 56
	}
	if w < 24 {
		w = 24
	}
	return w
}

func renderModalBox(width int, title string, content string) string {
	bodyW := modalBodyWidth(width)

	titleBar := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Width(bodyW).
		Padding(0, 1).
		Render(truncateText(title, bodyW-2))

	body := lipgloss.NewStyle().
		Width(bodyW).
		Padding(0, 1).
		Render(content)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Render(titleBar + "\n\n" + body)
}

func renderInputModal(width int, title string, inputView string) string {
	bodyW := modalBodyWidth(width)
	help := styleMuted().Width(bodyW).Render("enter: save   esc/ctrl+g: cancel")
	return renderModalBox(width, title, inputView+"\n\n"+help)
}

func renderConfirmModal(width int, title string, body string, confirmLabel string, cancelLabel string, focus confirmModalFocus) string {
	// Avoid borders here: some terminals show background artifacts when nesting bordered
	// components inside a modal with a background color.
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm := btnBase.Render(confirmLabel)
	cancel := btnBase.Render(cancelLabel)
	if focus == confirmFocusConfirm {
		confirm = btnActive.Render(confirmLabel)
	}
	if focus == confirmFocusCancel {
		cancel = btnActive.Render(cancelLabel)
	}

	sep := lipgloss.NewStyle().Background(colorControlBg).Render(" ")
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, sep, cancel)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Width(bodyW).Render("tab: focus   y: confirm   enter: select   esc/ctrl+g: cancel")

	content := strings.Join([]string{
		body,
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, title, content)
}
