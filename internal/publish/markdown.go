package publish

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"kanban-cli/internal/board"
)

var statusTitles = map[board.Status]string{
	board.StatusTodo:       "To Do",
	board.StatusInProgress: "In Progress",
	board.StatusDone:       "Done",
}

// RenderBoardMarkdown lays the whole board out as one markdown document:
// a section per column, a checkbox line per task. Done tasks render checked
// with their closing date.
func RenderBoardMarkdown(doc board.Board, renderedAt time.Time) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + boardTitle(doc.Settings))
	writeLn("")
	writeLn(fmt.Sprintf("%d tasks · exported %s", len(doc.Tasks), renderedAt.UTC().Format(time.RFC3339)))

	cols := board.ByStatus(doc.Tasks)
	for _, s := range board.Statuses {
		tasks := cols[s]
		writeLn("")
		writeLn(fmt.Sprintf("## %s (%d)", statusTitles[s], len(tasks)))
		if len(tasks) == 0 {
			continue
		}
		writeLn("")
		for _, t := range tasks {
			writeLn(taskLine(t))
			for _, extra := range continuationLines(t.Text) {
				writeLn("  " + extra)
			}
		}
	}

	return buf.String()
}

func boardTitle(s board.Settings) string {
	if v, ok := s.Extra["board_title"].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return "Backlog"
}

func taskLine(t board.Task) string {
	box := "[ ]"
	if t.Status == board.StatusDone {
		box = "[x]"
	}

	line := "- " + box + " **" + t.ID + "**"
	if first := firstLine(t.Text); first != "" {
		line += " " + first
	}
	if t.Type != "" && t.Type != board.TypeFeature {
		line += " _" + string(t.Type) + "_"
	}
	if len(t.Tags) > 0 {
		tags := make([]string, 0, len(t.Tags))
		for _, tag := range t.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			tags = append(tags, "#"+tag)
		}
		sort.Strings(tags)
		if len(tags) > 0 {
			line += " " + strings.Join(tags, " ")
		}
	}
	if t.Status == board.StatusDone && t.ClosedAt != "" {
		line += " (closed " + closedDate(t.ClosedAt) + ")"
	}
	return line
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return text
}

// continuationLines returns the lines after the first, indented by the
// caller so multi-line text stays inside its list item.
func continuationLines(text string) []string {
	text = strings.TrimSpace(text)
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return nil
	}
	rest := strings.Split(strings.TrimSpace(text[i+1:]), "\n")
	out := make([]string, 0, len(rest))
	for _, ln := range rest {
		out = append(out, strings.TrimRight(ln, " \t"))
	}
	return out
}

func closedDate(stamp string) string {
	if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
		return ts.UTC().Format("2006-01-02")
	}
	return stamp
}
