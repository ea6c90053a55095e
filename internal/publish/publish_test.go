package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kanban-cli/internal/board"
)

func exportFixture() board.Board {
	return board.Board{
		Settings: board.Settings{Extra: map[string]any{"board_title": "Sprint 12"}},
		Tasks: []board.Task{
			{ID: "K-002", Text: "Fix login\nCheck the session cookie too.", Status: board.StatusDone, Order: 0, Type: board.TypeBug, Tags: []string{"auth"}, ClosedAt: "2026-08-20T09:30:00Z"},
			{ID: "K-001", Text: "Ship the thing", Status: board.StatusTodo, Order: 2, Tags: []string{"web", "infra"}},
			{ID: "K-003", Text: "Spike caching", Status: board.StatusTodo, Order: 0, Type: board.TypeFeature},
		},
	}
}

func TestRenderBoardMarkdown(t *testing.T) {
	at := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	md := RenderBoardMarkdown(exportFixture(), at)

	for _, want := range []string{
		"# Sprint 12",
		"3 tasks · exported 2026-08-21T12:00:00Z",
		"## To Do (2)",
		"## In Progress (0)",
		"## Done (1)",
		"- [ ] **K-003** Spike caching",
		"- [ ] **K-001** Ship the thing #infra #web",
		"- [x] **K-002** Fix login _bug_ #auth (closed 2026-08-20)",
		"  Check the session cookie too.",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in:\n%s", want, md)
		}
	}

	// Column order: To Do sorted by order, K-003 (order 0) before K-001 (order 2).
	if strings.Index(md, "K-003") > strings.Index(md, "K-001") {
		t.Fatalf("todo tasks not sorted by order:\n%s", md)
	}
}

func TestRenderBoardMarkdownDefaultTitle(t *testing.T) {
	md := RenderBoardMarkdown(board.Board{}, time.Now())
	if !strings.HasPrefix(md, "# Backlog\n") {
		t.Fatalf("expected default title:\n%s", md)
	}
	if !strings.Contains(md, "0 tasks") {
		t.Fatalf("expected task count:\n%s", md)
	}
}

func TestWriteBoardOverwriteGuard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "board.md")

	res, err := WriteBoard(exportFixture(), path, WriteOptions{})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	if len(res.Written) != 1 || res.Written[0] != path {
		t.Fatalf("written = %v", res.Written)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), "# Sprint 12") {
		t.Fatalf("export content:\n%s", b)
	}

	if _, err := WriteBoard(exportFixture(), path, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite guard, got %v", err)
	}
	if _, err := WriteBoard(exportFixture(), path, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("WriteBoard (overwrite): %v", err)
	}
}
