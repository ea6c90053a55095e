package format

import (
	"bytes"
	"strings"
	"testing"

	"kanban-cli/internal/board"
)

func TestWrite_JSONDefault(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"ok": true}, "", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"ok":true}` {
		t.Fatalf("output = %q", got)
	}
}

func TestWrite_JSONPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"ok": true}, "json", true); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"ok\": true") {
		t.Fatalf("output not indented: %q", buf.String())
	}
}

func TestWrite_YAMLUsesBoardFieldNames(t *testing.T) {
	var buf bytes.Buffer
	task := board.Task{ID: "K-001", Text: "yaml out", Status: board.StatusTodo, CreatedAt: "2024-03-01T12:00:00Z"}
	if err := Write(&buf, task, "yaml", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: K-001", "created_at:", "status: todo"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_UnknownFormatFails(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, 1, "toml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
