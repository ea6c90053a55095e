package backend

import (
	"testing"

	"kanban-cli/internal/board"
)

func TestFormatID_PadsToThreeDigits(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "K-001"},
		{42, "K-042"},
		{999, "K-999"},
		{1000, "K-1000"},
		{12345, "K-12345"},
	}
	for _, c := range cases {
		if got := FormatID(c.n); got != c.want {
			t.Errorf("FormatID(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestParseID_AcceptsAnyDigitWidth(t *testing.T) {
	cases := []struct {
		id string
		n  int
		ok bool
	}{
		{"K-001", 1, true},
		{"K-042", 42, true},
		{"K-1000", 1000, true},
		{"  K-007  ", 7, true},
		{"K-", 0, false},
		{"K-x1", 0, false},
		{"T-001", 0, false},
		{"001", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		n, ok := ParseID(c.id)
		if n != c.n || ok != c.ok {
			t.Errorf("ParseID(%q) = (%d, %v), want (%d, %v)", c.id, n, ok, c.n, c.ok)
		}
	}
}

func TestMaxID_IgnoresForeignIDs(t *testing.T) {
	tasks := []board.Task{
		{ID: "K-003"},
		{ID: "imported-task"},
		{ID: "K-017"},
		{ID: "K-beta"},
	}
	if got := MaxID(tasks); got != 17 {
		t.Fatalf("MaxID = %d, want 17", got)
	}
	if got := MaxID(nil); got != 0 {
		t.Fatalf("MaxID(nil) = %d, want 0", got)
	}
}

func TestCompareIDs_NumericThenLexical(t *testing.T) {
	if compareIDs("K-002", "K-010") >= 0 {
		t.Fatalf("K-002 should sort before K-010")
	}
	if compareIDs("K-010", "K-002") <= 0 {
		t.Fatalf("K-010 should sort after K-002")
	}
	if compareIDs("K-005", "K-005") != 0 {
		t.Fatalf("equal ids should compare 0")
	}
	// Foreign ids fall back to string order.
	if compareIDs("alpha", "beta") >= 0 {
		t.Fatalf("alpha should sort before beta")
	}
}
