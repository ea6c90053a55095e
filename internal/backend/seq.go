package backend

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"kanban-cli/internal/board"
)

// Task ids look like K-001, K-042, K-1337. The pad width stays at three
// digits and grows naturally for wider numbers.

var idPattern = regexp.MustCompile(`^K-(\d+)$`)

// FormatID renders a counter value as a task id.
func FormatID(n int) string {
	return fmt.Sprintf("K-%03d", n)
}

// ParseID extracts the numeric suffix of a task id. Ids outside the K-digits
// shape report ok=false.
func ParseID(id string) (n int, ok bool) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxID scans tasks for the highest numeric id suffix, tolerating foreign or
// hand-edited ids. Stores that lost their counter record heal from this.
func MaxID(tasks []board.Task) int {
	max := 0
	for _, t := range tasks {
		if n, ok := ParseID(t.ID); ok && n > max {
			max = n
		}
	}
	return max
}

// compareIDs orders ids numerically when both parse, lexically otherwise,
// giving batch results a stable sequence.
func compareIDs(a, b string) int {
	na, oka := ParseID(a)
	nb, okb := ParseID(b)
	if oka && okb {
		return na - nb
	}
	return strings.Compare(a, b)
}
