// Package reorder computes the order updates behind a card drop. It is pure
// state math so it can be exercised without any rendering surface.
package reorder

import (
	"errors"
	"strings"

	"kanban-cli/internal/board"
)

// Gap between consecutive order values in a column. Spacing leaves room for
// future fractional insertion schemes without renumbering neighbors.
const Gap = 2

// CardBounds is the vertical extent of one rendered card, top to bottom in
// the same coordinate space as the drop pointer.
type CardBounds struct {
	ID     string
	Top    float64
	Height float64
}

func (c CardBounds) midpoint() float64 {
	return c.Top + c.Height/2
}

// DropIndex scans siblings top to bottom and returns the index of the first
// card whose midpoint lies below the pointer. When none qualifies the drop
// lands at the tail.
func DropIndex(pointerY float64, siblings []CardBounds) int {
	for i, c := range siblings {
		if pointerY < c.midpoint() {
			return i
		}
	}
	return len(siblings)
}

// Plan is the batch update realizing one drop. Patches holds one entry per
// column member; only the moved task's entry may carry a status change, so
// status and order commit through a single batch call.
type Plan struct {
	Patches map[string]board.TaskPatch

	// FinalOrder is the column's id sequence after the drop.
	FinalOrder []string

	// Completed reports that the moved task just entered done.
	Completed bool
}

// PlanDrop reconstructs the target column with movedID spliced in at
// insertAt and assigns order = index * Gap to every member. columnIDs is the
// column's current sequence sorted by order; insertAt addresses positions in
// that sequence after the moved id is removed from it. from and to are the
// moved task's status and the target column's status.
func PlanDrop(columnIDs []string, movedID string, insertAt int, from, to board.Status) (Plan, error) {
	movedID = strings.TrimSpace(movedID)
	if movedID == "" {
		return Plan{}, errors.New("missing moved id")
	}

	rest := make([]string, 0, len(columnIDs))
	for _, id := range columnIDs {
		if id != movedID {
			rest = append(rest, id)
		}
	}
	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(rest) {
		insertAt = len(rest)
	}

	final := make([]string, 0, len(rest)+1)
	final = append(final, rest[:insertAt]...)
	final = append(final, movedID)
	final = append(final, rest[insertAt:]...)

	crossed := from != to
	plan := Plan{
		Patches:    make(map[string]board.TaskPatch, len(final)),
		FinalOrder: final,
		Completed:  crossed && to == board.StatusDone,
	}
	for i, id := range final {
		order := i * Gap
		p := board.TaskPatch{Order: &order}
		if id == movedID && crossed {
			status := to
			p.Status = &status
		}
		plan.Patches[id] = p
	}
	return plan, nil
}
