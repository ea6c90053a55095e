package reorder

import (
	"reflect"
	"testing"
	"time"

	"kanban-cli/internal/board"
)

func applyPlan(t *testing.T, tasks []board.Task, plan Plan) []board.Task {
	t.Helper()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	out := make([]board.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
		if p, ok := plan.Patches[task.ID]; ok {
			p.Apply(&out[i], now)
		}
	}
	return out
}

func columnIDs(tasks []board.Task, status board.Status) []string {
	cols := board.ByStatus(tasks)
	ids := make([]string, 0, len(cols[status]))
	for _, t := range cols[status] {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestPlanDrop_MoveFirstBetweenSecondAndThird(t *testing.T) {
	tasks := []board.Task{
		{ID: "K-001", Status: board.StatusTodo, Order: 0},
		{ID: "K-002", Status: board.StatusTodo, Order: 2},
		{ID: "K-003", Status: board.StatusTodo, Order: 4},
	}

	// Dropping K-001 between K-002 and K-003: after removal the column reads
	// [K-002, K-003], so the slot between them is index 1.
	plan, err := PlanDrop(columnIDs(tasks, board.StatusTodo), "K-001", 1, board.StatusTodo, board.StatusTodo)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}

	if got, want := plan.FinalOrder, []string{"K-002", "K-001", "K-003"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected final order %v, got %v", want, got)
	}

	after := applyPlan(t, tasks, plan)
	board.SortByOrder(after)
	got := []string{after[0].ID, after[1].ID, after[2].ID}
	want := []string{"K-002", "K-001", "K-003"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected column to read %v after drop, got %v", want, got)
	}
}

func TestPlanDrop_AssignsGapSpacedOrdersToWholeColumn(t *testing.T) {
	tasks := []board.Task{
		{ID: "K-001", Status: board.StatusTodo, Order: 7},
		{ID: "K-002", Status: board.StatusTodo, Order: 9},
		{ID: "K-003", Status: board.StatusTodo, Order: 30},
	}

	plan, err := PlanDrop(columnIDs(tasks, board.StatusTodo), "K-003", 0, board.StatusTodo, board.StatusTodo)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}

	if len(plan.Patches) != 3 {
		t.Fatalf("expected a patch for every column member, got %d", len(plan.Patches))
	}
	for i, id := range plan.FinalOrder {
		p := plan.Patches[id]
		if p.Order == nil || *p.Order != i*Gap {
			t.Fatalf("expected %s at order %d, got %#v", id, i*Gap, p.Order)
		}
	}
}

func TestPlanDrop_SamePositionPreservesSequence(t *testing.T) {
	tasks := []board.Task{
		{ID: "K-001", Status: board.StatusTodo, Order: 0},
		{ID: "K-002", Status: board.StatusTodo, Order: 2},
		{ID: "K-003", Status: board.StatusTodo, Order: 4},
	}

	// K-002 dropped back into its own slot.
	plan, err := PlanDrop(columnIDs(tasks, board.StatusTodo), "K-002", 1, board.StatusTodo, board.StatusTodo)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}

	after := applyPlan(t, tasks, plan)
	board.SortByOrder(after)
	got := []string{after[0].ID, after[1].ID, after[2].ID}
	want := []string{"K-001", "K-002", "K-003"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected relative sequence preserved, got %v", got)
	}
}

func TestPlanDrop_CrossColumnCarriesStatusOnMovedOnly(t *testing.T) {
	tasks := []board.Task{
		{ID: "K-001", Status: board.StatusTodo, Order: 0},
		{ID: "K-002", Status: board.StatusInProgress, Order: 0},
		{ID: "K-003", Status: board.StatusInProgress, Order: 2},
	}

	plan, err := PlanDrop(columnIDs(tasks, board.StatusInProgress), "K-001", 1, board.StatusTodo, board.StatusInProgress)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}

	moved := plan.Patches["K-001"]
	if moved.Status == nil || *moved.Status != board.StatusInProgress {
		t.Fatalf("expected status change on moved entry, got %#v", moved)
	}
	for _, id := range []string{"K-002", "K-003"} {
		if plan.Patches[id].Status != nil {
			t.Fatalf("expected no status change for sibling %s", id)
		}
	}

	after := applyPlan(t, tasks, plan)
	cols := board.ByStatus(after)
	got := []string{cols[board.StatusInProgress][0].ID, cols[board.StatusInProgress][1].ID, cols[board.StatusInProgress][2].ID}
	want := []string{"K-002", "K-001", "K-003"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected in_progress column %v, got %v", want, got)
	}
	if len(cols[board.StatusTodo]) != 0 {
		t.Fatalf("expected todo column drained, got %v", cols[board.StatusTodo])
	}
}

func TestPlanDrop_IntoDoneSetsCompleted(t *testing.T) {
	plan, err := PlanDrop(nil, "K-001", 0, board.StatusTodo, board.StatusDone)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}
	if !plan.Completed {
		t.Fatalf("expected completion signal for a drop into done")
	}

	same, err := PlanDrop([]string{"K-001"}, "K-001", 0, board.StatusDone, board.StatusDone)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}
	if same.Completed {
		t.Fatalf("expected no completion signal for a move within done")
	}
}

func TestPlanDrop_ClampsInsertionIndex(t *testing.T) {
	plan, err := PlanDrop([]string{"K-001", "K-002"}, "K-003", 99, board.StatusTodo, board.StatusTodo)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}
	if got, want := plan.FinalOrder, []string{"K-001", "K-002", "K-003"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected clamp to tail %v, got %v", want, got)
	}

	plan, err = PlanDrop([]string{"K-001", "K-002"}, "K-003", -5, board.StatusTodo, board.StatusTodo)
	if err != nil {
		t.Fatalf("PlanDrop: %v", err)
	}
	if got, want := plan.FinalOrder, []string{"K-003", "K-001", "K-002"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected clamp to head %v, got %v", want, got)
	}
}

func TestPlanDrop_MissingIDRejected(t *testing.T) {
	if _, err := PlanDrop([]string{"K-001"}, "  ", 0, board.StatusTodo, board.StatusTodo); err == nil {
		t.Fatalf("expected error for blank moved id")
	}
}

func TestDropIndex_MidpointScan(t *testing.T) {
	cards := []CardBounds{
		{ID: "K-001", Top: 0, Height: 40},  // midpoint 20
		{ID: "K-002", Top: 44, Height: 40}, // midpoint 64
		{ID: "K-003", Top: 88, Height: 40}, // midpoint 108
	}

	cases := []struct {
		name     string
		pointerY float64
		want     int
	}{
		{"above first midpoint", 10, 0},
		{"exactly on a midpoint falls after it", 20, 1},
		{"between first and second midpoints", 50, 1},
		{"between second and third midpoints", 90, 2},
		{"below all midpoints", 200, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DropIndex(tc.pointerY, cards); got != tc.want {
				t.Fatalf("DropIndex(%v) = %d, want %d", tc.pointerY, got, tc.want)
			}
		})
	}
}

func TestDropIndex_EmptyColumn(t *testing.T) {
	if got := DropIndex(42, nil); got != 0 {
		t.Fatalf("expected tail index 0 for empty column, got %d", got)
	}
}
