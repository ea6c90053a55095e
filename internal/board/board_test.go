package board

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestNewTask_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	task := NewTask("K-001", TaskDraft{Status: StatusTodo}, now)

	if task.ID != "K-001" {
		t.Fatalf("expected id K-001, got %q", task.ID)
	}
	if task.Type != TypeFeature {
		t.Fatalf("expected default type feature, got %q", task.Type)
	}
	if task.Tags == nil || len(task.Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", task.Tags)
	}
	if task.Order != 0 {
		t.Fatalf("expected default order 0, got %d", task.Order)
	}
	if task.CreatedAt == "" || task.CreatedAt != task.UpdatedAt {
		t.Fatalf("expected created_at == updated_at, got %q / %q", task.CreatedAt, task.UpdatedAt)
	}
	if task.ClosedAt != "" {
		t.Fatalf("expected no closed_at on create, got %q", task.ClosedAt)
	}
}

func TestNewTask_ExplicitOrderAndType(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := 6

	task := NewTask("K-002", TaskDraft{Status: StatusDone, Order: &order, Type: TypeBug, Tags: []string{"x"}}, now)

	if task.Order != 6 {
		t.Fatalf("expected order 6, got %d", task.Order)
	}
	if task.Type != TypeBug {
		t.Fatalf("expected type bug, got %q", task.Type)
	}
	if !task.HasTag("x") {
		t.Fatalf("expected tag x, got %v", task.Tags)
	}
}

func TestTaskPatch_Apply_PartialFieldsOnly(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "K-001", Text: "old", Status: StatusTodo, Tags: []string{"a"}, Order: 2, UpdatedAt: "stale"}

	text := "new"
	TaskPatch{Text: &text}.Apply(&task, now)

	if task.Text != "new" {
		t.Fatalf("expected text updated, got %q", task.Text)
	}
	if task.Status != StatusTodo || task.Order != 2 || len(task.Tags) != 1 {
		t.Fatalf("expected untouched fields to survive, got %#v", task)
	}
	if task.UpdatedAt != Timestamp(now) {
		t.Fatalf("expected updated_at %q, got %q", Timestamp(now), task.UpdatedAt)
	}
}

func TestTaskPatch_Apply_EnteringDoneStampsClosedAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "K-001", Status: StatusInProgress}

	done := StatusDone
	TaskPatch{Status: &done}.Apply(&task, now)

	if task.ClosedAt != Timestamp(now) {
		t.Fatalf("expected closed_at stamped, got %q", task.ClosedAt)
	}
}

func TestTaskPatch_Apply_LeavingDoneClearsClosedAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "K-001", Status: StatusDone, ClosedAt: "2026-01-01T00:00:00Z"}

	todo := StatusTodo
	TaskPatch{Status: &todo}.Apply(&task, now)

	if task.ClosedAt != "" {
		t.Fatalf("expected closed_at cleared, got %q", task.ClosedAt)
	}
}

func TestTaskPatch_Apply_SameStatusKeepsClosedAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	closed := "2026-01-01T00:00:00Z"
	task := Task{ID: "K-001", Status: StatusDone, ClosedAt: closed}

	done := StatusDone
	order := 4
	TaskPatch{Status: &done, Order: &order}.Apply(&task, now)

	if task.ClosedAt != closed {
		t.Fatalf("expected closed_at untouched, got %q", task.ClosedAt)
	}
	if task.Order != 4 {
		t.Fatalf("expected order applied, got %d", task.Order)
	}
}

func TestTaskPatch_Apply_TagsReplacedNotMerged(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "K-001", Status: StatusTodo, Tags: []string{"a", "b"}}

	tags := []string{"c"}
	TaskPatch{Tags: &tags}.Apply(&task, now)

	if !reflect.DeepEqual(task.Tags, []string{"c"}) {
		t.Fatalf("expected tags replaced, got %v", task.Tags)
	}
	tags[0] = "mutated"
	if task.Tags[0] != "c" {
		t.Fatalf("expected applied tags detached from caller slice, got %v", task.Tags)
	}
}

func TestTagUnion_SortedAndDeduplicated(t *testing.T) {
	tasks := []Task{
		{Tags: []string{"devops", "docs"}},
		{Tags: []string{"docs", "api"}},
		{Tags: nil},
	}

	got := TagUnion(tasks)
	want := []string{"api", "devops", "docs"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSortByOrder_StableOnTies(t *testing.T) {
	tasks := []Task{
		{ID: "K-003", Order: 0},
		{ID: "K-001", Order: 2},
		{ID: "K-002", Order: 0},
	}

	SortByOrder(tasks)

	got := []string{tasks[0].ID, tasks[1].ID, tasks[2].ID}
	want := []string{"K-003", "K-002", "K-001"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestByStatus_GroupsAndSorts(t *testing.T) {
	tasks := []Task{
		{ID: "K-002", Status: StatusTodo, Order: 2},
		{ID: "K-001", Status: StatusTodo, Order: 0},
		{ID: "K-003", Status: StatusDone, Order: 0},
	}

	cols := ByStatus(tasks)

	if got := len(cols[StatusTodo]); got != 2 {
		t.Fatalf("expected 2 todo tasks, got %d", got)
	}
	if cols[StatusTodo][0].ID != "K-001" {
		t.Fatalf("expected K-001 first in todo, got %s", cols[StatusTodo][0].ID)
	}
	if len(cols[StatusDone]) != 1 {
		t.Fatalf("expected 1 done task, got %d", len(cols[StatusDone]))
	}
}

func TestSettings_JSONRoundTripKeepsExtras(t *testing.T) {
	in := Settings{Darkmode: true, Extra: map[string]any{"columns_collapsed": true}}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Settings
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Darkmode {
		t.Fatalf("expected darkmode true, got %#v", out)
	}
	if v, ok := out.Extra["columns_collapsed"].(bool); !ok || !v {
		t.Fatalf("expected extra key to survive, got %#v", out.Extra)
	}
}

func TestSettingsPatch_Apply_MergesKnownAndExtraKeys(t *testing.T) {
	s := Settings{Darkmode: false}

	SettingsPatch{"darkmode": true, "title": "Sprint 12"}.Apply(&s)

	if !s.Darkmode {
		t.Fatalf("expected darkmode set, got %#v", s)
	}
	if s.Extra["title"] != "Sprint 12" {
		t.Fatalf("expected title in extras, got %#v", s.Extra)
	}
	if s.RandomPort {
		t.Fatalf("expected untouched random_port to stay false")
	}
}

func TestSettingsPatch_Apply_IgnoresWrongTypeForKnownKey(t *testing.T) {
	s := Settings{Darkmode: true}

	SettingsPatch{"darkmode": "yes"}.Apply(&s)

	if !s.Darkmode {
		t.Fatalf("expected non-bool darkmode value ignored")
	}
}

func TestBoard_FindAndRemove(t *testing.T) {
	b := Board{Tasks: []Task{{ID: "K-001"}, {ID: "K-002"}}}

	if b.Find("K-002") == nil {
		t.Fatalf("expected to find K-002")
	}
	if b.Find("K-404") != nil {
		t.Fatalf("expected nil for unknown id")
	}
	if !b.Remove("K-001") {
		t.Fatalf("expected removal of K-001 to succeed")
	}
	if b.Remove("K-001") {
		t.Fatalf("expected second removal to report absence")
	}
	if len(b.Tasks) != 1 || b.Tasks[0].ID != "K-002" {
		t.Fatalf("expected only K-002 to remain, got %#v", b.Tasks)
	}
}

func TestTaskClone_DetachesTags(t *testing.T) {
	orig := Task{ID: "K-001", Tags: []string{"a"}}

	c := orig.Clone()
	c.Tags[0] = "b"

	if orig.Tags[0] != "a" {
		t.Fatalf("expected clone tags detached, got %v", orig.Tags)
	}
}

func TestParseStatus_AcceptsCommonSpellings(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"todo", StatusTodo},
		{"TODO", StatusTodo},
		{"backlog", StatusTodo},
		{"in_progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"doing", StatusInProgress},
		{"wip", StatusInProgress},
		{"done", StatusDone},
		{"Completed", StatusDone},
		{" done ", StatusDone},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}

	for _, bad := range []string{"", "doneish", "column 2"} {
		if _, err := ParseStatus(bad); err == nil {
			t.Errorf("ParseStatus(%q) should fail", bad)
		}
	}
}
