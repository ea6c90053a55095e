package backend

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"kanban-cli/internal/board"
)

func testKV(t *testing.T) KV {
	t.Helper()
	return KV{Path: filepath.Join(t.TempDir(), "local.db")}
}

func openTestLocalKV(t *testing.T, kv KV) *LocalKV {
	t.Helper()
	b, err := OpenLocalKV(context.Background(), kv)
	if err != nil {
		t.Fatalf("open local kv: %v", err)
	}
	return b
}

func TestLocalKV_CreateAssignsSequentialIDsAndDefaults(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	first, err := b.Create(ctx, board.TaskDraft{Text: "write docs", Status: board.StatusTodo})
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	second, err := b.Create(ctx, board.TaskDraft{Text: "fix login", Status: board.StatusInProgress})
	if err != nil {
		t.Fatalf("create 2: %v", err)
	}

	if first.ID != "K-001" || second.ID != "K-002" {
		t.Fatalf("ids = %q, %q, want K-001, K-002", first.ID, second.ID)
	}
	if first.Type != board.TypeFeature {
		t.Fatalf("default type = %q, want %q", first.Type, board.TypeFeature)
	}
	if first.Order != 0 {
		t.Fatalf("default order = %d, want 0", first.Order)
	}
	if first.Tags == nil || len(first.Tags) != 0 {
		t.Fatalf("default tags = %#v, want empty non-nil", first.Tags)
	}
	if first.CreatedAt == "" || first.CreatedAt != first.UpdatedAt {
		t.Fatalf("timestamps: created %q updated %q, want equal and set", first.CreatedAt, first.UpdatedAt)
	}

	all, err := b.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}
}

func TestLocalKV_IDsNeverRepeatAfterDelete(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	for i := 0; i < 3; i++ {
		if _, err := b.Create(ctx, board.TaskDraft{Text: "t", Status: board.StatusTodo}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if ok, err := b.Delete(ctx, "K-003"); err != nil || !ok {
		t.Fatalf("delete K-003 = (%v, %v), want (true, nil)", ok, err)
	}

	next, err := b.Create(ctx, board.TaskDraft{Text: "again", Status: board.StatusTodo})
	if err != nil {
		t.Fatalf("create after delete: %v", err)
	}
	if next.ID != "K-004" {
		t.Fatalf("id after deleting the highest = %q, want K-004", next.ID)
	}
}

func TestLocalKV_CounterHealsFromExistingIDsOnOpen(t *testing.T) {
	ctx := context.Background()
	kv := testKV(t)

	// Seed tasks without a counter record, as if the store had been
	// populated by an older build or edited by hand.
	seeded, _ := json.Marshal([]board.Task{
		{ID: "K-007", Text: "imported", Status: board.StatusTodo},
		{ID: "K-041", Text: "imported too", Status: board.StatusDone},
	})
	if err := kv.Put(ctx, kvKeyTasks, string(seeded)); err != nil {
		t.Fatalf("seed tasks: %v", err)
	}

	b := openTestLocalKV(t, kv)
	created, err := b.Create(ctx, board.TaskDraft{Text: "new", Status: board.StatusTodo})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "K-042" {
		t.Fatalf("healed counter issued %q, want K-042", created.ID)
	}
}

func TestLocalKV_HealRunsOncePerOpen(t *testing.T) {
	ctx := context.Background()
	kv := testKV(t)
	b := openTestLocalKV(t, kv)

	if _, err := b.Create(ctx, board.TaskDraft{Text: "t", Status: board.StatusTodo}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// An external writer bumps the stored ids mid-run. The open store keeps
	// trusting its counter record instead of rescanning.
	bumped, _ := json.Marshal([]board.Task{{ID: "K-100", Text: "foreign", Status: board.StatusTodo}})
	if err := kv.Put(ctx, kvKeyTasks, string(bumped)); err != nil {
		t.Fatalf("bump tasks: %v", err)
	}

	next, err := b.Create(ctx, board.TaskDraft{Text: "mine", Status: board.StatusTodo})
	if err != nil {
		t.Fatalf("create after bump: %v", err)
	}
	if next.ID != "K-002" {
		t.Fatalf("id after external bump = %q, want K-002", next.ID)
	}
}

func TestLocalKV_UpdateUnknownIDFails(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	text := "nope"
	_, err := b.Update(ctx, "K-404", board.TaskPatch{Text: &text})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("update unknown id: %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "K-404" {
		t.Fatalf("error should carry the id, got %v", err)
	}
}

func TestLocalKV_UpdateAppliesPartialPatch(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	created, err := b.Create(ctx, board.TaskDraft{Text: "draft", Status: board.StatusTodo, Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := board.StatusDone
	got, err := b.Update(ctx, created.ID, board.TaskPatch{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != board.StatusDone {
		t.Fatalf("status = %q, want done", got.Status)
	}
	if got.ClosedAt == "" {
		t.Fatalf("moving to done should stamp closed_at")
	}
	if got.Text != "draft" || len(got.Tags) != 1 {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestLocalKV_BatchUpdateSkipsUnknownAndSortsResults(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	for _, text := range []string{"one", "two", "three"} {
		if _, err := b.Create(ctx, board.TaskDraft{Text: text, Status: board.StatusTodo}); err != nil {
			t.Fatalf("create %q: %v", text, err)
		}
	}

	o2, o0 := 2, 0
	got, err := b.BatchUpdate(ctx, map[string]board.TaskPatch{
		"K-003": {Order: &o0},
		"K-001": {Order: &o2},
		"K-404": {Order: &o0},
	})
	if err != nil {
		t.Fatalf("batch update: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "K-001" || got[1].ID != "K-003" {
		t.Fatalf("results out of order: %q, %q", got[0].ID, got[1].ID)
	}
	if got[0].Order != 2 || got[1].Order != 0 {
		t.Fatalf("orders not applied: %d, %d", got[0].Order, got[1].Order)
	}
}

func TestLocalKV_BatchUpdateAllUnknownIsEmptyNoError(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	o := 4
	got, err := b.BatchUpdate(ctx, map[string]board.TaskPatch{"K-404": {Order: &o}})
	if err != nil {
		t.Fatalf("batch update: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", got)
	}
}

func TestLocalKV_DeleteReportsPresence(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	created, err := b.Create(ctx, board.TaskDraft{Text: "gone soon", Status: board.StatusTodo})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, err := b.Delete(ctx, created.ID); err != nil || !ok {
		t.Fatalf("first delete = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := b.Delete(ctx, created.ID); err != nil || ok {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestLocalKV_TagSuggestionsSortedUnion(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	drafts := []board.TaskDraft{
		{Text: "a", Status: board.StatusTodo, Tags: []string{"web", "auth"}},
		{Text: "b", Status: board.StatusDone, Tags: []string{"auth", "infra"}},
		{Text: "c", Status: board.StatusTodo},
	}
	for _, d := range drafts {
		if _, err := b.Create(ctx, d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := b.TagSuggestions(ctx)
	if err != nil {
		t.Fatalf("tag suggestions: %v", err)
	}
	want := []string{"auth", "infra", "web"}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("suggestions = %v, want %v", got, want)
		}
	}
}

func TestLocalKV_SettingsMergeOverDefaults(t *testing.T) {
	ctx := context.Background()
	b := openTestLocalKV(t, testKV(t))

	s, err := b.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.Darkmode || s.RandomPort || s.StoreImagesInSubfolder {
		t.Fatalf("fresh store should serve defaults, got %+v", s)
	}

	s, err = b.UpdateSettings(ctx, board.SettingsPatch{"darkmode": true, "board_title": "Sprint 12"})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if !s.Darkmode {
		t.Fatalf("darkmode not applied: %+v", s)
	}
	if s.RandomPort {
		t.Fatalf("unpatched key changed: %+v", s)
	}
	if s.Extra["board_title"] != "Sprint 12" {
		t.Fatalf("extension key lost: %+v", s.Extra)
	}

	again, err := b.Settings(ctx)
	if err != nil {
		t.Fatalf("settings after update: %v", err)
	}
	if !again.Darkmode || again.Extra["board_title"] != "Sprint 12" {
		t.Fatalf("settings not persisted: %+v", again)
	}
}

func TestLocalKV_MalformedStoredTasksSurfaces(t *testing.T) {
	ctx := context.Background()
	kv := testKV(t)
	b := openTestLocalKV(t, kv)

	if err := kv.Put(ctx, kvKeyTasks, "{not json"); err != nil {
		t.Fatalf("corrupt tasks: %v", err)
	}
	if _, err := b.GetAll(ctx); !errors.Is(err, ErrMalformedBoard) {
		t.Fatalf("get all over corrupt data: %v, want ErrMalformedBoard", err)
	}
}
