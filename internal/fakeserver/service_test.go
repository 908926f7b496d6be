package fakeserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vipnode/taskrpc/tasks"
)

func TestServiceAuth(t *testing.T) {
	ctx := context.Background()
	svc := New("devtoken")

	if _, err := svc.Register(ctx, tasks.RegisterRequest{WorkerID: "w", AuthToken: "nope"}); !tasks.IsUnauthorized(err) {
		t.Errorf("got: %v; want unauthorized", err)
	}
	resp, err := svc.Register(ctx, tasks.RegisterRequest{WorkerID: "w", AuthToken: "devtoken"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.OK || len(resp.Session) != 32 {
		t.Errorf("bad register response: %+v", resp)
	}

	tests := []struct {
		Auth tasks.Auth
		OK   bool
	}{
		{tasks.Auth{}, false},
		{tasks.Auth{Session: "unknown"}, false},
		{tasks.Auth{AuthToken: "nope"}, false},
		{tasks.Auth{AuthToken: "devtoken"}, true},
		{tasks.Auth{Session: resp.Session}, true},
	}
	for i, tc := range tests {
		_, err := svc.ListRecent(ctx, tasks.ListRecentRequest{Auth: tc.Auth})
		if (err == nil) != tc.OK {
			t.Errorf("[case %d] got: %v; want ok: %t", i, err, tc.OK)
		}
		if err != nil && !tasks.IsUnauthorized(err) {
			t.Errorf("[case %d] got: %v; want unauthorized", i, err)
		}
	}
}

func TestServiceTasks(t *testing.T) {
	ctx := context.Background()
	svc := New("")

	if _, err := svc.UpsertTask(ctx, tasks.UpsertTaskRequest{ID: "T-1"}); tasks.ErrorCode(err) != tasks.CodeBadRequest {
		t.Errorf("got: %v; want bad request", err)
	}

	vc, err := svc.UpsertTask(ctx, tasks.UpsertTaskRequest{
		ID:    "T-2",
		Title: "FTS5 test",
		Text:  "This is a quick brown fox task",
		Meta:  map[string]string{"prio": "P2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if vc.VClock != 1 {
		t.Errorf("got vclock %d; want 1", vc.VClock)
	}

	stale := int64(5)
	if _, err := svc.MarkDone(ctx, tasks.MarkDoneRequest{ID: "T-2", Done: true, IfVClock: &stale}); !tasks.IsConflict(err) {
		t.Errorf("got: %v; want conflict", err)
	}
	current := int64(1)
	if vc, err := svc.MarkDone(ctx, tasks.MarkDoneRequest{ID: "T-2", Done: true, IfVClock: &current}); err != nil || vc.VClock != 2 {
		t.Errorf("mark_done got: %+v, %v; want vclock 2", vc, err)
	}

	got, err := svc.GetTask(ctx, tasks.GetTaskRequest{ID: "T-2"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Task.Title != "FTS5 test" || !got.Task.IsDone() {
		t.Errorf("got task: %+v", got.Task)
	}
	var meta map[string]string
	if err := got.Task.DecodeMeta(&meta); err != nil || meta["prio"] != "P2" {
		t.Errorf("got meta %v (%v)", meta, err)
	}

	if _, err := svc.GetTask(ctx, tasks.GetTaskRequest{ID: "T-404"}); !tasks.IsNotFound(err) {
		t.Errorf("got: %v; want not found", err)
	}
	if _, err := svc.MarkDone(ctx, tasks.MarkDoneRequest{ID: "T-404", Done: true}); !tasks.IsNotFound(err) {
		t.Errorf("got: %v; want not found", err)
	}
}

func TestServiceSearch(t *testing.T) {
	ctx := context.Background()
	svc := New("")
	for _, task := range []tasks.UpsertTaskRequest{
		{ID: "T-1", Title: "Slow", Text: "A lazy dog"},
		{ID: "T-2", Title: "FTS5 test", Text: "This is a quick brown fox task"},
		{ID: "T-3", Title: "Brown", Text: "Quick and brown and quick"},
	} {
		if _, err := svc.UpsertTask(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := svc.Search(ctx, tasks.SearchRequest{}); tasks.ErrorCode(err) != tasks.CodeBadRequest {
		t.Errorf("got: %v; want bad request", err)
	}

	resp, err := svc.Search(ctx, tasks.SearchRequest{Q: "quick NEAR/1 brown", Highlight: true})
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]tasks.SearchHit{}
	for _, hit := range resp.Hits {
		ids[hit.ID] = hit
	}
	if len(ids) != 2 {
		t.Fatalf("got hits: %+v; want T-2 and T-3", resp.Hits)
	}
	hit, ok := ids["T-2"]
	if !ok {
		t.Fatalf("missing T-2 in %+v", resp.Hits)
	}
	if hit.Snippet == nil || *hit.Snippet != "This is a <b>quick</b> <b>brown</b> fox task" {
		t.Errorf("got snippet: %v", hit.Snippet)
	}

	resp, err = svc.Search(ctx, tasks.SearchRequest{Q: "quick", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].Snippet != nil {
		t.Errorf("got hits: %+v; want one hit without snippet", resp.Hits)
	}
}

func TestServiceArchive(t *testing.T) {
	ctx := context.Background()
	svc := New("")
	if _, err := svc.UpsertTask(ctx, tasks.UpsertTaskRequest{ID: "T-9", Title: "Old", Text: "stale fox"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ArchiveTask(ctx, tasks.ArchiveTaskRequest{ID: "T-0"}); !tasks.IsNotFound(err) {
		t.Errorf("got: %v; want not found", err)
	}
	if _, err := svc.ArchiveTask(ctx, tasks.ArchiveTaskRequest{ID: "T-9", Reason: "done elsewhere"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetTask(ctx, tasks.GetTaskRequest{ID: "T-9"}); !tasks.IsNotFound(err) {
		t.Errorf("archived task visible: %v", err)
	}
	if got, err := svc.GetTask(ctx, tasks.GetTaskRequest{ID: "T-9", IncludeArchived: true}); err != nil || got.Task.Archived != 1 {
		t.Errorf("got: %+v, %v; want archived task", got, err)
	}
	if _, err := svc.UpsertTask(ctx, tasks.UpsertTaskRequest{ID: "T-9", Title: "Old", Text: "again"}); !tasks.IsConflict(err) {
		t.Errorf("got: %v; want conflict", err)
	}
	if resp, _ := svc.Search(ctx, tasks.SearchRequest{Q: "fox"}); len(resp.Hits) != 0 {
		t.Errorf("archived task in search: %+v", resp.Hits)
	}

	raw, err := svc.ListArchived(ctx, tasks.ListArchivedRequest{})
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Items []ArchivedItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != "T-9" || list.Items[0].Reason == nil || *list.Items[0].Reason != "done elsewhere" {
		t.Errorf("got archived: %s", raw)
	}

	if _, err := svc.RestoreTask(ctx, tasks.RestoreTaskRequest{ID: "T-9"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RestoreTask(ctx, tasks.RestoreTaskRequest{ID: "T-9"}); !tasks.IsNotFound(err) {
		t.Errorf("second restore got: %v; want not found", err)
	}
	if _, err := svc.GetTask(ctx, tasks.GetTaskRequest{ID: "T-9"}); err != nil {
		t.Errorf("restored task missing: %s", err)
	}
}

func TestServiceListRecent(t *testing.T) {
	ctx := context.Background()
	svc := New("")
	for _, id := range []string{"T-1", "T-2", "T-3"} {
		if _, err := svc.UpsertTask(ctx, tasks.UpsertTaskRequest{ID: id, Title: id, Text: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := svc.ListRecent(ctx, tasks.ListRecentRequest{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 2 || resp.Items[0].ID != "T-3" || resp.Items[1].ID != "T-2" {
		t.Errorf("got: %+v; want T-3, T-2", resp.Items)
	}
	if got, want := svc.Calls(), []string{"upsert_task", "upsert_task", "upsert_task", "list_recent"}; len(got) != len(want) {
		t.Errorf("got calls: %v; want %v", got, want)
	}
}
