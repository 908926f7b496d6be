package tasks

import (
	"context"
	"encoding/json"
)

// Remote method names of the task service.
const (
	MethodRegister     = "register"
	MethodUpsertTask   = "upsert_task"
	MethodGetTask      = "get_task"
	MethodSearch       = "search"
	MethodMarkDone     = "mark_done"
	MethodListRecent   = "list_recent"
	MethodArchiveTask  = "archive_task"
	MethodListArchived = "list_archived"
	MethodRestoreTask  = "restore_task"
)

// Tasks is the task service spoken to over JSONRPC. RemoteTasks implements it
// for a remote connection, the fake service in internal/fakeserver implements
// it in memory.
type Tasks interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	UpsertTask(ctx context.Context, req UpsertTaskRequest) (*VClockResponse, error)
	GetTask(ctx context.Context, req GetTaskRequest) (*GetTaskResponse, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	MarkDone(ctx context.Context, req MarkDoneRequest) (*VClockResponse, error)
	ListRecent(ctx context.Context, req ListRecentRequest) (*ListRecentResponse, error)

	// Archive operations have no fixed result shape.
	ArchiveTask(ctx context.Context, req ArchiveTaskRequest) (json.RawMessage, error)
	ListArchived(ctx context.Context, req ListArchivedRequest) (json.RawMessage, error)
	RestoreTask(ctx context.Context, req RestoreTaskRequest) (json.RawMessage, error)
}
