package tasks

import "encoding/json"

// Auth carries the credentials accepted by every method: either the shared
// token or a session returned by register.
type Auth struct {
	AuthToken string `json:"authToken,omitempty"`
	Session   string `json:"session,omitempty"`
}

func (a *Auth) auth() *Auth { return a }

type authenticated interface {
	auth() *Auth
}

type RegisterRequest struct {
	WorkerID  string `json:"worker_id"`
	AuthToken string `json:"authToken"`
}

type RegisterResponse struct {
	OK      bool   `json:"ok"`
	Session string `json:"session"`
}

type UpsertTaskRequest struct {
	Auth
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Text  string      `json:"text"`
	Meta  interface{} `json:"meta,omitempty"`
	// IfVClock rejects the write with a 409 unless it matches the current
	// vclock of the task.
	IfVClock *int64 `json:"if_vclock,omitempty"`
}

type VClockResponse struct {
	VClock int64 `json:"vclock"`
}

type GetTaskRequest struct {
	Auth
	ID              string `json:"id"`
	IncludeArchived bool   `json:"includeArchived,omitempty"`
}

// Task is a stored task. Flags are 0 or 1, timestamps are unix milliseconds,
// and Meta is the JSON text of the metadata object.
type Task struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	Done      int     `json:"done"`
	Archived  int     `json:"archived"`
	ParentID  *string `json:"parent_id,omitempty"`
	Level     int     `json:"level,omitempty"`
	State     string  `json:"state,omitempty"`
	Assignee  *string `json:"assignee,omitempty"`
	DueAt     *int64  `json:"due_at,omitempty"`
	Meta      *string `json:"meta"`
	VClock    int64   `json:"vclock"`
	UpdatedAt int64   `json:"updated_at"`
}

// IsDone returns true if the task is marked done.
func (t *Task) IsDone() bool {
	return t.Done != 0
}

// DecodeMeta unmarshals the task metadata into v. Tasks without metadata
// leave v untouched.
func (t *Task) DecodeMeta(v interface{}) error {
	if t.Meta == nil || *t.Meta == "" {
		return nil
	}
	return json.Unmarshal([]byte(*t.Meta), v)
}

type GetTaskResponse struct {
	Task  Task     `json:"task"`
	Blobs []string `json:"blobs"`
}

type SearchRequest struct {
	Auth
	Q         string `json:"q"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	Highlight bool   `json:"highlight,omitempty"`
}

// SearchHit is a single search result. Snippet is only set when highlighting
// was requested, with matches wrapped in <b></b>.
type SearchHit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Snippet *string `json:"snippet"`
}

type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

type MarkDoneRequest struct {
	Auth
	ID       string `json:"id"`
	Done     bool   `json:"done"`
	IfVClock *int64 `json:"if_vclock,omitempty"`
}

type ListRecentRequest struct {
	Auth
	Limit int `json:"limit,omitempty"`
}

// TaskSummary is the short form of a task used in listings.
type TaskSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Done      int    `json:"done"`
	UpdatedAt int64  `json:"updated_at"`
	VClock    int64  `json:"vclock"`
}

type ListRecentResponse struct {
	Items []TaskSummary `json:"items"`
}

type ArchiveTaskRequest struct {
	Auth
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

type ListArchivedRequest struct {
	Auth
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type RestoreTaskRequest struct {
	Auth
	ID string `json:"id"`
}
