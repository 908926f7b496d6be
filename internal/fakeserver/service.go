package fakeserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/tasks"
)

const defaultLimit = 20

func remoteErr(code int, message string) error {
	return &jsonrpc2.RemoteError{Code: code, Message: message}
}

type archivedTask struct {
	snapshot   tasks.Task
	archivedAt int64
	reason     string
}

// ArchivedItem is an entry of list_archived.
type ArchivedItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	ArchivedAt int64   `json:"archived_at"`
	Reason     *string `json:"reason"`
}

// New returns an empty in-memory task service. An empty token disables
// authentication.
func New(token string) *Service {
	return &Service{
		Token:    token,
		tasks:    map[string]*tasks.Task{},
		archived: map[string]*archivedTask{},
		sessions: map[string]string{},
	}
}

// Type assert for Tasks implementation.
var _ tasks.Tasks = &Service{}

// Service is an in-memory implementation of the task service. Search is a
// plain term match, not a ranking engine.
type Service struct {
	Token string

	mu       sync.Mutex
	tasks    map[string]*tasks.Task
	archived map[string]*archivedTask
	sessions map[string]string
	calls    []string
	clock    int64
}

// RPCServer returns a jsonrpc2 Server exposing the service under its remote
// method names.
func (s *Service) RPCServer() (*jsonrpc2.Server, error) {
	srv := &jsonrpc2.Server{}
	methods := map[string]string{
		tasks.MethodRegister:     "Register",
		tasks.MethodUpsertTask:   "UpsertTask",
		tasks.MethodGetTask:      "GetTask",
		tasks.MethodSearch:       "Search",
		tasks.MethodMarkDone:     "MarkDone",
		tasks.MethodListRecent:   "ListRecent",
		tasks.MethodArchiveTask:  "ArchiveTask",
		tasks.MethodListArchived: "ListArchived",
		tasks.MethodRestoreTask:  "RestoreTask",
	}
	for rpcName, methodName := range methods {
		if err := srv.RegisterMethod(rpcName, s, methodName); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

// Calls returns the methods called so far, in order.
func (s *Service) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// now returns a strictly increasing unix millisecond timestamp. Caller must
// hold the lock.
func (s *Service) now() int64 {
	t := time.Now().UnixNano() / int64(time.Millisecond)
	if t <= s.clock {
		t = s.clock + 1
	}
	s.clock = t
	return t
}

// begin records the call and checks credentials. It returns with the lock
// held on success.
func (s *Service) begin(method string, auth *tasks.Auth) error {
	s.mu.Lock()
	s.calls = append(s.calls, method)
	if auth == nil || s.Token == "" {
		return nil
	}
	tok := auth.AuthToken
	if tok == "" {
		if _, ok := s.sessions[auth.Session]; ok {
			tok = auth.Session
		}
	}
	if _, isSession := s.sessions[tok]; tok == "" || (tok != s.Token && !isSession) {
		s.mu.Unlock()
		return remoteErr(tasks.CodeUnauthorized, "unauthorized")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, req tasks.RegisterRequest) (*tasks.RegisterResponse, error) {
	s.begin(tasks.MethodRegister, nil)
	defer s.mu.Unlock()

	if s.Token != "" && req.AuthToken != s.Token {
		return nil, remoteErr(tasks.CodeUnauthorized, "unauthorized")
	}
	workerID := req.WorkerID
	if workerID == "" {
		workerID = "anon"
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	session := hex.EncodeToString(buf)
	s.sessions[session] = workerID
	return &tasks.RegisterResponse{OK: true, Session: session}, nil
}

func (s *Service) UpsertTask(ctx context.Context, req tasks.UpsertTaskRequest) (*tasks.VClockResponse, error) {
	if err := s.begin(tasks.MethodUpsertTask, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if req.ID == "" || req.Title == "" || req.Text == "" {
		return nil, remoteErr(tasks.CodeBadRequest, "missing_fields")
	}
	var meta *string
	if req.Meta != nil {
		raw, err := json.Marshal(req.Meta)
		if err != nil {
			return nil, remoteErr(tasks.CodeBadRequest, "bad_meta")
		}
		m := string(raw)
		meta = &m
	}

	task, ok := s.tasks[req.ID]
	if !ok {
		s.tasks[req.ID] = &tasks.Task{
			ID:        req.ID,
			Title:     req.Title,
			Text:      req.Text,
			Level:     2,
			State:     "DRAFT",
			Meta:      meta,
			VClock:    1,
			UpdatedAt: s.now(),
		}
		return &tasks.VClockResponse{VClock: 1}, nil
	}
	if task.Archived != 0 {
		return nil, remoteErr(tasks.CodeConflict, "archived")
	}
	if req.IfVClock != nil && *req.IfVClock != task.VClock {
		return nil, remoteErr(tasks.CodeConflict, "vclock_conflict")
	}
	task.Title = req.Title
	task.Text = req.Text
	if meta != nil {
		task.Meta = meta
	}
	task.VClock++
	task.UpdatedAt = s.now()
	return &tasks.VClockResponse{VClock: task.VClock}, nil
}

func (s *Service) GetTask(ctx context.Context, req tasks.GetTaskRequest) (*tasks.GetTaskResponse, error) {
	if err := s.begin(tasks.MethodGetTask, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if req.ID == "" {
		return nil, remoteErr(tasks.CodeBadRequest, "missing_id")
	}
	task, ok := s.tasks[req.ID]
	if !ok || (task.Archived != 0 && !req.IncludeArchived) {
		return nil, remoteErr(tasks.CodeNotFound, "not_found")
	}
	return &tasks.GetTaskResponse{Task: *task, Blobs: []string{}}, nil
}

func (s *Service) Search(ctx context.Context, req tasks.SearchRequest) (*tasks.SearchResponse, error) {
	if err := s.begin(tasks.MethodSearch, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if req.Q == "" {
		return nil, remoteErr(tasks.CodeBadRequest, "missing_query")
	}
	q := parseQuery(req.Q)

	hits := []tasks.SearchHit{}
	for _, task := range s.tasks {
		if task.Archived != 0 {
			continue
		}
		score, ok := q.match(task.Title + " " + task.Text)
		if !ok {
			continue
		}
		hit := tasks.SearchHit{ID: task.ID, Title: task.Title, Score: score}
		if req.Highlight {
			snippet := q.highlight(task.Text)
			hit.Snippet = &snippet
		}
		hits = append(hits, hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score < hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	return &tasks.SearchResponse{Hits: page(hits, req.Limit, req.Offset)}, nil
}

func (s *Service) MarkDone(ctx context.Context, req tasks.MarkDoneRequest) (*tasks.VClockResponse, error) {
	if err := s.begin(tasks.MethodMarkDone, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if req.ID == "" {
		return nil, remoteErr(tasks.CodeBadRequest, "missing_fields")
	}
	task, ok := s.tasks[req.ID]
	if !ok {
		return nil, remoteErr(tasks.CodeNotFound, "not_found")
	}
	if task.Archived != 0 {
		return nil, remoteErr(tasks.CodeConflict, "archived")
	}
	if req.IfVClock != nil && *req.IfVClock != task.VClock {
		return nil, remoteErr(tasks.CodeConflict, "vclock_conflict")
	}
	task.Done = 0
	if req.Done {
		task.Done = 1
	}
	task.VClock++
	task.UpdatedAt = s.now()
	return &tasks.VClockResponse{VClock: task.VClock}, nil
}

func (s *Service) ListRecent(ctx context.Context, req tasks.ListRecentRequest) (*tasks.ListRecentResponse, error) {
	if err := s.begin(tasks.MethodListRecent, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	items := []tasks.TaskSummary{}
	for _, task := range s.tasks {
		if task.Archived != 0 {
			continue
		}
		items = append(items, tasks.TaskSummary{
			ID:        task.ID,
			Title:     task.Title,
			Done:      task.Done,
			UpdatedAt: task.UpdatedAt,
			VClock:    task.VClock,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt > items[j].UpdatedAt })
	return &tasks.ListRecentResponse{Items: page(items, req.Limit, 0)}, nil
}

func (s *Service) ArchiveTask(ctx context.Context, req tasks.ArchiveTaskRequest) (json.RawMessage, error) {
	if err := s.begin(tasks.MethodArchiveTask, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if req.ID == "" {
		return nil, remoteErr(tasks.CodeBadRequest, "missing_id")
	}
	task, ok := s.tasks[req.ID]
	if !ok {
		return nil, remoteErr(tasks.CodeNotFound, "not_found")
	}
	now := s.now()
	if task.Archived == 0 {
		s.archived[req.ID] = &archivedTask{
			snapshot:   *task,
			archivedAt: now,
			reason:     req.Reason,
		}
		task.Archived = 1
		task.UpdatedAt = now
	}
	return json.Marshal(map[string]interface{}{"ok": true, "archived_at": now})
}

func (s *Service) ListArchived(ctx context.Context, req tasks.ListArchivedRequest) (json.RawMessage, error) {
	if err := s.begin(tasks.MethodListArchived, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	items := []ArchivedItem{}
	for id, a := range s.archived {
		item := ArchivedItem{ID: id, Title: a.snapshot.Title, ArchivedAt: a.archivedAt}
		if a.reason != "" {
			reason := a.reason
			item.Reason = &reason
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ArchivedAt > items[j].ArchivedAt })
	return json.Marshal(map[string]interface{}{"items": page(items, req.Limit, req.Offset)})
}

func (s *Service) RestoreTask(ctx context.Context, req tasks.RestoreTaskRequest) (json.RawMessage, error) {
	if err := s.begin(tasks.MethodRestoreTask, &req.Auth); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if req.ID == "" {
		return nil, remoteErr(tasks.CodeBadRequest, "missing_id")
	}
	a, ok := s.archived[req.ID]
	if !ok {
		return nil, remoteErr(tasks.CodeNotFound, "not_found")
	}
	restored := a.snapshot
	restored.Archived = 0
	restored.UpdatedAt = s.now()
	s.tasks[req.ID] = &restored
	delete(s.archived, req.ID)
	return json.RawMessage(`{"ok":true}`), nil
}
