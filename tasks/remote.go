package tasks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vipnode/taskrpc/jsonrpc2"
)

// Remote returns a RemoteTasks abstraction which proxies an RPC service and
// takes care of attaching the session to every call after Register.
func Remote(service jsonrpc2.Service) *RemoteTasks {
	return &RemoteTasks{
		service: service,
	}
}

// Type assert for Tasks implementation.
var _ Tasks = &RemoteTasks{}

// RemoteTasks wraps a jsonrpc2 Service with the typed task service methods.
type RemoteTasks struct {
	service jsonrpc2.Service

	mu      sync.RWMutex
	session string
}

// Session returns the session obtained by the last successful Register.
func (p *RemoteTasks) Session() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// SetSession overrides the session attached to calls, such as one persisted
// from an earlier connection.
func (p *RemoteTasks) SetSession(session string) {
	p.mu.Lock()
	p.session = session
	p.mu.Unlock()
}

// authorize fills in the session unless the request already carries
// credentials.
func (p *RemoteTasks) authorize(req authenticated) {
	a := req.auth()
	if a.AuthToken != "" || a.Session != "" {
		return
	}
	a.Session = p.Session()
}

func (p *RemoteTasks) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := p.service.Call(ctx, &resp, MethodRegister, req); err != nil {
		return nil, err
	}
	if resp.Session != "" {
		p.SetSession(resp.Session)
	}
	return &resp, nil
}

func (p *RemoteTasks) UpsertTask(ctx context.Context, req UpsertTaskRequest) (*VClockResponse, error) {
	p.authorize(&req)
	var resp VClockResponse
	if err := p.service.Call(ctx, &resp, MethodUpsertTask, req); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *RemoteTasks) GetTask(ctx context.Context, req GetTaskRequest) (*GetTaskResponse, error) {
	p.authorize(&req)
	var resp GetTaskResponse
	if err := p.service.Call(ctx, &resp, MethodGetTask, req); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *RemoteTasks) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	p.authorize(&req)
	var resp SearchResponse
	if err := p.service.Call(ctx, &resp, MethodSearch, req); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *RemoteTasks) MarkDone(ctx context.Context, req MarkDoneRequest) (*VClockResponse, error) {
	p.authorize(&req)
	var resp VClockResponse
	if err := p.service.Call(ctx, &resp, MethodMarkDone, req); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *RemoteTasks) ListRecent(ctx context.Context, req ListRecentRequest) (*ListRecentResponse, error) {
	p.authorize(&req)
	var resp ListRecentResponse
	if err := p.service.Call(ctx, &resp, MethodListRecent, req); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *RemoteTasks) ArchiveTask(ctx context.Context, req ArchiveTaskRequest) (json.RawMessage, error) {
	p.authorize(&req)
	var resp json.RawMessage
	if err := p.service.Call(ctx, &resp, MethodArchiveTask, req); err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *RemoteTasks) ListArchived(ctx context.Context, req ListArchivedRequest) (json.RawMessage, error) {
	p.authorize(&req)
	var resp json.RawMessage
	if err := p.service.Call(ctx, &resp, MethodListArchived, req); err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *RemoteTasks) RestoreTask(ctx context.Context, req RestoreTaskRequest) (json.RawMessage, error) {
	p.authorize(&req)
	var resp json.RawMessage
	if err := p.service.Call(ctx, &resp, MethodRestoreTask, req); err != nil {
		return nil, err
	}
	return resp, nil
}

// WithSession returns a params object with session added, for calls made
// with raw params. Empty params become an object holding only the session.
// Params that already carry authToken or session are returned as is.
func WithSession(params json.RawMessage, session string) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &fields); err != nil {
			return nil, err
		}
	}
	if _, ok := fields["authToken"]; ok {
		return params, nil
	}
	if _, ok := fields["session"]; ok {
		return params, nil
	}
	if session == "" {
		return params, nil
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	fields["session"] = raw
	return json.Marshal(fields)
}
