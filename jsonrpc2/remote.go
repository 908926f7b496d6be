package jsonrpc2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// ServePipe sets up symmetric remotes over a net.Pipe() and starts both in
// goroutines. Useful for testing. Services still need to be registered.
func ServePipe() (*Remote, *Remote) {
	c1, c2 := net.Pipe()
	server := &Remote{
		Codec:  IOCodec(c1),
		Client: &Client{},
		Server: &Server{},
	}
	client := &Remote{
		Codec:  IOCodec(c2),
		Client: &Client{},
		Server: &Server{},
	}
	go server.Serve()
	go client.Serve()
	return server, client
}

// ErrContextMissingValue is returned when a context is missing an expected value.
type ErrContextMissingValue struct {
	Key serviceContext
}

func (err ErrContextMissingValue) Error() string {
	return fmt.Sprintf("context missing value: %s", string(err.Key))
}

type serviceContext string

var ctxService serviceContext = "service"

// CtxService returns a Service associated with this request from a context
// used within a call. This is useful for initiating bidirectional calls.
func CtxService(ctx context.Context) (Service, error) {
	s, ok := ctx.Value(ctxService).(Service)
	if !ok {
		return nil, ErrContextMissingValue{ctxService}
	}
	return s, nil
}

// Service represents a remote service that can be called.
type Service interface {
	Call(ctx context.Context, result interface{}, method string, params interface{}) error
}

// Handler answers inbound requests.
type Handler interface {
	Handle(ctx context.Context, req *Request) *Response
}

var _ Service = &Remote{}

// State is the liveness of a Remote's connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var errLocalClose = errors.New("closed locally")

// Remote is a wrapper around a connection that can be both a Client and a
// Server. It implements the Service interface, and routes responses from a
// single reader loop (Serve) to the calls waiting on them by ID.
type Remote struct {
	Codec
	Client Requester
	Server Handler

	// Addr is the endpoint this remote is connected to, if known.
	Addr string

	pending pendingSet
	state   int32
	serving int32
	closing int32

	initOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}
	serveErr  error
}

func (r *Remote) init() {
	r.initOnce.Do(func() {
		if r.Client == nil {
			r.Client = &Client{}
		}
		r.done = make(chan struct{})
	})
}

// State returns the current liveness of the connection.
func (r *Remote) State() State {
	return State(atomic.LoadInt32(&r.state))
}

func (r *Remote) setState(s State) {
	atomic.StoreInt32(&r.state, int32(s))
}

// Pending returns the number of calls waiting for a response.
func (r *Remote) Pending() int {
	return r.pending.len()
}

// Oldest returns up to num calls that have been waiting the longest.
func (r *Remote) Oldest(num int) []PendingCall {
	return r.pending.oldest(num)
}

// Serve reads messages until the codec fails or the remote is closed. It must
// only be called once. Responses are delivered to their pending calls,
// requests are dispatched to the Server. Invalid messages are dropped.
func (r *Remote) Serve() error {
	r.init()
	atomic.StoreInt32(&r.serving, 1)
	return r.serve()
}

func (r *Remote) serve() (err error) {
	if r.State() == StateConnecting {
		r.setState(StateOpen)
	}
	defer func() {
		r.setState(StateClosed)
		if n := r.pending.closeAll(closedError{cause: err}); n > 0 {
			logger.Warningf("Remote.Serve(): connection lost with %d pending calls: %s", n, err)
		}
		if atomic.LoadInt32(&r.closing) == 1 {
			err = nil
		}
		r.serveErr = err
		close(r.done)
	}()

	for {
		msg, err := r.Codec.ReadMessage()
		if err != nil {
			var protoErr *ProtocolError
			if errors.As(err, &protoErr) {
				logger.Warningf("Remote.Serve(): Dropping invalid message: %s", err)
				continue
			}
			return err
		}
		r.dispatch(msg)
	}
}

func (r *Remote) dispatch(msg *Message) {
	if msg.Request != nil && msg.Method != "" {
		go r.handleRequest(msg)
		return
	}
	id, err := msg.IntID()
	if err != nil {
		if msg.Response != nil && msg.Response.Error != nil {
			// Peers report unparsable requests with a null id.
			logger.Warningf("Remote.Serve(): Dropping uncorrelated error response: %s", msg.Response.Error)
			return
		}
		logger.Warningf("Remote.Serve(): Dropping response with %s: %s", err, msg)
		return
	}
	if !r.pending.resolve(id, msg) {
		logger.Warningf("Remote.Serve(): Dropping response for unknown request id %d: %s", id, msg)
	}
}

func (r *Remote) handleRequest(msg *Message) {
	var resp *Response
	if r.Server == nil {
		resp = &Response{Error: &RemoteError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", msg.Method),
		}}
	} else {
		ctx := context.WithValue(context.Background(), ctxService, r)
		resp = r.Server.Handle(ctx, msg.Request)
	}
	if len(msg.ID) == 0 {
		// Notification, no reply expected.
		return
	}
	out := &Message{
		Version:  Version,
		ID:       msg.ID,
		Response: resp,
	}
	if err := r.Codec.WriteMessage(out); err != nil {
		logger.Warningf("Remote.handleRequest(): Failed to reply to %q: %s", msg.Method, err)
	}
}

// CallID sends a request with a caller-chosen ID and blocks until the
// response with the same ID arrives, the connection closes, or ctx is done.
//
// The ID must not already be pending on this remote, otherwise
// *ErrDuplicateID is returned and nothing is sent. A remote error envelope is
// returned as *RemoteError, a dropped connection as an error matching
// ErrConnectionClosed.
func (r *Remote) CallID(ctx context.Context, id int64, method string, params interface{}) (json.RawMessage, error) {
	if method == "" {
		return nil, errors.New("jsonrpc2: empty method name")
	}
	req, err := NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	return r.roundTrip(ctx, id, req)
}

func (r *Remote) roundTrip(ctx context.Context, id int64, req *Message) (json.RawMessage, error) {
	// Register before writing, the response can arrive before WriteMessage
	// returns.
	call, err := r.pending.add(id, req.Method)
	if err != nil {
		return nil, err
	}
	if err := r.Codec.WriteMessage(req); err != nil {
		r.pending.remove(id, call)
		return nil, fmt.Errorf("jsonrpc2: failed to send request %d: %w", id, err)
	}

	select {
	case rep := <-call.replyChan:
		if rep.err != nil {
			return nil, rep.err
		}
		if rep.msg.Response == nil {
			return nil, &ProtocolError{Cause: fmt.Errorf("response to %d is missing result and error", id)}
		}
		if rep.msg.Response.Error != nil {
			return nil, rep.msg.Response.Error
		}
		return rep.msg.Response.Result, nil
	case <-ctx.Done():
		r.pending.remove(id, call)
		return nil, ctx.Err()
	}
}

// Call handles sending an RPC and receiving the corresponding response
// synchronously, using the next free ID from Client.
func (r *Remote) Call(ctx context.Context, result interface{}, method string, params interface{}) error {
	r.init()
	if method == "" {
		return errors.New("jsonrpc2: empty method name")
	}
	for {
		id := r.Client.NextID()
		req, err := NewRequest(id, method, params)
		if err != nil {
			return err
		}
		raw, err := r.roundTrip(ctx, id, req)
		var dupErr *ErrDuplicateID
		if errors.As(err, &dupErr) {
			// Taken by an explicit CallID, try the next one.
			continue
		}
		if err != nil {
			return err
		}
		resp := Response{Result: raw}
		return resp.UnmarshalResult(result)
	}
}

// Close closes the codec and fails all pending calls with
// ErrConnectionClosed. It is safe to call more than once, only the first call
// does anything. If Serve is running, Close waits for it to return.
func (r *Remote) Close() error {
	r.init()
	var err error
	r.closeOnce.Do(func() {
		atomic.StoreInt32(&r.closing, 1)
		r.setState(StateClosed)
		r.pending.closeAll(closedError{cause: errLocalClose})
		err = r.Codec.Close()
		if atomic.LoadInt32(&r.serving) == 1 {
			<-r.done
		}
	})
	return err
}

// Wait blocks until Serve returns and returns its error. The error is nil if
// the remote was closed with Close.
func (r *Remote) Wait() error {
	r.init()
	<-r.done
	return r.serveErr
}
