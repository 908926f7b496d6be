package jsonrpc2

import (
	"sort"
	"sync"
	"time"
)

// reply is what a waiting caller receives: either the response message or
// the reason it will never arrive.
type reply struct {
	msg *Message
	err error
}

type pendingCall struct {
	method    string
	timestamp time.Time
	replyChan chan reply
}

// pendingSet tracks in-flight requests by ID. The zero value is ready to use.
type pendingSet struct {
	mu     sync.Mutex
	calls  map[int64]*pendingCall
	closed error
}

// add registers a new pending call. It fails if the ID is already pending or
// if the set has been closed.
func (p *pendingSet) add(id int64, method string) (*pendingCall, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed != nil {
		return nil, p.closed
	}
	if p.calls == nil {
		p.calls = map[int64]*pendingCall{}
	}
	if _, ok := p.calls[id]; ok {
		return nil, &ErrDuplicateID{ID: id}
	}
	call := &pendingCall{
		method:    method,
		timestamp: time.Now(),
		replyChan: make(chan reply, 1),
	}
	p.calls[id] = call
	return call, nil
}

// has returns true if the ID is currently pending.
func (p *pendingSet) has(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.calls[id]
	return ok
}

// resolve removes the call for ID and delivers msg to it. Returns false if
// no such call is pending.
func (p *pendingSet) resolve(id int64, msg *Message) bool {
	p.mu.Lock()
	call, ok := p.calls[id]
	if ok {
		delete(p.calls, id)
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	// replyChan is buffered and only ever written once, this never blocks.
	call.replyChan <- reply{msg: msg}
	return true
}

// remove drops the call for ID without delivering anything, only if it is
// still the same call.
func (p *pendingSet) remove(id int64, call *pendingCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls[id] == call {
		delete(p.calls, id)
	}
}

// closeAll fails every pending call with err and rejects future calls with
// it. Returns the number of calls that were failed.
func (p *pendingSet) closeAll(err error) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed == nil {
		p.closed = err
	}
	n := len(p.calls)
	for id, call := range p.calls {
		call.replyChan <- reply{err: err}
		delete(p.calls, id)
	}
	return n
}

func (p *pendingSet) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// PendingCall describes a request that is still waiting for a response.
type PendingCall struct {
	ID     int64
	Method string
	Since  time.Time
}

type pendingQueue []PendingCall

func (q pendingQueue) Len() int {
	return len(q)
}

func (q pendingQueue) Less(i, j int) bool {
	return q[i].Since.Before(q[j].Since)
}

func (q pendingQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

// oldest returns up to num pending calls, longest waiting first.
func (p *pendingSet) oldest(num int) []PendingCall {
	p.mu.Lock()
	queue := make(pendingQueue, 0, len(p.calls))
	for id, call := range p.calls {
		queue = append(queue, PendingCall{ID: id, Method: call.method, Since: call.timestamp})
	}
	p.mu.Unlock()

	sort.Sort(queue)
	if num < 0 || num > len(queue) {
		num = len(queue)
	}
	return queue[:num]
}
