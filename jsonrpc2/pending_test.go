package jsonrpc2

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestPendingOldest(t *testing.T) {
	now := time.Now()
	p := pendingSet{calls: map[int64]*pendingCall{
		1: {method: "a", timestamp: now.Add(time.Second * 1)},
		2: {method: "b", timestamp: now.Add(time.Second * 2)},
		3: {method: "c", timestamp: now.Add(time.Second * 3)},
		4: {method: "d", timestamp: now.Add(time.Second * 4)},
		5: {method: "e", timestamp: now.Add(time.Second * 5)},
	}}

	ids := []int64{}
	for _, call := range p.oldest(3) {
		ids = append(ids, call.ID)
	}
	if want, got := []int64{1, 2, 3}, ids; !reflect.DeepEqual(got, want) {
		t.Errorf("got: %v; want: %v", got, want)
	}

	if got, want := len(p.oldest(10)), 5; got != want {
		t.Errorf("got: %d; want: %d", got, want)
	}
}

func TestPendingAddResolve(t *testing.T) {
	var p pendingSet

	call, err := p.add(1, "register")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.add(1, "register"); err == nil {
		t.Error("expected duplicate ID error")
	} else {
		var dupErr *ErrDuplicateID
		if !errors.As(err, &dupErr) || dupErr.ID != 1 {
			t.Errorf("got: %v; want *ErrDuplicateID{1}", err)
		}
	}

	if p.resolve(2, &Message{}) {
		t.Error("resolved an ID that was never added")
	}

	msg := &Message{ID: []byte("1")}
	if !p.resolve(1, msg) {
		t.Fatal("failed to resolve pending call")
	}
	if rep := <-call.replyChan; rep.msg != msg || rep.err != nil {
		t.Errorf("got reply: %+v", rep)
	}
	if p.resolve(1, msg) {
		t.Error("resolved the same call twice")
	}
	if got := p.len(); got != 0 {
		t.Errorf("got %d pending; want 0", got)
	}

	// IDs can be reused once resolved.
	if _, err := p.add(1, "upsert_task"); err != nil {
		t.Errorf("failed to reuse ID: %s", err)
	}
}

func TestPendingRemoveOnlySameCall(t *testing.T) {
	var p pendingSet

	stale, err := p.add(1, "search")
	if err != nil {
		t.Fatal(err)
	}
	p.remove(1, stale)
	fresh, err := p.add(1, "search")
	if err != nil {
		t.Fatal(err)
	}
	p.remove(1, stale)
	if !p.has(1) {
		t.Error("stale remove dropped a newer call")
	}
	p.remove(1, fresh)
	if p.has(1) {
		t.Error("call was not removed")
	}
}

func TestPendingCloseAll(t *testing.T) {
	var p pendingSet

	calls := []*pendingCall{}
	for i := int64(1); i <= 3; i++ {
		call, err := p.add(i, "get_task")
		if err != nil {
			t.Fatal(err)
		}
		calls = append(calls, call)
	}

	closeErr := closedError{cause: errors.New("eof")}
	if got := p.closeAll(closeErr); got != 3 {
		t.Errorf("got %d closed; want 3", got)
	}
	for i, call := range calls {
		rep := <-call.replyChan
		if !errors.Is(rep.err, ErrConnectionClosed) {
			t.Errorf("call %d: got %v; want ErrConnectionClosed", i, rep.err)
		}
	}

	if _, err := p.add(4, "get_task"); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("add after close: got %v; want ErrConnectionClosed", err)
	}
	if got := p.closeAll(closedError{}); got != 0 {
		t.Errorf("second close: got %d closed; want 0", got)
	}
}
