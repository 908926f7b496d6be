package jsonrpc2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

type FruitService struct{}

func (f *FruitService) Apple() string {
	return "Apple"
}

func (f *FruitService) Banana() error {
	return nil
}

func (f *FruitService) Cherry() (string, error) {
	return "Cherry", nil
}

func (f *FruitService) Durian() error {
	return errors.New("durian failure")
}

type EggplantParams struct {
	Count int `json:"count"`
}

func (f *FruitService) Eggplant(p EggplantParams) (string, error) {
	if p.Count < 0 {
		return "", &RemoteError{Code: 400, Message: "negative count"}
	}
	return fmt.Sprintf("%d eggplants", p.Count), nil
}

type Pinger struct {
	PongService Service
}

func (f *Pinger) Ping() string {
	return "ping"
}

func (f *Pinger) PingPong() string {
	var pong string
	err := f.PongService.Call(context.Background(), &pong, "pong", nil)
	if err != nil {
		return fmt.Sprintf("err: %s", err)
	}
	return "ping" + pong
}

type Ponger struct{}

func (b *Ponger) Pong() string {
	return "pong"
}

type FibParams struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Steps int `json:"steps"`
}

type Fib struct{}

func (f *Fib) Fibonacci(ctx context.Context, p FibParams) (int, error) {
	service, err := CtxService(ctx)
	if err != nil {
		return 0, err
	}
	a, b := p.B, p.A+p.B
	if p.Steps <= 0 {
		return b, nil
	}
	if err := service.Call(ctx, &b, "fibonacci", FibParams{a, b, p.Steps - 1}); err != nil {
		return 0, err
	}
	return b, nil
}

func assertEqualJSON(t *testing.T, a, b interface{}, format string, args ...interface{}) {
	t.Helper()

	aa, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(aa, bb) {
		prefix := fmt.Sprintf(format, args...)
		t.Errorf(prefix+"\n   got: %q\n  want: %q", aa, bb)
	}
}

// testPeer is the far end of a pipe that speaks raw envelopes, standing in
// for a remote service.
type testPeer struct {
	codec *jsonCodec
	conn  net.Conn
}

func pipeRemote() (*Remote, *testPeer) {
	c1, c2 := net.Pipe()
	r := &Remote{Codec: IOCodec(c1)}
	go r.Serve()
	return r, &testPeer{codec: IOCodec(c2), conn: c2}
}

func (p *testPeer) readRequest(t *testing.T) *Message {
	t.Helper()
	msg, err := p.codec.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if msg.Request == nil {
		t.Fatalf("expected a request, got: %s", msg)
	}
	return msg
}

func (p *testPeer) reply(id json.RawMessage, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return p.codec.WriteMessage(&Message{
		Version:  Version,
		ID:       id,
		Response: &Response{Result: raw},
	})
}

func (p *testPeer) replyError(id json.RawMessage, code int, message string) error {
	return p.codec.WriteMessage(&Message{
		Version:  Version,
		ID:       id,
		Response: &Response{Error: &RemoteError{Code: code, Message: message}},
	})
}

func (p *testPeer) writeRaw(line string) error {
	_, err := p.conn.Write([]byte(line + "\n"))
	return err
}

// waitPending polls until r has num pending calls.
func waitPending(t *testing.T, r *Remote, num int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.Pending() != num {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending calls, have %d", num, r.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}
