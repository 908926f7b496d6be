package jsonrpc2

import (
	"context"
	"sync/atomic"
)

// Dialer establishes a connection to addr and returns a Codec for it, such as
// gorilla.WebSocketDial.
type Dialer func(ctx context.Context, addr string) (Codec, error)

// Open dials addr and returns a Remote with its reader loop already running.
// Dial failures are returned as *ConnectionError. The Remote must be
// Close()'d after use.
func Open(ctx context.Context, dial Dialer, addr string) (*Remote, error) {
	codec, err := dial(ctx, addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Cause: err}
	}
	r := &Remote{
		Codec:  codec,
		Client: &Client{},
		Addr:   addr,
	}
	r.init()
	r.setState(StateOpen)
	atomic.StoreInt32(&r.serving, 1)
	go r.serve()
	logger.Debugf("Connected to %s", addr)
	return r, nil
}

// WithRemote opens a connection, runs fn with it, and closes the connection
// on every way out of fn, including panics. The error returned is fn's.
func WithRemote(ctx context.Context, dial Dialer, addr string, fn func(*Remote) error) error {
	r, err := Open(ctx, dial, addr)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Debugf("WithRemote: close %s: %s", addr, err)
		}
	}()
	return fn(r)
}
