package ws

import (
	"context"
	"fmt"

	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/jsonrpc2/ws/gobwas"
	"github.com/vipnode/taskrpc/jsonrpc2/ws/gorilla"
)

// Backend names a websocket implementation.
type Backend string

const (
	Gorilla Backend = "gorilla"
	Gobwas  Backend = "gobwas"
)

// DefaultBackend is used when no backend is named.
const DefaultBackend = Gorilla

// ErrUnknownBackend is returned when a backend name is not recognized.
type ErrUnknownBackend struct {
	Name string
}

func (err ErrUnknownBackend) Error() string {
	return fmt.Sprintf("unknown websocket backend: %q (available: %s, %s)", err.Name, Gorilla, Gobwas)
}

// Dialer returns the jsonrpc2.Dialer for the named backend. An empty name
// selects DefaultBackend.
func Dialer(backend Backend) (jsonrpc2.Dialer, error) {
	switch backend {
	case "", Gorilla:
		return gorilla.WebSocketDial, nil
	case Gobwas:
		return gobwas.WebSocketDial, nil
	}
	return nil, ErrUnknownBackend{string(backend)}
}

// NewUpgrader returns the server-side Upgrader for the named backend.
func NewUpgrader(backend Backend) (Upgrader, error) {
	switch backend {
	case "", Gorilla:
		return &gorilla.Upgrader{}, nil
	case Gobwas:
		return &gobwas.Upgrader{}, nil
	}
	return nil, ErrUnknownBackend{string(backend)}
}

// Dial connects to a websocket url with the named backend and returns a codec
// that carries one JSONRPC envelope per text frame.
func Dial(ctx context.Context, backend Backend, url string) (jsonrpc2.Codec, error) {
	dial, err := Dialer(backend)
	if err != nil {
		return nil, err
	}
	return dial(ctx, url)
}
