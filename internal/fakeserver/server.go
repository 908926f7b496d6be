package fakeserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/jsonrpc2/ws"
)

// Option configures a Server.
type Option func(*Server)

// WithBackend selects the websocket implementation used by the server.
func WithBackend(backend ws.Backend) Option {
	return func(s *Server) {
		s.backend = backend
	}
}

// WithNoise makes the server send the given raw frames before every response,
// such as malformed JSON or responses for unknown ids.
func WithNoise(frames ...string) Option {
	return func(s *Server) {
		s.noise = append(s.noise, frames...)
	}
}

// Server serves a Service over websocket on a local port.
type Server struct {
	*Service

	// URL is the ws:// address of the server.
	URL string

	backend ws.Backend
	noise   []string
	http    *httptest.Server

	mu    sync.Mutex
	conns []jsonrpc2.Codec
}

// Start serves svc on a random local port until Close is called.
func Start(svc *Service, opts ...Option) (*Server, error) {
	s := &Server{Service: svc}
	for _, opt := range opts {
		opt(s)
	}

	rpc, err := svc.RPCServer()
	if err != nil {
		return nil, err
	}
	upgrader, err := ws.NewUpgrader(s.backend)
	if err != nil {
		return nil, err
	}
	s.http = httptest.NewServer(ws.Handler(trackingUpgrader{upgrader, s}, rpc))
	s.URL = "ws" + strings.TrimPrefix(s.http.URL, "http")
	return s, nil
}

// Drop closes every open websocket connection from the server side.
func (s *Server) Drop() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, codec := range conns {
		codec.Close()
	}
}

// Close drops all connections and shuts down the server.
func (s *Server) Close() {
	s.Drop()
	s.http.Close()
}

func (s *Server) track(codec jsonrpc2.Codec) jsonrpc2.Codec {
	if len(s.noise) > 0 {
		codec = &noisyCodec{Codec: codec, noise: s.noise}
	}
	s.mu.Lock()
	s.conns = append(s.conns, codec)
	s.mu.Unlock()
	return codec
}

type rawWriter interface {
	WriteRaw([]byte) error
}

type trackingUpgrader struct {
	ws.Upgrader
	server *Server
}

func (u trackingUpgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (jsonrpc2.Codec, error) {
	codec, err := u.Upgrader.Upgrade(r, w, h)
	if err != nil {
		return nil, err
	}
	return u.server.track(codec), nil
}

type noisyCodec struct {
	jsonrpc2.Codec
	noise []string
}

func (codec *noisyCodec) WriteMessage(msg *jsonrpc2.Message) error {
	if raw, ok := codec.Codec.(rawWriter); ok && msg.Response != nil {
		for _, frame := range codec.noise {
			if err := raw.WriteRaw([]byte(frame)); err != nil {
				return err
			}
		}
	}
	return codec.Codec.WriteMessage(msg)
}
