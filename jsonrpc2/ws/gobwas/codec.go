package gobwas

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/vipnode/taskrpc/jsonrpc2"
)

// WebSocketDial returns a Codec that wraps a client-side connection with JSON
// encoding and decoding.
func WebSocketDial(ctx context.Context, url string) (jsonrpc2.Codec, error) {
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	var r io.Reader = conn
	if br != nil {
		// Frames that arrived along with the handshake response.
		r = br
	}
	return clientWebSocketCodec(conn, r), nil
}

func clientWebSocketCodec(conn net.Conn, r io.Reader) *wsCodec {
	codec := &wsCodec{
		conn:  conn,
		write: wsutil.WriteClientMessage,
	}
	codec.rw = readWriter{r, lockedWriter{&codec.muWrite, conn}}
	codec.read = wsutil.ReadServerData
	return codec
}

// serverWebSocketCodec returns a server-side Codec that wraps JSON encoding and
// decoding over a websocket connection.
func serverWebSocketCodec(conn net.Conn, r io.Reader) *wsCodec {
	codec := &wsCodec{
		conn:  conn,
		write: wsutil.WriteServerMessage,
	}
	codec.rw = readWriter{r, lockedWriter{&codec.muWrite, conn}}
	codec.read = wsutil.ReadClientData
	return codec
}

type readWriter struct {
	io.Reader
	io.Writer
}

// lockedWriter shares the codec's write lock with control frame replies
// (pong, close) that wsutil writes while reading.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (lw lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

var _ jsonrpc2.Codec = &wsCodec{}

type wsCodec struct {
	conn  net.Conn
	rw    io.ReadWriter
	read  func(io.ReadWriter) ([]byte, ws.OpCode, error)
	write func(io.Writer, ws.OpCode, []byte) error

	muRead  sync.Mutex
	muWrite sync.Mutex
}

// ReadMessage reads one data frame and decodes it as an envelope. Control
// frames are handled by wsutil. A frame that is not a valid envelope returns a
// *jsonrpc2.ProtocolError and the connection stays usable.
func (codec *wsCodec) ReadMessage() (*jsonrpc2.Message, error) {
	codec.muRead.Lock()
	defer codec.muRead.Unlock()
	data, _, err := codec.read(codec.rw)
	if err != nil {
		return nil, err
	}
	return jsonrpc2.DecodeMessage(data)
}

func (codec *wsCodec) WriteMessage(msg *jsonrpc2.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return codec.WriteRaw(data)
}

// WriteRaw sends data as a single text frame, unchecked.
func (codec *wsCodec) WriteRaw(data []byte) error {
	codec.muWrite.Lock()
	defer codec.muWrite.Unlock()
	return codec.write(codec.conn, ws.OpText, data)
}

func (codec *wsCodec) Close() error {
	return codec.conn.Close()
}

// Upgrader upgrades an HTTP request to a WebSocket request and returns the
// appropriate jsonrpc2 codec.
type Upgrader struct {
	Upgrader ws.HTTPUpgrader
}

func (u *Upgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (jsonrpc2.Codec, error) {
	conn, rw, _, err := u.Upgrader.Upgrade(r, w)
	if err != nil {
		return nil, err
	}
	var reader io.Reader = conn
	if rw != nil {
		reader = rw.Reader
	}
	return serverWebSocketCodec(conn, reader), nil
}
