package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/jsonrpc2/ws"
	"github.com/vipnode/taskrpc/record"
)

const transcriptDir = "transcript"

// openTranscript opens the transcript store in the data dir.
func openTranscript(options Options) (*record.Store, error) {
	dir, err := findDataDir(options.DataDir)
	if err != nil {
		return nil, err
	}
	return record.Open(filepath.Join(dir, transcriptDir))
}

// session is a connection as configured by the global options.
type session struct {
	options Options
	dial    jsonrpc2.Dialer
	store   *record.Store
}

// newSession prepares the dialer for options: the selected websocket backend,
// wrapped with the transcript recorder when --record is set and with message
// logging at debug verbosity. The session must be Close()'d after use.
func newSession(options Options) (*session, error) {
	dial, err := ws.Dialer(ws.Backend(options.WebSocket))
	if err != nil {
		return nil, err
	}
	s := &session{options: options, dial: dial}
	if options.Record {
		if s.store, err = openTranscript(options); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dial implements jsonrpc2.Dialer. The timeout applies to the handshake.
func (s *session) Dial(ctx context.Context, addr string) (jsonrpc2.Codec, error) {
	if s.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.Timeout)
		defer cancel()
	}
	codec, err := s.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		codec = s.store.Codec(addr, codec)
	}
	if len(s.options.Verbose) >= len(logLevels)-1 {
		codec = jsonrpc2.DebugCodec(addr, codec)
	}
	return codec, nil
}

// Run connects to the configured URL and runs fn with the connection.
func (s *session) Run(ctx context.Context, fn func(*jsonrpc2.Remote) error) error {
	logger.Infof("Connecting to %s (%s)", s.options.URL, s.options.WebSocket)
	return jsonrpc2.WithRemote(ctx, s.Dial, s.options.URL, fn)
}

// CallID is Remote.CallID bounded by the configured timeout.
func (s *session) CallID(ctx context.Context, remote *jsonrpc2.Remote, id int64, method string, params interface{}) (json.RawMessage, error) {
	if s.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.Timeout)
		defer cancel()
	}
	started := time.Now()
	result, err := remote.CallID(ctx, id, method, params)
	logger.Debugf("Call %d %s finished in %s: %v", id, method, time.Since(started), err)
	return result, err
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// envelope rebuilds the response envelope for a finished call, so that it
// can be printed the way it arrived. Errors other than remote errors have no
// envelope and return nil.
func envelope(id int64, result json.RawMessage, err error) *jsonrpc2.Message {
	msg := &jsonrpc2.Message{
		Version:  jsonrpc2.Version,
		ID:       json.RawMessage(strconv.FormatInt(id, 10)),
		Response: &jsonrpc2.Response{Result: result},
	}
	if err == nil {
		return msg
	}
	var remoteErr *jsonrpc2.RemoteError
	if !errors.As(err, &remoteErr) {
		return nil
	}
	msg.Response = &jsonrpc2.Response{Error: remoteErr}
	return msg
}
