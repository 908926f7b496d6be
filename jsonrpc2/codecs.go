package jsonrpc2

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// Codec is an abstraction for receiving and sending JSONRPC messages.
//
// ReadMessage is only ever called by a single reader at a time. WriteMessage
// must be safe for concurrent use. A ReadMessage error of type *ProtocolError
// means the payload was discarded and the codec is still usable; any other
// error is final.
type Codec interface {
	ReadMessage() (*Message, error)
	WriteMessage(*Message) error
	Close() error
}

var _ Codec = &jsonCodec{}

// IOCodec returns a Codec that encodes one JSON message per line over IO.
func IOCodec(rwc io.ReadWriteCloser) *jsonCodec {
	return &jsonCodec{
		r:      bufio.NewReader(rwc),
		w:      rwc,
		closer: rwc,
	}
}

type jsonCodec struct {
	r      *bufio.Reader
	w      io.Writer
	closer io.Closer

	muWrite sync.Mutex
}

func (codec *jsonCodec) ReadMessage() (*Message, error) {
	for {
		line, err := codec.r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}
		// A trailing line without a newline is still decoded, the error will
		// surface on the next read.
		return DecodeMessage(line)
	}
}

func (codec *jsonCodec) WriteMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	codec.muWrite.Lock()
	defer codec.muWrite.Unlock()
	_, err = codec.w.Write(data)
	return err
}

func (codec *jsonCodec) Close() error {
	return codec.closer.Close()
}

// DebugCodec logs every message that passes through the wrapped codec.
func DebugCodec(label string, codec Codec) Codec {
	return &debugCodec{Codec: codec, label: label}
}

type debugCodec struct {
	Codec
	label string
}

func (codec *debugCodec) ReadMessage() (*Message, error) {
	msg, err := codec.Codec.ReadMessage()
	if err != nil {
		logger.Debugf("%s <- error: %s", codec.label, err)
		return msg, err
	}
	logger.Debugf("%s <- %s", codec.label, msg)
	return msg, nil
}

func (codec *debugCodec) WriteMessage(msg *Message) error {
	logger.Debugf("%s -> %s", codec.label, msg)
	return codec.Codec.WriteMessage(msg)
}
