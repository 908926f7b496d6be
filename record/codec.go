package record

import (
	"encoding/json"

	"github.com/vipnode/taskrpc/jsonrpc2"
)

// Codec wraps codec so that every envelope it reads or writes is appended to
// the store under label. Recording failures are logged, never returned.
func (s *Store) Codec(label string, codec jsonrpc2.Codec) jsonrpc2.Codec {
	return &recordingCodec{Codec: codec, store: s, label: label}
}

type recordingCodec struct {
	jsonrpc2.Codec
	store *Store
	label string
}

func (codec *recordingCodec) record(dir Direction, msg *jsonrpc2.Message) {
	raw, err := json.Marshal(msg)
	if err == nil {
		_, err = codec.store.Append(dir, codec.label, raw)
	}
	if err != nil {
		logger.Warningf("Failed to record %s message for %s: %s", dir, codec.label, err)
	}
}

func (codec *recordingCodec) ReadMessage() (*jsonrpc2.Message, error) {
	msg, err := codec.Codec.ReadMessage()
	if err != nil {
		return msg, err
	}
	codec.record(Received, msg)
	return msg, nil
}

// WriteMessage records before writing, a reply can be read before the write
// returns.
func (codec *recordingCodec) WriteMessage(msg *jsonrpc2.Message) error {
	codec.record(Sent, msg)
	return codec.Codec.WriteMessage(msg)
}
