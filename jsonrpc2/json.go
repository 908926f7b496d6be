package jsonrpc2

import (
	"encoding/json"
	"errors"
)

// Helpers for JSON parsing

// isArray returns true if the message is a JSON array (starts
// with '[', spaces skipped).
func isArray(raw []byte) bool {
	for _, b := range raw {
		if isSpace(b) {
			continue
		}
		return b == '['
	}
	return false
}

// isSpace returns true if the byte is considered a space in JSON syntax.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// DecodeMessage parses a single envelope. Any failure is returned as a
// *ProtocolError so that readers can drop the payload and keep going.
func DecodeMessage(data []byte) (*Message, error) {
	if isArray(data) {
		return nil, &ProtocolError{Raw: data, Cause: errors.New("batch messages are not supported")}
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &ProtocolError{Raw: data, Cause: err}
	}
	if err := checkVersion(msg.Version); err != nil {
		return nil, &ProtocolError{Raw: data, Cause: err}
	}
	if msg.Request == nil && msg.Response == nil {
		return nil, &ProtocolError{Raw: data, Cause: errors.New("neither a request nor a response")}
	}
	return &msg, nil
}
