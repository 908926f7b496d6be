package jsonrpc2

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const Version = "2.0"

const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeServer         = -32000
)

// Message is a single JSONRPC envelope as it appears on the wire. Exactly one
// of Request or Response is expected to be set.
type Message struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`

	*Request
	*Response
}

func (m *Message) String() string {
	s, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("<invalid message: %s>", err)
	}
	return string(s)
}

// IntID returns the message ID as an integer. Only integer IDs are used by
// this package, anything else is a protocol error.
func (m *Message) IntID() (int64, error) {
	if len(m.ID) == 0 || string(m.ID) == "null" {
		return 0, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(string(m.ID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("non-integer id: %s", m.ID)
	}
	return id, nil
}

type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// UnmarshalResult decodes the response result into result, or returns the
// remote error if one is set. Empty and null results are not decoded.
func (resp *Response) UnmarshalResult(result interface{}) error {
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}

// RemoteError is an application-level error returned by the other side of
// the connection inside an error envelope.
type RemoteError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (err *RemoteError) Error() string {
	return fmt.Sprintf("%d: %s", err.Code, err.Message)
}

// ErrorCode returns the JSONRPC error code.
func (err *RemoteError) ErrorCode() int {
	return err.Code
}

// NewRequest returns a request message with the given ID. Params are encoded
// as-is, nil params are omitted.
func NewRequest(id int64, method string, params interface{}) (*Message, error) {
	msg := &Message{
		Version: Version,
		ID:      json.RawMessage(strconv.FormatInt(id, 10)),
		Request: &Request{
			Method: method,
		},
	}
	if params == nil {
		return msg, nil
	}
	var err error
	if raw, ok := params.(json.RawMessage); ok {
		msg.Request.Params = raw
	} else if msg.Request.Params, err = json.Marshal(params); err != nil {
		return nil, err
	}
	return msg, nil
}
