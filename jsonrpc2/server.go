package jsonrpc2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode"
)

var _ Handler = &Server{}

// Server contains the method registry.
type Server struct {
	registry map[string]Method
}

// Register adds valid methods from the receiver to the registry with the given
// prefix. The first letter of each method name is lowercased.
func (s *Server) Register(prefix string, receiver interface{}) error {
	if s.registry == nil {
		s.registry = map[string]Method{}
	}

	methods, err := Methods(receiver)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for name, m := range methods {
		buf.WriteString(prefix)
		buf.WriteRune(unicode.ToLower(rune(name[0])))
		buf.WriteString(name[1:])
		s.registry[buf.String()] = m
		buf.Reset()
	}
	return nil
}

// RegisterMethod adds a single method of receiver under an explicit RPC name.
func (s *Server) RegisterMethod(rpcName string, receiver interface{}, methodName string) error {
	if s.registry == nil {
		s.registry = map[string]Method{}
	}
	m, err := MethodByName(receiver, methodName)
	if err != nil {
		return err
	}
	s.registry[rpcName] = m
	return nil
}

// Handle executes a request and returns the response to send back. The
// response ID is left for the caller to fill in.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	r := &Response{}
	m, ok := s.registry[req.Method]
	if !ok {
		r.Error = &RemoteError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
		return r
	}
	args, err := m.parseParams(req.Params)
	if err != nil {
		r.Error = &RemoteError{
			Code:    ErrCodeInvalidParams,
			Message: fmt.Sprintf("invalid params: %s", err),
		}
		return r
	}
	res, err := m.Call(ctx, args)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			r.Error = remoteErr
			return r
		}
		r.Error = &RemoteError{
			Code:    ErrCodeInternal,
			Message: err.Error(),
		}
		return r
	}
	if r.Result, err = json.Marshal(res); err != nil {
		r.Error = &RemoteError{
			Code:    ErrCodeServer,
			Message: fmt.Sprintf("failed to encode response: %s", err),
		}
	}
	return r
}
