package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/tasks"
)

var errInvalidParams = errors.New("params must be a JSON object")

// parseParams validates the params argument of the call command.
func parseParams(arg string) (json.RawMessage, error) {
	if arg == "" {
		return json.RawMessage(`{}`), nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arg), &fields); err != nil || fields == nil {
		return nil, ErrExplain{errInvalidParams, fmt.Sprintf(`Could not parse %q. Quote the params, for example: '{"id":"T-2"}'`, arg)}
	}
	return json.RawMessage(arg), nil
}

func runCall(options Options, out io.Writer) error {
	params, err := parseParams(options.Call.Args.Params)
	if err != nil {
		return err
	}
	s, err := newSession(options)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Run(context.Background(), func(remote *jsonrpc2.Remote) error {
		return call(context.Background(), s, remote, options.Call.Args.Method, params, out)
	})
}

// call registers with id 1, then issues method with id 2 and prints its
// response envelope, error responses included.
func call(ctx context.Context, s *session, remote *jsonrpc2.Remote, method string, params json.RawMessage, out io.Writer) error {
	reg := tasks.RegisterRequest{WorkerID: s.options.WorkerID, AuthToken: s.options.Token}
	result, err := s.CallID(ctx, remote, 1, tasks.MethodRegister, reg)
	if err != nil {
		return err
	}
	var registered tasks.RegisterResponse
	if err := json.Unmarshal(result, &registered); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", tasks.MethodRegister, err)
	}
	logger.Infof("Registered as %s with session %s", s.options.WorkerID, registered.Session)

	if method != tasks.MethodRegister {
		if params, err = tasks.WithSession(params, registered.Session); err != nil {
			return err
		}
	}

	result, callErr := s.CallID(ctx, remote, 2, method, params)
	msg := envelope(2, result, callErr)
	if msg == nil {
		return callErr
	}
	formatted, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(formatted))
	return callErr
}
