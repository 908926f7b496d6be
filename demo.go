package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/tasks"
)

type demoCall struct {
	ID     int64
	Method string
	Params func(session string) interface{}
}

// demoCalls is the register, upsert_task, search, get_task sequence with
// fixed ids.
var demoCalls = []demoCall{
	{2, tasks.MethodUpsertTask, func(session string) interface{} {
		return tasks.UpsertTaskRequest{
			Auth:  tasks.Auth{Session: session},
			ID:    "T-2",
			Title: "FTS5 test",
			Text:  "This is a quick brown fox task",
			Meta:  map[string]string{"prio": "P2"},
		}
	}},
	{3, tasks.MethodSearch, func(session string) interface{} {
		return tasks.SearchRequest{
			Auth:      tasks.Auth{Session: session},
			Q:         "quick NEAR/1 brown",
			Highlight: true,
		}
	}},
	{4, tasks.MethodGetTask, func(session string) interface{} {
		return tasks.GetTaskRequest{
			Auth: tasks.Auth{Session: session},
			ID:   "T-2",
		}
	}},
}

func runDemo(options Options, out io.Writer) error {
	s, err := newSession(options)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Run(context.Background(), func(remote *jsonrpc2.Remote) error {
		return demo(context.Background(), s, remote, out)
	})
}

func demo(ctx context.Context, s *session, remote *jsonrpc2.Remote, out io.Writer) error {
	fmt.Fprintln(out, "connected")

	printed := func(id int64, result json.RawMessage, err error) error {
		if msg := envelope(id, result, err); msg != nil {
			fmt.Fprintln(out, "->", msg)
		}
		return err
	}

	reg := tasks.RegisterRequest{WorkerID: s.options.WorkerID, AuthToken: s.options.Token}
	result, err := s.CallID(ctx, remote, 1, tasks.MethodRegister, reg)
	if err := printed(1, result, err); err != nil {
		return err
	}
	var registered tasks.RegisterResponse
	if err := json.Unmarshal(result, &registered); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", tasks.MethodRegister, err)
	}
	fmt.Fprintln(out, "Session ID:", registered.Session)

	for _, call := range demoCalls {
		result, err := s.CallID(ctx, remote, call.ID, call.Method, call.Params(registered.Session))
		if err := printed(call.ID, result, err); err != nil {
			return err
		}
	}
	return nil
}
