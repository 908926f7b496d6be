package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/tasks"
)

// Version of the binary, assigned during build.
var Version string = "dev"

// Options contains the flag options
type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version bool   `long:"version" description:"Print version and exit."`

	URL       string        `long:"url" ini-name:"url" env:"MCP_URL" default:"ws://127.0.0.1:8765" description:"Websocket URL of the task service."`
	Token     string        `long:"token" ini-name:"token" env:"MCP_TOKEN" default:"devtoken" description:"Auth token sent with register."`
	WorkerID  string        `long:"worker-id" ini-name:"worker-id" default:"go-client" description:"Worker identity sent with register."`
	WebSocket string        `long:"websocket" ini-name:"websocket" choice:"gorilla" choice:"gobwas" default:"gorilla" description:"Websocket implementation."`
	Timeout   time.Duration `long:"timeout" ini-name:"timeout" default:"10s" description:"Timeout for connecting and for each call."`
	Record    bool          `long:"record" ini-name:"record" description:"Record every envelope sent and received to the transcript in the data dir."`
	DataDir   string        `long:"datadir" ini-name:"datadir" description:"Path for the transcript. (default: $XDG_DATA_HOME/taskrpc)"`

	Demo struct {
	} `command:"demo" description:"Run the register, upsert_task, search, get_task sequence."`

	Call struct {
		Args struct {
			Method string `positional-arg-name:"method" required:"yes" description:"Remote method name, such as get_task."`
			Params string `positional-arg-name:"params-json" description:"Params object as JSON."`
		} `positional-args:"yes"`
	} `command:"call" description:"Register, then call one method and print the response."`

	History struct {
		Limit int  `long:"limit" default:"20" description:"Number of most recent entries to show, 0 for all."`
		Clear bool `long:"clear" description:"Delete the transcript instead of printing it."`
	} `command:"history" description:"Print the recorded transcript."`
}

const callUsage = `Examples:
* Fetch a task:
  $ taskrpc call get_task '{"id":"T-2"}'

* Search with highlighting:
  $ taskrpc call search '{"q":"quick NEAR/1 brown","highlight":true}'
`

func subcommand(cmd string, options Options) error {
	switch cmd {
	case "demo":
		return runDemo(options, os.Stdout)
	case "call":
		return runCall(options, os.Stdout)
	case "history":
		return runHistory(options, os.Stdout)
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	parser.SubcommandsOptional = true

	if err := loadConfig(parser, findConfigFile()); err != nil {
		exit(1, "failed to load config: %s\n", err)
	}

	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Println(err)
		}
		flagErr, ok := err.(*flags.Error)
		if ok && flagErr.Type == flags.ErrHelp {
			if parser.Active != nil && parser.Active.Name == "call" {
				// Print additional usage help when run with --help
				exit(0, callUsage)
			}
			return
		}
		os.Exit(1)
	}

	if options.Version {
		fmt.Println(Version)
		os.Exit(0)
	}

	setupLogging(len(options.Verbose), os.Stderr)

	cmd := "demo"
	if parser.Active != nil {
		cmd = parser.Active.Name
	}
	err = subcommand(cmd, options)
	if err == nil {
		return
	}

	exit(explainCode(err), "%s failed: %s\n", cmd, explain(err))
}

// explain wraps known errors with ErrExplain for user-friendliness.
func explain(err error) error {
	var explained ErrExplain
	if errors.As(err, &explained) {
		return err
	}

	var connErr *jsonrpc2.ConnectionError
	var netErr net.Error
	var remoteErr interface{ ErrorCode() int }
	switch {
	case errors.As(err, &connErr):
		return ErrExplain{err, fmt.Sprintf(`Could not connect to the task service at %q. Make sure it is running, or point --url (or MCP_URL) at it.`, connErr.Addr)}
	case errors.Is(err, jsonrpc2.ErrConnectionClosed):
		return ErrExplain{err, `Disconnected from server while calls were pending. Could be a connectivity issue or the server is down. Try again?`}
	case errors.Is(err, context.DeadlineExceeded):
		return ErrExplain{err, `No response before the timeout. Try again with a larger --timeout.`}
	case errors.As(err, &netErr):
		return ErrExplain{err, `Disconnected from server unexpectedly. Could be a connectivity issue or the server is down. Try again?`}
	case errors.As(err, &remoteErr):
		switch remoteErr.ErrorCode() {
		case tasks.CodeUnauthorized:
			return ErrExplain{err, `The service rejected the auth token. Set it with --token (or MCP_TOKEN).`}
		case tasks.CodeNotFound:
			return ErrExplain{err, `No such task, or it is archived.`}
		case tasks.CodeConflict:
			return ErrExplain{err, `The task was changed concurrently or is archived. Fetch it again and retry.`}
		case jsonrpc2.ErrCodeMethodNotFound:
			return ErrExplain{err, `The service does not know this method.`}
		}
		return ErrExplain{err, fmt.Sprintf(`Unexpected RPC error occurred (code %d).`, remoteErr.ErrorCode())}
	}
	return ErrExplain{err, fmt.Sprintf(`Error type %T is missing an explanation.`, err)}
}

// explainCode returns the exit code for err: 3 for a dropped connection, 4
// for remote errors, 2 for everything else.
func explainCode(err error) int {
	var remoteErr *jsonrpc2.RemoteError
	switch {
	case errors.Is(err, jsonrpc2.ErrConnectionClosed), errors.Is(err, io.EOF):
		return 3
	case errors.As(err, &remoteErr):
		return 4
	}
	return 2
}

func exit(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

// ErrExplain annotates an error with an explanation.
type ErrExplain struct {
	Cause       error
	Explanation string
}

func (err ErrExplain) Error() string {
	return fmt.Sprintf("%s\n -> %s", err.Cause, err.Explanation)
}

func (err ErrExplain) Unwrap() error {
	return err.Cause
}
