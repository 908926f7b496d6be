package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	flags "github.com/jessevdk/go-flags"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	ini := `url = ws://tasks.example:8765
worker-id = ini-worker
timeout = 30s
`
	if err := os.WriteFile(path, []byte(ini), 0600); err != nil {
		t.Fatal(err)
	}

	options := Options{}
	parser := flags.NewParser(&options, flags.None)
	if err := loadConfig(parser, path); err != nil {
		t.Fatal(err)
	}
	if _, err := parser.ParseArgs([]string{"--worker-id", "flag-worker", "call", "get_task"}); err != nil {
		t.Fatal(err)
	}

	if got, want := options.URL, "ws://tasks.example:8765"; got != want {
		t.Errorf("got url %q; want %q", got, want)
	}
	if got, want := options.WorkerID, "flag-worker"; got != want {
		t.Errorf("got worker id %q; want %q", got, want)
	}
	if got, want := options.Timeout, 30*time.Second; got != want {
		t.Errorf("got timeout %s; want %s", got, want)
	}
	if got, want := options.WebSocket, "gorilla"; got != want {
		t.Errorf("got websocket %q; want %q", got, want)
	}
	if got, want := options.Call.Args.Method, "get_task"; got != want {
		t.Errorf("got method %q; want %q", got, want)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	options := Options{}
	parser := flags.NewParser(&options, flags.None)
	if err := loadConfig(parser, filepath.Join(t.TempDir(), "nope.ini")); err != nil {
		t.Errorf("missing config file: %s", err)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("TASKRPC_CONFIG", "/etc/taskrpc.ini")
	if got, want := findConfigFile(), "/etc/taskrpc.ini"; got != want {
		t.Errorf("got %q; want %q", got, want)
	}
}

func TestFindDataDir(t *testing.T) {
	want := filepath.Join(t.TempDir(), "data")
	got, err := findDataDir(want)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %q; want %q", got, want)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Errorf("data dir was not created: %v", err)
	}
}
