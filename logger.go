package main

import (
	"io"
	"io/ioutil"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	"github.com/vipnode/taskrpc/jsonrpc2"
	"github.com/vipnode/taskrpc/jsonrpc2/ws"
	"github.com/vipnode/taskrpc/record"
)

var logger *golog.Logger

// SetLogger overrides the main logger of this command.
func SetLogger(l *golog.Logger) {
	logger = l
}

func init() {
	// Set a default null logger
	SetLogger(golog.New(ioutil.Discard, log.Debug))
}

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

// setupLogging picks the log level from the number of -v flags. At debug
// level the subpackages log to w too.
func setupLogging(numVerbose int, w io.Writer) log.Level {
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}
	logLevel := logLevels[numVerbose]

	SetLogger(golog.New(w, logLevel))
	if logLevel == log.Debug {
		// Enable logging from subpackages
		jsonrpc2.SetLogger(w)
		ws.SetLogger(w)
		record.SetLogger(w)
	}
	return logLevel
}
