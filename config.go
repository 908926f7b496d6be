package main

import (
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
	flags "github.com/jessevdk/go-flags"
)

const (
	vendorName = "vipnode"
	appName    = "taskrpc"
)

// findConfigFile returns the path of the ini config file, which may not exist.
func findConfigFile() string {
	if path := os.Getenv("TASKRPC_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(xdg.New(vendorName, appName).ConfigHome(), "config.ini")
}

// findDataDir returns a valid data dir, will create it if it doesn't
// exist.
func findDataDir(overridePath string) (string, error) {
	path := overridePath
	if path == "" {
		path = xdg.New(vendorName, appName).DataHome()
	}
	err := os.MkdirAll(path, 0700)
	return path, err
}

// loadConfig applies the ini config file at path to the parser's options, if
// the file exists. Values set here take precedence over environment
// variables and defaults, command line flags take precedence over them.
func loadConfig(parser *flags.Parser, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	logger.Debugf("Loading config: %s", path)
	return flags.NewIniParser(parser).ParseFile(path)
}
