package jsonrpc2

import (
	"fmt"
	"strings"
)

// checkVersion accepts any "2.x" version string. Some peers omit the version
// entirely on error replies, so an empty version is tolerated too.
//
// Inspired by https://go-review.googlesource.com/c/tools/+/136675/1/internal/jsonrpc2/jsonrpc2.go#221
func checkVersion(version string) error {
	if version == "" || strings.HasPrefix(version, "2.") {
		return nil
	}
	return fmt.Errorf("unsupported version: %q", version)
}
