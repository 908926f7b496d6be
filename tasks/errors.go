package tasks

import (
	"errors"

	"github.com/vipnode/taskrpc/jsonrpc2"
)

// Error codes used by the task service in remote error responses.
const (
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeInternal     = 500
)

// ErrorCode returns the remote error code carried by err, or 0 if err is not a
// remote error.
func ErrorCode(err error) int {
	var remoteErr *jsonrpc2.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Code
	}
	return 0
}

// IsNotFound returns true if the service reported that the task does not
// exist or is archived.
func IsNotFound(err error) bool { return ErrorCode(err) == CodeNotFound }

// IsUnauthorized returns true if the service rejected the credentials.
func IsUnauthorized(err error) bool { return ErrorCode(err) == CodeUnauthorized }

// IsConflict returns true if a conditional write lost against a newer vclock,
// or the task is archived.
func IsConflict(err error) bool { return ErrorCode(err) == CodeConflict }
