package jsonrpc2

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed is returned to every call that was still waiting for a
// response when the connection went away. Errors returned by Remote wrap it,
// use errors.Is to check.
var ErrConnectionClosed = errors.New("jsonrpc2: connection closed")

// ConnectionError is returned when a connection could not be established.
type ConnectionError struct {
	Addr  string
	Cause error
}

func (err *ConnectionError) Error() string {
	return fmt.Sprintf("jsonrpc2: failed to connect to %s: %s", err.Addr, err.Cause)
}

func (err *ConnectionError) Unwrap() error {
	return err.Cause
}

// ProtocolError is returned by codecs when an inbound payload is not a valid
// JSONRPC envelope. The reader loop drops these and keeps reading.
type ProtocolError struct {
	Raw   []byte
	Cause error
}

func (err *ProtocolError) Error() string {
	return fmt.Sprintf("jsonrpc2: invalid message: %s", err.Cause)
}

func (err *ProtocolError) Unwrap() error {
	return err.Cause
}

// ErrDuplicateID is returned when a call is made with an ID that is already
// waiting for a response on the same connection. Nothing is sent.
type ErrDuplicateID struct {
	ID int64
}

func (err *ErrDuplicateID) Error() string {
	return fmt.Sprintf("jsonrpc2: request id already pending: %d", err.ID)
}

// closedError wraps ErrConnectionClosed with the reason the connection went
// away.
type closedError struct {
	cause error
}

func (err closedError) Error() string {
	if err.cause == nil {
		return ErrConnectionClosed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConnectionClosed, err.cause)
}

func (err closedError) Is(target error) bool {
	return target == ErrConnectionClosed
}

func (err closedError) Unwrap() error {
	return err.cause
}
