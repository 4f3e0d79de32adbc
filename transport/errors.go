package transport

import (
	"errors"
	"fmt"
)

// ErrConnection marks failures to establish or keep the websocket session.
// Callers treat it as fatal for the run.
var ErrConnection = errors.New("transport: connection failed")

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("transport: session closed")

// RemoteError is a JSON-RPC response that carried an error object, or one
// that came back without a result field. It is a normal outcome of a call,
// never a reason to tear the session down; every call site checks for it
// and degrades explicitly.
type RemoteError struct {
	Method  string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote error on %s: %s (code %d)", e.Method, e.Message, e.Code)
	}
	return fmt.Sprintf("remote error on %s: %s", e.Method, e.Message)
}

// IsRemote reports whether err is (or wraps) a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
