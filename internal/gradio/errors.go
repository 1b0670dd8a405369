package gradio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFunctionNotFound matches any CallError whose Kind is KindNotFound.
var ErrFunctionNotFound = errors.New("gradio: function not found")

// ErrKind classifies a failed call.
type ErrKind int

const (
	// KindTransport covers network and request construction failures.
	KindTransport ErrKind = iota

	// KindHTTP is a non-success HTTP status other than 404.
	KindHTTP

	// KindNotFound means the Space does not expose the requested function.
	KindNotFound

	// KindRemote is an error event raised by the function itself.
	KindRemote

	// KindProtocol means the Space answered with something unparseable.
	KindProtocol
)

func (k ErrKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindNotFound:
		return "not-found"
	case KindRemote:
		return "remote"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// notFoundMarker is the phrase Gradio uses when an api_name is unknown.
const notFoundMarker = "Cannot find a function"

// CallError is returned by Client.Call for every failure.
type CallError struct {
	Kind    ErrKind
	Fn      string
	Status  int // HTTP status, 0 when not applicable
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gradio: %s", e.Fn)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *CallError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFunctionNotFound) match not-found call errors.
func (e *CallError) Is(target error) bool {
	return target == ErrFunctionNotFound && e.Kind == KindNotFound
}

// remoteError builds the error for a Gradio "error" event, promoting the
// unknown-function message to KindNotFound.
func remoteError(fn, msg string) *CallError {
	kind := KindRemote
	if strings.Contains(msg, notFoundMarker) {
		kind = KindNotFound
	}
	return &CallError{Kind: kind, Fn: fn, Message: msg}
}
