package webview

import (
	"errors"
	"fmt"
	"syscall"
)

// Sentinel errors.
var (
	// ErrClosed is returned by operations on a closed bridge.
	ErrClosed = errors.New("bridge closed")
	// ErrRendererUnrecoverable means crash recovery gave up.
	ErrRendererUnrecoverable = errors.New("renderer could not be recovered")
	// ErrNoHelperPaths means no renderer executable could be found.
	ErrNoHelperPaths = errors.New("no renderer executable found")
)

// ErrorKind classifies bridge errors by how they propagate.
type ErrorKind int

const (
	// KindConstruction errors stop a bridge from being created or a
	// renderer from being (re)connected.
	KindConstruction ErrorKind = iota
	// KindRuntime errors come from a running renderer, such as a crash.
	KindRuntime
	// KindRequest errors belong to a single renderer request and are
	// reported back to the renderer rather than escalated.
	KindRequest
)

// String returns a human-readable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConstruction:
		return "construction"
	case KindRuntime:
		return "runtime"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error wraps a bridge failure with its kind and the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("webview %s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("webview %s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

func constructionError(op string, err error) *Error {
	return &Error{Kind: KindConstruction, Op: op, Err: err}
}

func runtimeError(op string, err error) *Error {
	return &Error{Kind: KindRuntime, Op: op, Err: err}
}

// IsConstruction reports whether err is a construction failure.
func IsConstruction(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConstruction
}

// errnoOf extracts the platform error number from err, falling back to
// EIO for errors that carry none.
func errnoOf(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return int(syscall.EIO)
}
