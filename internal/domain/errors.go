package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a connection client can report.
type ErrorKind int

const (
	// KindNetwork covers transport failures: refused connections, dropped streams.
	KindNetwork ErrorKind = iota + 1
	// KindMalformed covers responses or events whose body could not be decoded.
	KindMalformed
	// KindPrecondition covers calls rejected before any I/O (no client ID, no symbols, not connected).
	KindPrecondition
	// KindAuth covers login failures and missing tokens.
	KindAuth
	// KindRejected covers well-formed responses that report failure, e.g. {success:false}.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	case KindPrecondition:
		return "precondition"
	case KindAuth:
		return "auth"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Sentinel errors for the precondition and auth paths.
var (
	ErrNoClientID   = errors.New("client id is required")
	ErrNotConnected = errors.New("not connected")
	ErrNoSymbols    = errors.New("no symbols selected")
	ErrNoToken      = errors.New("no session token")
	ErrNoContact    = errors.New("no contact selected")
)

// Error is the error type returned by every outbound operation.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

// NewError wraps err with an operation name and a kind.
func NewError(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err, or 0 when err is not a *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Message returns the user-facing part of err, without the operation prefix.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Err != nil {
		return de.Err.Error()
	}
	return err.Error()
}
