package agent

import (
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies adapter failures so the orchestrator and the retry
// wrapper can decide what to do with them.
type ErrorKind int

const (
	// KindUnavailable means the adapter is misconfigured (missing key or
	// endpoint). Calling again will not help.
	KindUnavailable ErrorKind = iota
	// KindTransport covers network failures, timeouts and non-2xx remote
	// statuses. Worth retrying.
	KindTransport
	// KindParse means the remote answered but the body made no sense.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is the tagged result type every adapter returns on failure.
type Error struct {
	Kind ErrorKind
	Op   string // e.g. "vision.tags", "advisor.advise"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errUnavailable(op, msg string) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Err: errors.New(msg)}
}

func errTransport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func errParse(op string, err error) *Error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// IsRetryable reports whether err is worth another attempt: transport-class
// adapter errors and raw network timeouts qualify, credential and parse
// errors do not.
func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == KindTransport
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
