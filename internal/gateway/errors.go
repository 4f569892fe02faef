package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindValidation Kind = "validation"
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrNetwork    = errors.New("backend unreachable")
	ErrServer     = errors.New("backend error")
	ErrValidation = errors.New("backend rejected request")
)

// Error is the single failure type produced by the gateway. Transport
// failures, non-2xx statuses and success:false envelopes all end up here.
type Error struct {
	Kind     Kind
	Message  string
	Endpoint string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s (status %d): %s", e.Kind, e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

// AsError extracts the *Error from err, or wraps a foreign error as a server failure.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &Error{Kind: KindServer, Message: err.Error(), Err: err}
}
