package content

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindNetwork covers transport failures, timeouts, 5xx responses and
	// anything else that is not a definite not-found.
	KindNetwork Kind = iota
	// KindNotFound means the content does not exist: an unknown category id,
	// a 404, or an error envelope carrying status 404.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	default:
		return "network"
	}
}

var (
	// ErrNotFound matches any FetchError of KindNotFound.
	ErrNotFound = errors.New("content not found")
	// ErrNetwork matches any FetchError of KindNetwork.
	ErrNetwork = errors.New("content unavailable")
	// ErrMalformed is the cause when a 2xx response cannot be used.
	ErrMalformed = errors.New("malformed content response")
)

// FetchError describes a failed content fetch.
type FetchError struct {
	Kind   Kind
	Slug   string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("content: fetch %s: %s", e.Slug, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and errors.Is(err, ErrNetwork) match by kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// retryableError marks transport failures and 5xx responses.
type retryableError struct {
	status int
	err    error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
