package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failed fetch.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindStatus
	KindContentType
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindContentType:
		return "content type"
	default:
		return "network"
	}
}

// Error is returned for every request that did not produce a usable page.
type Error struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	case KindContentType:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// transient reports whether another attempt may succeed.
func (e *Error) transient() bool {
	return e.Kind == KindTimeout || (e.Kind == KindStatus && e.Status >= 500 && e.Status <= 599)
}

// IsTimeout reports whether err is a fetch that ran out of time.
func IsTimeout(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindTimeout
}

// IsStatus reports whether err is a non-2xx response.
func IsStatus(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindStatus
}

func transportError(url string, err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindTimeout, URL: url, Err: err}
	}
	return &Error{Kind: KindNetwork, URL: url, Err: err}
}
