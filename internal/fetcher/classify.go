package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Class names the kind of failure an attempt ran into. It mostly drives
// logging: every class except NotFound and TooLarge is retried the same way.
type Class string

const (
	ClassOK          Class = "ok"
	ClassNotFound    Class = "not found"
	ClassForbidden   Class = "forbidden"
	ClassRateLimited Class = "rate limited"
	ClassClient      Class = "client error"
	ClassServer      Class = "server error"
	ClassUnexpected  Class = "unexpected status"
	ClassTimeout     Class = "timeout"
	ClassNetwork     Class = "network error"
	ClassRequest     Class = "request error"
	ClassTooLarge    Class = "response too large"
)

func ClassifyStatus(code int) Class {
	switch {
	case code == http.StatusOK:
		return ClassOK
	case code == http.StatusNotFound:
		return ClassNotFound
	case code == http.StatusForbidden:
		return ClassForbidden
	case code == http.StatusTooManyRequests, code == http.StatusServiceUnavailable:
		return ClassRateLimited
	case code >= 400 && code < 500:
		return ClassClient
	case code >= 500 && code < 600:
		return ClassServer
	default:
		return ClassUnexpected
	}
}

func ClassifyError(err error) Class {
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return ClassNetwork
	}

	return ClassRequest
}

// AttemptError is one failed attempt, carrying its classification.
type AttemptError struct {
	URL    string
	Class  Class
	Status int
	Err    error
}

func (e *AttemptError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Class, e.Status, e.URL)
	}
	return fmt.Sprintf("%s (%v): %s", e.Class, e.Err, e.URL)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}
