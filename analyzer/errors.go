package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchError describes a page that could not be retrieved or parsed
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Errorf("%s: %w", e.Kind, e.Err).Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classifyError maps a transport error to an ErrorKind
func classifyError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}
	return KindOther
}

func kindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return classifyError(err)
}
