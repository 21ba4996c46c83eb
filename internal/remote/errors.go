package remote

import (
	"errors"
	"fmt"
	"net"
)

// StatusError reports a non-2xx response from the remote service.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote service returned %s", e.Status)
}

// IsTransient reports whether the error looks like a temporary network
// failure (connection or timeout) rather than a protocol-level
// rejection. Either way the current sync pass is aborted; the
// distinction only affects how the failure is reported.
func IsTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
