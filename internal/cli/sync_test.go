package cli

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/davep/oldnews/internal/remote"
)

func TestRefreshError(t *testing.T) {
	network := refreshError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
	if !strings.Contains(network.Error(), "network problem") {
		t.Errorf("network failure reported as %q", network.Error())
	}

	cause := &remote.StatusError{StatusCode: 500, Status: "500 Internal Server Error"}
	service := refreshError(cause)
	if strings.Contains(service.Error(), "network problem") {
		t.Errorf("service rejection reported as %q", service.Error())
	}
	var statusErr *remote.StatusError
	if !errors.As(service, &statusErr) {
		t.Error("refreshError should keep the cause unwrappable")
	}
}
