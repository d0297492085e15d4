package httpclient

import (
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// New returns a timeout-bound client for outbound gateway calls. Timeouts on
// the messaging platform are enforced here, not by the services.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
