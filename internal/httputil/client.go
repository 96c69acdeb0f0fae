package httputil

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a single outbound provider call. Retries are
// handled above this layer.
const DefaultTimeout = 10 * time.Second

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
