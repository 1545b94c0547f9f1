package httptp

import "errors"

var (
	// ErrNoEndpoint indicates the transport was constructed without a URL.
	ErrNoEndpoint = errors.New("httptp: no endpoint configured")
)
