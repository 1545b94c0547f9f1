package httptp

import (
	"net/http"
	"time"
)

// Options configures the HTTP subgraph transport.
//
// Defaults:
// - RequestTimeout:      3s (used only if the incoming context has no deadline)
// - MaxIdleConnsPerHost: 2
//
// All options are safe to leave zero-valued to use defaults.
type Options struct {
	RequestTimeout      time.Duration
	MaxIdleConnsPerHost int

	// Headers are set on every request to the subgraph.
	Headers http.Header

	// Client overrides the transport's HTTP client entirely.
	Client *http.Client
}

// Option mutates Options
//
// Use WithX helpers below.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		RequestTimeout:      3 * time.Second,
		MaxIdleConnsPerHost: 2,
	}
}

func WithRequestTimeout(d time.Duration) Option { return func(o *Options) { o.RequestTimeout = d } }
func WithMaxIdleConnsPerHost(n int) Option      { return func(o *Options) { o.MaxIdleConnsPerHost = n } }
func WithHeader(key, val string) Option {
	return func(o *Options) {
		if o.Headers == nil {
			o.Headers = http.Header{}
		}
		o.Headers.Add(key, val)
	}
}
func WithClient(c *http.Client) Option { return func(o *Options) { o.Client = c } }
