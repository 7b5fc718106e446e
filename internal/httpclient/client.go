// Package httpclient builds the HTTP clients the remote storage backends talk through.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/kurum-rebirth/kurum-sync/internal/versions"
)

const (
	// DefaultTimeout bounds a whole request when NewClient gets no timeout.
	// Archive uploads stream large bodies, so it is generous.
	DefaultTimeout = 10 * time.Minute

	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 30 * time.Second
	idleConnTimeout       = 90 * time.Second
	maxIdleConnsPerHost   = 4
)

// UserAgent returns the product token the agent appends to every request
func UserAgent() string {
	return "kurum-sync/" + versions.GetVersionInfo().Version
}

// NewTransport creates a transport with bounded dial, handshake and header
// timeouts that tags requests with UserAgent
func NewTransport() http.RoundTripper {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		IdleConnTimeout:       idleConnTimeout,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
	}
	return &userAgentTransport{base: base, userAgent: UserAgent()}
}

// NewClient creates a client on NewTransport. A zero timeout uses DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: NewTransport(),
		Timeout:   timeout,
	}
}

// userAgentTransport appends its product token to the User-Agent header
// set by the SDK issuing the request
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if existing := req.Header.Get("User-Agent"); existing != "" {
		req.Header.Set("User-Agent", existing+" "+t.userAgent)
	} else {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
