package youtube

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"video-qa/shared/config"
)

// userAgentTransport attaches a browser identification header to requests
// that do not already carry one.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	return t.base.RoundTrip(req)
}

// NewProxyHTTPClient builds a client that routes every request through
// the given proxy. Each proxy gets its own client so no state is shared
// between attempts.
func NewProxyHTTPClient(p config.ProxyConfig, userAgent string, timeout time.Duration) (*http.Client, error) {
	httpProxy, err := parseProxyURL(p.HTTP)
	if err != nil {
		return nil, err
	}
	httpsProxy, err := parseProxyURL(p.HTTPS)
	if err != nil {
		return nil, err
	}
	if httpProxy == nil {
		httpProxy = httpsProxy
	}
	if httpsProxy == nil {
		httpsProxy = httpProxy
	}
	if httpProxy == nil {
		return nil, fmt.Errorf("proxy config has neither http nor https endpoint")
	}

	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" {
				return httpsProxy, nil
			}
			return httpProxy, nil
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: transport, userAgent: userAgent},
	}, nil
}

// NewHTTPClient returns a direct client with the browser header attached.
func NewHTTPClient(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: userAgent},
	}
}

func parseProxyURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: missing host", u.Redacted())
	}
	return u, nil
}
