package youtube

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/shared/config"
)

func TestNewProxyHTTPClientRoutesThroughProxy(t *testing.T) {
	var gotURL, gotUA string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		gotUA = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, "via proxy")
	}))
	defer proxy.Close()

	client, err := NewProxyHTTPClient(config.ProxyConfig{HTTP: proxy.URL}, "TestBrowser/1.0", 5*time.Second)
	require.NoError(t, err)

	resp, err := client.Get("http://upstream.invalid/api/timedtext?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, "via proxy", string(body))
	assert.Equal(t, "http://upstream.invalid/api/timedtext?v=dQw4w9WgXcQ", gotURL)
	assert.Equal(t, "TestBrowser/1.0", gotUA)
}

func TestNewProxyHTTPClientKeepsExplicitUserAgent(t *testing.T) {
	var gotUA string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer proxy.Close()

	client, err := NewProxyHTTPClient(config.ProxyConfig{HTTPS: proxy.URL}, "TestBrowser/1.0", 5*time.Second)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "http://upstream.invalid/", nil)
	req.Header.Set("User-Agent", "custom/2.0")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "custom/2.0", gotUA)
}

func TestNewProxyHTTPClientInvalid(t *testing.T) {
	_, err := NewProxyHTTPClient(config.ProxyConfig{}, "ua", time.Second)
	assert.Error(t, err)

	_, err = NewProxyHTTPClient(config.ProxyConfig{HTTP: "not a url"}, "ua", time.Second)
	assert.Error(t, err)
}

func TestUnreachableProxyIsAnOrdinaryError(t *testing.T) {
	proxy := httptest.NewServer(http.NotFoundHandler())
	addr := proxy.URL
	proxy.Close()

	client, err := NewProxyHTTPClient(config.ProxyConfig{HTTP: addr}, "ua", 2*time.Second)
	require.NoError(t, err)

	_, err = client.Get("http://upstream.invalid/")
	assert.Error(t, err)
}
