package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"video-qa/agents/video-qa/youtube"
	"video-qa/internal/models"
	"video-qa/shared/config"
	"video-qa/shared/logging"
)

// SourceFactory builds a SegmentSource bound to a specific HTTP client.
type SourceFactory func(client *http.Client) SegmentSource

// ProxyStrategy repeats the direct fetch through each proxy of a pool.
// Every proxy gets its own client; nothing is shared between attempts.
type ProxyStrategy struct {
	pool      []config.ProxyConfig
	newSource SourceFactory
	userAgent string
	timeout   time.Duration
	languages []string
}

func NewProxyStrategy(pool []config.ProxyConfig, newSource SourceFactory, userAgent string, timeout time.Duration, languages []string) *ProxyStrategy {
	return &ProxyStrategy{
		pool:      pool,
		newSource: newSource,
		userAgent: userAgent,
		timeout:   timeout,
		languages: languages,
	}
}

func (p *ProxyStrategy) Name() string {
	return "proxy"
}

func (p *ProxyStrategy) Acquire(ctx context.Context, ref models.VideoReference) (string, error) {
	if len(p.pool) == 0 {
		return "", fmt.Errorf("%w: pool is empty", ErrProxyPoolExhausted)
	}

	log := logging.FromContext(ctx)

	var lastErr error
	for i, proxy := range p.pool {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		text, err := p.tryProxy(ctx, proxy, ref)
		if err == nil {
			log.WithField("proxy", proxyLabel(i, proxy)).Info("transcript fetched through proxy")
			return text, nil
		}

		log.WithError(err).WithField("proxy", proxyLabel(i, proxy)).Warn("proxy attempt failed")
		lastErr = err
	}

	return "", fmt.Errorf("%w: %w", ErrProxyPoolExhausted, lastErr)
}

func (p *ProxyStrategy) tryProxy(ctx context.Context, proxy config.ProxyConfig, ref models.VideoReference) (string, error) {
	client, err := youtube.NewProxyHTTPClient(proxy, p.userAgent, p.timeout)
	if err != nil {
		return "", err
	}
	defer client.CloseIdleConnections()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	return fetchWithFallback(ctx, p.newSource(client), ref.ID, p.languages)
}

// proxyLabel identifies a pool entry in logs without leaking credentials.
func proxyLabel(i int, proxy config.ProxyConfig) string {
	raw := proxy.HTTPS
	if raw == "" {
		raw = proxy.HTTP
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return fmt.Sprintf("#%d %s", i, u.Host)
	}
	return fmt.Sprintf("#%d", i)
}
