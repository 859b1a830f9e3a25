// Package outbound performs HTTP GETs through a rotating set of client
// identities so no single upstream API sees every request from the same
// fingerprint.
package outbound

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soltools/portfolio/internal/pool"
)

// defaultUserAgents are the browser fingerprints rotated across requests.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/91.0.864.59",
}

const (
	originHeader  = "https://portfolio.solana.tools"
	refererHeader = "https://portfolio.solana.tools/"
)

// identity is one outgoing client fingerprint: a header set and, when a proxy
// endpoint is configured, a transport routed through it.
type identity struct {
	headers map[string]string
	client  *http.Client
}

func (id *identity) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range id.headers {
		req.Header.Set(k, v)
	}
	return id.client.Do(req)
}

// Client issues GET requests through a least-used rotation of identities,
// retrying once through a different identity on transient failures and
// finally falling back to a plain direct request. The semantic request
// (method, body, target URL) is never altered.
type Client struct {
	pool   *pool.LeastUsed[*identity]
	direct *http.Client
}

// NewClient builds a rotation client. proxyURLs may be empty, in which case
// all identities use direct transports with distinct header sets. ceiling is
// the per-identity request count after which usage counters reset.
func NewClient(proxyURLs []string, ceiling int, timeout time.Duration) (*Client, error) {
	proxies := make([]*url.URL, 0, len(proxyURLs))
	for _, raw := range proxyURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy URL %q: %w", raw, err)
		}
		proxies = append(proxies, u)
	}

	n := len(defaultUserAgents)
	if len(proxies) > n {
		n = len(proxies)
	}

	identities := make([]*identity, 0, n)
	for i := range n {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if len(proxies) > 0 {
			proxy := proxies[i%len(proxies)]
			transport.Proxy = http.ProxyURL(proxy)
		}
		identities = append(identities, &identity{
			headers: map[string]string{
				"User-Agent": defaultUserAgents[i%len(defaultUserAgents)],
				"Accept":     "application/json",
				"Origin":     originHeader,
				"Referer":    refererHeader,
			},
			client: &http.Client{Transport: transport, Timeout: timeout},
		})
	}

	return &Client{
		pool:   pool.NewLeastUsed(identities, ceiling),
		direct: &http.Client{Timeout: timeout},
	}, nil
}

// Get performs a GET through the rotation, behaviorally identical to a direct
// GET from the caller's point of view.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	id, idx := c.pool.Acquire()
	resp, err := id.do(ctx, rawURL)
	if err == nil {
		return resp, nil
	}

	if isTransient(err) && c.pool.Len() > 1 {
		slog.Warn("rotated request failed, retrying through another identity", "url", rawURL, "error", err)
		retry, _ := c.pool.AcquireExcept(idx)
		if resp, retryErr := retry.do(ctx, rawURL); retryErr == nil {
			return resp, nil
		}
	}

	slog.Warn("rotated request failed, falling back to direct", "url", rawURL, "error", err)
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("creating direct request: %w", reqErr)
	}
	return c.direct.Do(req)
}

// transientPatterns match failures worth retrying through another identity.
var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"timed out",
	"proxy",
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
