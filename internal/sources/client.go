package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-request timeout for provider calls.
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 8 << 20
)

// Client is the HTTP client shared by the adapters. It paces requests per
// host and sets a browser-like User-Agent.
type Client struct {
	http     *http.Client
	interval time.Duration

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a Client with the given request timeout. Requests to the
// same host are spaced at least perHost apart; zero disables pacing.
func NewClient(timeout, perHost time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		interval: perHost,
		limiters: make(map[string]*rate.Limiter),
	}
}

// userAgentTransport injects browser-like headers on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; daybrief/1.0)")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json, application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return t.base.RoundTrip(req)
}

// get fetches rawURL and returns the body of a 2xx response. Other statuses
// become a ProviderError.
func (c *Client) get(ctx context.Context, provider, rawURL string, header http.Header) ([]byte, error) {
	if err := c.wait(ctx, rawURL); err != nil {
		return nil, &ProviderError{Provider: provider, Message: "waiting for rate limiter", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Message: "creating request", Err: redactURL(err)}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Message: "sending request", Err: redactURL(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, statusError(provider, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ProviderError{Provider: provider, Message: "reading response body", Err: err}
	}
	return body, nil
}

// getJSON fetches rawURL and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, provider, rawURL string, header http.Header, out any) error {
	body, err := c.get(ctx, provider, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{Provider: provider, Message: "decoding response", Err: err}
	}
	return nil
}

// getFeed fetches and parses an RSS or Atom feed.
func (c *Client) getFeed(ctx context.Context, provider, rawURL string) (*gofeed.Feed, error) {
	body, err := c.get(ctx, provider, rawURL, http.Header{
		"Accept": {"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"},
	})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &ProviderError{Provider: provider, Message: fmt.Sprintf("parsing feed %q", rawURL), Err: err}
	}
	return feed, nil
}

// wait blocks until the host of rawURL may be contacted again.
func (c *Client) wait(ctx context.Context, rawURL string) error {
	if c.interval <= 0 {
		return nil
	}
	return c.limiterFor(extractHost(rawURL)).Wait(ctx)
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.RLock()
	l, ok := c.limiters[host]
	c.mu.RUnlock()
	if ok {
		return l
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[host]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Every(c.interval), 1)
	c.limiters[host] = l
	slog.Debug("created host limiter", "host", host, "interval", c.interval)
	return l
}

// extractHost returns the hostname of rawURL, or rawURL itself if it does
// not parse.
func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

// redactURL strips the query and user info from the URL inside a
// *url.Error. Several providers take their API key as a query parameter,
// and failure text is logged, stored and returned to API clients.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		ue.URL = "<unparseable url>"
		return err
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.User = nil
	ue.URL = u.String()
	return err
}
