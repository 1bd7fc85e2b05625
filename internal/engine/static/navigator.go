// Package static implements engine.Navigator with plain HTTP requests for
// pages that are rendered server side.
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/payout-harvest/internal/engine"
	"github.com/law-makers/payout-harvest/internal/proxy"
	"github.com/law-makers/payout-harvest/internal/ratelimit"
	"github.com/law-makers/payout-harvest/internal/retry"
)

// Options configures a Navigator.
type Options struct {
	Client    *http.Client
	Limiter   ratelimit.RateLimiter
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Proxies   *proxy.Pool
}

// Navigator fetches a page with one GET request and keeps the parsed
// document as the current page. Waits resolve immediately against it.
type Navigator struct {
	client    *http.Client
	limiter   ratelimit.RateLimiter
	timeout   time.Duration
	userAgent string
	headers   map[string]string
	proxies   *proxy.Pool
	viaProxy  map[string]*http.Client

	url string
	doc *goquery.Document
}

// New creates a static Navigator. A nil client gets a keep-alive client
// bounded by opts.Timeout. With a non-empty proxy pool every page is
// fetched through the next proxy in turn.
func New(opts Options) *Navigator {
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: opts.Timeout,
		}
	}
	return &Navigator{
		client:    client,
		limiter:   opts.Limiter,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		proxies:   opts.Proxies,
		viaProxy:  make(map[string]*http.Client),
	}
}

// clientFor returns the client that sends requests through p.
func (n *Navigator) clientFor(p *url.URL) *http.Client {
	if p == nil {
		return n.client
	}
	if c, ok := n.viaProxy[p.String()]; ok {
		return c
	}
	c := &http.Client{
		Transport: &http.Transport{
			Proxy:           http.ProxyURL(p),
			MaxIdleConns:    2,
			IdleConnTimeout: 90 * time.Second,
		},
		Timeout: n.timeout,
	}
	n.viaProxy[p.String()] = c
	return c
}

// Name returns the name of this navigator
func (n *Navigator) Name() string {
	return "StaticNavigator"
}

// Navigate fetches url and parses the response body.
func (n *Navigator) Navigate(ctx context.Context, url string) error {
	n.url = url
	n.doc = nil

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx, url); err != nil {
			return engine.NewEngineError(engine.ErrCodeNavigation, "rate limiter wait aborted", err)
		}
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return engine.NewEngineError(engine.ErrCodeValidation, "failed to create request", fmt.Errorf("%w: %v", engine.ErrInvalidURL, err))
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	via := n.proxies.Next()
	resp, err := n.clientFor(via).Do(req)
	if err != nil {
		if via != nil && ctx.Err() == nil {
			n.proxies.MarkFailed(via)
			log.Warn().Err(err).Str("proxy", via.Host).Msg("Proxy request failed")
		}
		return engine.NewEngineError(engine.ErrCodeNetworkError, "failed to fetch page", err).
			WithRetry().
			WithDetail("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return engine.NewEngineError(engine.ErrCodeNavigation, "unexpected status",
			retry.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), url)).
			WithDetail("status", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return engine.NewEngineError(engine.ErrCodeNavigation, "failed to parse HTML", err)
	}
	n.doc = doc

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Page fetched")

	return nil
}

// WaitDOMReady is ready as soon as a document has been parsed.
func (n *Navigator) WaitDOMReady(ctx context.Context, _ time.Duration) engine.WaitOutcome {
	if ctx.Err() != nil || n.doc == nil {
		return engine.WaitNavigationFailed
	}
	return engine.WaitReady
}

// WaitForSelector reports whether the fetched document contains selector.
// The document never changes, so an absent element is a timeout right away.
func (n *Navigator) WaitForSelector(ctx context.Context, selector string, _ time.Duration) engine.WaitOutcome {
	if ctx.Err() != nil || n.doc == nil {
		return engine.WaitNavigationFailed
	}
	if n.doc.Find(selector).Length() == 0 {
		return engine.WaitTimedOut
	}
	return engine.WaitReady
}

// WaitNetworkIdle is ready once the single request has completed.
func (n *Navigator) WaitNetworkIdle(ctx context.Context, _ time.Duration) engine.WaitOutcome {
	return n.WaitDOMReady(ctx, 0)
}

// Document returns the page fetched by the last Navigate call.
func (n *Navigator) Document(_ context.Context) (*goquery.Document, error) {
	if n.doc == nil {
		return nil, engine.NewEngineError(engine.ErrCodeExtraction, "no document for "+n.url, engine.ErrNoDocument)
	}
	return n.doc, nil
}

// Close releases idle connections.
func (n *Navigator) Close() error {
	n.client.CloseIdleConnections()
	for _, c := range n.viaProxy {
		c.CloseIdleConnections()
	}
	n.doc = nil
	return nil
}

var _ engine.Navigator = (*Navigator)(nil)
