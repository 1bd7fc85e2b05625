// Package dynamic implements engine.Navigator on a single headless Chrome
// tab driven through chromedp.
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/payout-harvest/internal/engine"
	"github.com/law-makers/payout-harvest/internal/ratelimit"
)

// Options configures the browser.
type Options struct {
	ChromePath string
	Headless   bool
	UserAgent  string
	Proxy      string
	Headers    map[string]string
	NavTimeout time.Duration
	Limiter    ratelimit.RateLimiter
}

// Browser owns one Chrome process with one tab. Pages are loaded one after
// another into that tab.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	limiter    ratelimit.RateLimiter
	navTimeout time.Duration
	mainFrame  cdp.FrameID

	mu        sync.Mutex
	loader    cdp.LoaderID
	lifecycle map[string]cdp.LoaderID
	changed   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New launches Chrome and prepares the tab.
func New(opts Options) (*Browser, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 60 * time.Second
	}

	chromePath := FindChrome(opts.ChromePath)

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		limiter:     opts.Limiter,
		navTimeout:  opts.NavTimeout,
		lifecycle:   make(map[string]cdp.LoaderID),
		changed:     make(chan struct{}),
	}

	chromedp.ListenTarget(tabCtx, b.onEvent)

	setup := []chromedp.Action{
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			b.mu.Lock()
			b.mainFrame = tree.Frame.ID
			b.mu.Unlock()
			return nil
		}),
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		setup = append(setup, network.SetExtraHTTPHeaders(headers))
	}

	startCtx, cancel := context.WithTimeout(tabCtx, opts.NavTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx, setup...); err != nil {
		b.Close()
		if chromePath == "" {
			err = fmt.Errorf("%w: %v", engine.ErrBrowserNotFound, err)
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "failed to start browser", err)
	}

	log.Debug().
		Str("chrome", chromePath).
		Str("version", ChromeVersion(chromePath)).
		Bool("headless", opts.Headless).
		Msg("Browser ready")

	return b, nil
}

// Name returns the name of this navigator
func (b *Browser) Name() string {
	return "ChromeNavigator"
}

// onEvent records main frame lifecycle events by the loader that emitted
// them. "init" starts a new document and forgets the previous one.
func (b *Browser) onEvent(ev interface{}) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mainFrame != "" && e.FrameID != b.mainFrame {
		return
	}
	if e.Name == "init" {
		b.lifecycle = make(map[string]cdp.LoaderID)
		b.loader = e.LoaderID
	} else {
		b.lifecycle[e.Name] = e.LoaderID
	}
	b.notifyLocked()
}

func (b *Browser) notifyLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}

// beginNavigation drops the state of the current document.
func (b *Browser) beginNavigation() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lifecycle = make(map[string]cdp.LoaderID)
	b.loader = ""
	b.notifyLocked()
}

// committed pins the loader of the new document so late events from the
// previous one are not mistaken for it.
func (b *Browser) committed(loader cdp.LoaderID) {
	if loader == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loader != loader {
		b.lifecycle = make(map[string]cdp.LoaderID)
		b.loader = loader
		b.notifyLocked()
	}
}

// bounded derives a context for one tab operation. It ends when timeout
// elapses or when the caller's ctx is done.
func (b *Browser) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(b.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

// Navigate starts loading url and returns once the navigation committed,
// without waiting for the load event. Readiness is left to the waits.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx, url); err != nil {
			return engine.NewEngineError(engine.ErrCodeNavigation, "rate limiter wait aborted", err)
		}
	}

	navCtx, cancel := b.bounded(ctx, b.navTimeout)
	defer cancel()

	b.beginNavigation()
	start := time.Now()

	var errorText string
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, loader, text, isDownload, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if isDownload {
			text = "response is a download"
		}
		errorText = text
		b.committed(loader)
		return nil
	}))
	if err == nil && errorText == "" {
		log.Debug().Str("url", url).Dur("elapsed", time.Since(start)).Msg("Navigation committed")
		return nil
	}

	switch {
	case err == nil:
		return engine.NewEngineError(engine.ErrCodeNavigation, "navigation failed", fmt.Errorf("page load error %s", errorText)).
			WithRetry().
			WithDetail("url", url)
	case ctx.Err() != nil:
		return engine.NewEngineError(engine.ErrCodeNavigation, "navigation aborted", ctx.Err())
	case b.tabCtx.Err() != nil:
		return engine.NewEngineError(engine.ErrCodeBrowserCrash, "browser went away", fmt.Errorf("%w: %v", engine.ErrBrowserCrash, err))
	case errors.Is(err, context.DeadlineExceeded):
		return engine.NewEngineError(engine.ErrCodeTimeout, "navigation timed out", fmt.Errorf("%w after %s", engine.ErrTimeout, b.navTimeout)).
			WithRetry().
			WithDetail("url", url)
	default:
		return engine.NewEngineError(engine.ErrCodeNavigation, "navigation failed", err).
			WithRetry().
			WithDetail("url", url)
	}
}

// WaitDOMReady waits for the main frame's DOMContentLoaded lifecycle event.
// Subresources such as images may still be loading.
func (b *Browser) WaitDOMReady(ctx context.Context, timeout time.Duration) engine.WaitOutcome {
	return b.waitLifecycle(ctx, "DOMContentLoaded", timeout)
}

// WaitForSelector waits until an element matching selector is present.
func (b *Browser) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) engine.WaitOutcome {
	wctx, cancel := b.bounded(ctx, timeout)
	defer cancel()

	err := chromedp.Run(wctx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err != nil && b.tabCtx.Err() != nil {
		return engine.WaitNavigationFailed
	}
	return engine.OutcomeFromError(ctx, err)
}

// WaitNetworkIdle waits for the main frame's networkIdle lifecycle event.
func (b *Browser) WaitNetworkIdle(ctx context.Context, timeout time.Duration) engine.WaitOutcome {
	return b.waitLifecycle(ctx, "networkIdle", timeout)
}

// waitLifecycle blocks until the current document emitted the named
// lifecycle event.
func (b *Browser) waitLifecycle(ctx context.Context, name string, timeout time.Duration) engine.WaitOutcome {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		b.mu.Lock()
		seen, ok := b.lifecycle[name]
		done := ok && (b.loader == "" || seen == b.loader)
		changed := b.changed
		b.mu.Unlock()

		if done {
			return engine.WaitReady
		}

		select {
		case <-changed:
		case <-timer.C:
			return engine.WaitTimedOut
		case <-ctx.Done():
			return engine.WaitNavigationFailed
		case <-b.tabCtx.Done():
			return engine.WaitNavigationFailed
		}
	}
}

// Document snapshots the rendered DOM.
func (b *Browser) Document(ctx context.Context) (*goquery.Document, error) {
	dctx, cancel := b.bounded(ctx, b.navTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(dctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeExtraction, "failed to read document", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeExtraction, "failed to parse document", err)
	}
	return doc, nil
}

// Close shuts the tab and the browser process. Safe to call more than once.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if err := chromedp.Cancel(b.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
			b.closeErr = err
		}
		b.tabCancel()
		b.allocCancel()
		log.Debug().Msg("Browser closed")
	})
	return b.closeErr
}

var _ engine.Navigator = (*Browser)(nil)
