// Package engine defines the navigation capability the harvester drives.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WaitOutcome is the result of a bounded wait.
type WaitOutcome int

const (
	// WaitReady means the awaited condition was met.
	WaitReady WaitOutcome = iota

	// WaitTimedOut means the timeout elapsed first. Callers proceed with
	// whatever the page currently holds.
	WaitTimedOut

	// WaitNavigationFailed means the page or browser became unusable.
	WaitNavigationFailed
)

// String returns the string representation of the outcome
func (o WaitOutcome) String() string {
	switch o {
	case WaitReady:
		return "ready"
	case WaitTimedOut:
		return "timed-out"
	case WaitNavigationFailed:
		return "navigation-failed"
	default:
		return "unknown"
	}
}

// Navigator renders pages and exposes the current document.
//
// Implementations hold a single current page; calls must not be made
// concurrently.
type Navigator interface {
	// Navigate loads url. A returned error is fatal for the page.
	Navigate(ctx context.Context, url string) error

	// WaitDOMReady waits until the document has been parsed.
	WaitDOMReady(ctx context.Context, timeout time.Duration) WaitOutcome

	// WaitForSelector waits until an element matching selector exists.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) WaitOutcome

	// WaitNetworkIdle waits until network activity has settled.
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) WaitOutcome

	// Document returns a snapshot of the current page.
	Document(ctx context.Context) (*goquery.Document, error)

	// Name returns the name of the navigator implementation
	Name() string

	// Close releases the browser or HTTP resources.
	Close() error
}

// OutcomeFromError maps the error of a bounded wait to a WaitOutcome.
// parent is the caller's context: a deadline hit on the wait's own timeout is
// a timeout, while a cancelled parent means the page can no longer be used.
func OutcomeFromError(parent context.Context, err error) WaitOutcome {
	if err == nil {
		return WaitReady
	}
	if parent.Err() != nil {
		return WaitNavigationFailed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WaitTimedOut
	}
	return WaitNavigationFailed
}
