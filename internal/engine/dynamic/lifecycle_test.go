package dynamic

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"

	"github.com/law-makers/payout-harvest/internal/engine"
)

const testFrame cdp.FrameID = "main-frame"

func newLifecycleBrowser(t *testing.T) (*Browser, context.CancelFunc) {
	t.Helper()
	tabCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &Browser{
		tabCtx:    tabCtx,
		mainFrame: testFrame,
		lifecycle: make(map[string]cdp.LoaderID),
		changed:   make(chan struct{}),
	}, cancel
}

func lifecycleEvent(frame cdp.FrameID, loader cdp.LoaderID, name string) *page.EventLifecycleEvent {
	return &page.EventLifecycleEvent{FrameID: frame, LoaderID: loader, Name: name}
}

func TestLifecycle_DOMReadyBeforeLoad(t *testing.T) {
	b, _ := newLifecycleBrowser(t)
	ctx := context.Background()
	b.beginNavigation()
	b.committed("L1")

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.onEvent(lifecycleEvent(testFrame, "L1", "init"))
		b.onEvent(lifecycleEvent(testFrame, "L1", "DOMContentLoaded"))
	}()

	if got := b.WaitDOMReady(ctx, 2*time.Second); got != engine.WaitReady {
		t.Fatalf("WaitDOMReady = %v, want ready", got)
	}
	if got := b.WaitNetworkIdle(ctx, 30*time.Millisecond); got != engine.WaitTimedOut {
		t.Errorf("WaitNetworkIdle = %v, want timed-out without networkIdle", got)
	}
}

func TestLifecycle_NetworkIdle(t *testing.T) {
	b, _ := newLifecycleBrowser(t)
	b.onEvent(lifecycleEvent(testFrame, "L1", "init"))
	b.onEvent(lifecycleEvent(testFrame, "L1", "networkIdle"))

	if got := b.WaitNetworkIdle(context.Background(), time.Second); got != engine.WaitReady {
		t.Errorf("WaitNetworkIdle = %v, want ready", got)
	}
}

func TestLifecycle_InitResets(t *testing.T) {
	b, _ := newLifecycleBrowser(t)
	b.onEvent(lifecycleEvent(testFrame, "L1", "init"))
	b.onEvent(lifecycleEvent(testFrame, "L1", "DOMContentLoaded"))
	b.onEvent(lifecycleEvent(testFrame, "L2", "init"))

	if got := b.WaitDOMReady(context.Background(), 30*time.Millisecond); got != engine.WaitTimedOut {
		t.Errorf("WaitDOMReady = %v, want timed-out after init", got)
	}
}

func TestLifecycle_IgnoresOtherFrames(t *testing.T) {
	b, _ := newLifecycleBrowser(t)
	b.onEvent(lifecycleEvent("iframe", "L9", "init"))
	b.onEvent(lifecycleEvent("iframe", "L9", "DOMContentLoaded"))
	b.onEvent(lifecycleEvent("iframe", "L9", "networkIdle"))

	ctx := context.Background()
	if got := b.WaitDOMReady(ctx, 30*time.Millisecond); got != engine.WaitTimedOut {
		t.Errorf("WaitDOMReady = %v, want timed-out", got)
	}
	if got := b.WaitNetworkIdle(ctx, 30*time.Millisecond); got != engine.WaitTimedOut {
		t.Errorf("WaitNetworkIdle = %v, want timed-out", got)
	}
}

func TestLifecycle_IgnoresPreviousDocument(t *testing.T) {
	b, _ := newLifecycleBrowser(t)
	ctx := context.Background()

	b.beginNavigation()
	b.onEvent(lifecycleEvent(testFrame, "L1", "networkIdle"))
	b.committed("L2")

	if got := b.WaitNetworkIdle(ctx, 30*time.Millisecond); got != engine.WaitTimedOut {
		t.Fatalf("WaitNetworkIdle = %v, want timed-out for a stale loader", got)
	}

	b.onEvent(lifecycleEvent(testFrame, "L2", "networkIdle"))
	if got := b.WaitNetworkIdle(ctx, time.Second); got != engine.WaitReady {
		t.Errorf("WaitNetworkIdle = %v, want ready", got)
	}
}

func TestLifecycle_CancelledCaller(t *testing.T) {
	b, _ := newLifecycleBrowser(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := b.WaitDOMReady(ctx, time.Second); got != engine.WaitNavigationFailed {
		t.Errorf("WaitDOMReady = %v, want navigation-failed", got)
	}
}

func TestLifecycle_TabGone(t *testing.T) {
	b, closeTab := newLifecycleBrowser(t)
	go func() {
		time.Sleep(20 * time.Millisecond)
		closeTab()
	}()

	if got := b.WaitNetworkIdle(context.Background(), 2*time.Second); got != engine.WaitNavigationFailed {
		t.Errorf("WaitNetworkIdle = %v, want navigation-failed", got)
	}
}
