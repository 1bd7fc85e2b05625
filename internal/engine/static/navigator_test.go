package static

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/law-makers/payout-harvest/internal/engine"
	"github.com/law-makers/payout-harvest/internal/proxy"
	"github.com/law-makers/payout-harvest/internal/retry"
)

const payoutPage = `<!DOCTYPE html>
<html>
<head><title>Payouts</title></head>
<body>
	<table>
		<thead><tr><th>Name</th><th>Payout</th></tr></thead>
		<tbody><tr><td>Jane</td><td>$500</td></tr></tbody>
	</table>
</body>
</html>`

func newTestNavigator(headers map[string]string) *Navigator {
	return New(Options{Timeout: 5 * time.Second, UserAgent: "HarvestTest/1.0", Headers: headers})
}

func TestNavigator_NavigateAndWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payoutPage))
	}))
	defer server.Close()

	nav := newTestNavigator(nil)
	defer nav.Close()
	ctx := context.Background()

	if err := nav.Navigate(ctx, server.URL); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}

	if got := nav.WaitDOMReady(ctx, time.Second); got != engine.WaitReady {
		t.Errorf("WaitDOMReady = %v, want ready", got)
	}
	if got := nav.WaitForSelector(ctx, "table, .divTable", time.Second); got != engine.WaitReady {
		t.Errorf("WaitForSelector(table) = %v, want ready", got)
	}
	if got := nav.WaitForSelector(ctx, ".divTableRow", time.Second); got != engine.WaitTimedOut {
		t.Errorf("WaitForSelector(missing) = %v, want timed-out", got)
	}
	if got := nav.WaitNetworkIdle(ctx, time.Second); got != engine.WaitReady {
		t.Errorf("WaitNetworkIdle = %v, want ready", got)
	}

	doc, err := nav.Document(ctx)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if title := doc.Find("title").Text(); title != "Payouts" {
		t.Errorf("expected title Payouts, got %q", title)
	}
}

func TestNavigator_SendsHeaders(t *testing.T) {
	var gotUA, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Test")
		w.Write([]byte(payoutPage))
	}))
	defer server.Close()

	nav := newTestNavigator(map[string]string{"X-Test": "yes"})
	defer nav.Close()

	if err := nav.Navigate(context.Background(), server.URL); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	if gotUA != "HarvestTest/1.0" {
		t.Errorf("expected user agent to be sent, got %q", gotUA)
	}
	if gotCustom != "yes" {
		t.Errorf("expected custom header to be sent, got %q", gotCustom)
	}
}

func TestNavigator_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	nav := newTestNavigator(nil)
	defer nav.Close()
	ctx := context.Background()

	err := nav.Navigate(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !engine.IsCode(err, engine.ErrCodeNavigation) {
		t.Errorf("expected NAVIGATION code, got %v", err)
	}
	var httpErr retry.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected wrapped HTTPError 503, got %v", err)
	}

	if got := nav.WaitDOMReady(ctx, time.Second); got != engine.WaitNavigationFailed {
		t.Errorf("WaitDOMReady after failure = %v, want navigation-failed", got)
	}
	if _, err := nav.Document(ctx); !errors.Is(err, engine.ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}

func TestNavigator_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	nav := newTestNavigator(nil)
	err := nav.Navigate(context.Background(), url)
	if !engine.IsCode(err, engine.ErrCodeNetworkError) {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
}

func TestNavigator_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payoutPage))
	}))
	defer server.Close()

	nav := newTestNavigator(nil)
	if err := nav.Navigate(context.Background(), server.URL); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := nav.WaitForSelector(ctx, "table", time.Second); got != engine.WaitNavigationFailed {
		t.Errorf("expected navigation-failed on cancelled context, got %v", got)
	}
}

func TestNavigator_FetchesThroughProxyPool(t *testing.T) {
	var proxied []string
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = append(proxied, r.URL.String())
		w.Write([]byte(payoutPage))
	}))
	defer proxyServer.Close()

	pool, err := proxy.NewPool([]string{proxyServer.URL}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	nav := New(Options{Timeout: 5 * time.Second, Proxies: pool})
	defer nav.Close()

	if err := nav.Navigate(context.Background(), "http://payouts.invalid/page/1"); err != nil {
		t.Fatalf("Navigate through proxy failed: %v", err)
	}
	if len(proxied) != 1 || proxied[0] != "http://payouts.invalid/page/1" {
		t.Errorf("expected request to go through the proxy, got %v", proxied)
	}
}
