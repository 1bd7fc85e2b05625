package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-makers/payout-harvest/internal/config"
)

func TestSetupLogging_JSON(t *testing.T) {
	cfg := config.Default()
	cfg.JSONLog = true
	cfg.LogLevel = "debug"

	var buf bytes.Buffer
	logger := SetupLogging(cfg, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger.Debug().Int("page", 3).Msg("hello")
	if !strings.Contains(buf.String(), `"page":3`) {
		t.Errorf("expected JSON field in output, got %q", buf.String())
	}
}

func TestSetupLogging_DefaultSuppressesInfo(t *testing.T) {
	cfg := config.Default()
	cfg.JSONLog = true

	var buf bytes.Buffer
	logger := SetupLogging(cfg, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Errorf("info should be suppressed by default, got %q", buf.String())
	}
}

func TestApplication_StaticNavigatorAndOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = "static"
	cfg.PageAttempts = 3
	cfg.StartPage, cfg.EndPage = 2, 4
	cfg.Output = filepath.Join(t.TempDir(), "out.csv")

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	nav, err := a.Navigator(context.Background(), "")
	if err != nil {
		t.Fatalf("Navigator failed: %v", err)
	}
	if nav.Name() != "StaticNavigator" {
		t.Errorf("expected static navigator, got %s", nav.Name())
	}
	again, _ := a.Navigator(context.Background(), "")
	if again != nav {
		t.Error("navigator should be created once")
	}

	opts := a.HarvestOptions(nil)
	if opts.StartPage != 2 || opts.EndPage != 4 || opts.Retry.MaxAttempts != 3 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Waits.Selector != cfg.SelectorTimeout || opts.Waits.Idle != cfg.IdleTimeout {
		t.Errorf("unexpected waits: %+v", opts.Waits)
	}

	sink, err := a.OpenSink()
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestApplication_AutoPicksStaticForServerRenderedPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<table><tr><th>Name</th></tr><tr><td>Jane</td></tr></table>`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Engine = "auto"
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())

	nav, err := a.Navigator(context.Background(), server.URL+"/page/1")
	if err != nil {
		t.Fatalf("Navigator failed: %v", err)
	}
	if nav.Name() != "StaticNavigator" {
		t.Errorf("expected static navigator after probe, got %s", nav.Name())
	}
}

func TestNew_RejectsBadProxy(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy = "ftp://proxy:21"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unsupported proxy scheme")
	}
}
