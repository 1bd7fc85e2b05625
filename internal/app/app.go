// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/payout-harvest/internal/config"
	"github.com/law-makers/payout-harvest/internal/engine"
	"github.com/law-makers/payout-harvest/internal/engine/dynamic"
	"github.com/law-makers/payout-harvest/internal/engine/hybrid"
	"github.com/law-makers/payout-harvest/internal/engine/static"
	"github.com/law-makers/payout-harvest/internal/harvest"
	"github.com/law-makers/payout-harvest/internal/proxy"
	"github.com/law-makers/payout-harvest/internal/ratelimit"
	"github.com/law-makers/payout-harvest/internal/retry"
	"github.com/law-makers/payout-harvest/internal/utils/output"
	"github.com/law-makers/payout-harvest/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. The navigator is started
// lazily so that help output and config errors never launch a browser.
// Use Close() to release everything on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client
	Proxies     *proxy.Pool

	navMu     sync.Mutex
	navigator engine.Navigator
	startTime time.Time
}

// New creates an Application from cfg and configures the global logger.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg, os.Stderr)

	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	proxies, err := proxy.NewPool(proxy.ParseList(cfg.Proxy), proxy.DefaultCooldown)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Application{
		Config:      cfg,
		Logger:      &logger,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		Proxies:     proxies,
		startTime:   time.Now(),
	}, nil
}

// SetupLogging points the global zerolog logger at w and sets the level from
// cfg. Info is treated as non-verbose: only errors are shown unless -v or an
// explicit warn level is requested.
func SetupLogging(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := zerolog.ErrorLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
	}
	return log.Logger
}

// Navigator returns the navigator for the configured engine, starting it on
// first use. In auto mode probeURL is fetched once to choose between the
// static navigator and the browser.
func (a *Application) Navigator(ctx context.Context, probeURL string) (engine.Navigator, error) {
	a.navMu.Lock()
	defer a.navMu.Unlock()

	if a.navigator != nil {
		return a.navigator, nil
	}

	mode := models.EngineMode(a.Config.Engine)
	if mode == models.ModeAuto {
		probe := a.newStatic()
		if hybrid.Probe(ctx, probe, probeURL) == hybrid.StrategyStatic {
			a.navigator = probe
			a.Logger.Debug().Str("navigator", probe.Name()).Msg("Navigator started")
			return a.navigator, nil
		}
		_ = probe.Close()
		mode = models.ModeSPA
	}

	switch mode {
	case models.ModeStatic:
		a.navigator = a.newStatic()
	default:
		b, err := a.newBrowser()
		if err != nil {
			return nil, err
		}
		a.navigator = b
	}

	a.Logger.Debug().Str("navigator", a.navigator.Name()).Msg("Navigator started")
	return a.navigator, nil
}

func (a *Application) newStatic() *static.Navigator {
	cfg := a.Config
	return static.New(static.Options{
		Client:    a.HTTPClient,
		Limiter:   a.RateLimiter,
		Timeout:   cfg.NavTimeout,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
		Proxies:   a.Proxies,
	})
}

// newBrowser starts Chrome. Only the first configured proxy is used since
// the browser's proxy is fixed at launch.
func (a *Application) newBrowser() (*dynamic.Browser, error) {
	cfg := a.Config
	var proxyServer string
	if list := proxy.ParseList(cfg.Proxy); len(list) > 0 {
		proxyServer = list[0]
	}
	return dynamic.New(dynamic.Options{
		ChromePath: cfg.ChromePath,
		Headless:   cfg.BrowserHeadless,
		UserAgent:  cfg.UserAgent,
		Proxy:      proxyServer,
		Headers:    cfg.Headers,
		NavTimeout: cfg.NavTimeout,
		Limiter:    a.RateLimiter,
	})
}

// OpenSink opens the configured output file.
func (a *Application) OpenSink() (output.Sink, error) {
	return output.Open(models.OutputFormat(a.Config.Format), a.Config.Output)
}

// Waits returns the post-navigation wait bounds.
func (a *Application) Waits() harvest.Waits {
	return harvest.Waits{
		DOM:      a.Config.NavTimeout,
		Selector: a.Config.SelectorTimeout,
		Idle:     a.Config.IdleTimeout,
	}
}

// RetryConfig returns the navigation retry policy. One attempt means no retry.
func (a *Application) RetryConfig() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = a.Config.PageAttempts
	return rc
}

// HarvestOptions builds controller options from the configuration.
func (a *Application) HarvestOptions(onPage func(models.PageReport)) harvest.Options {
	return harvest.Options{
		StartPage: a.Config.StartPage,
		EndPage:   a.Config.EndPage,
		BaseURL:   a.Config.BaseURL,
		Waits:     a.Waits(),
		Retry:     a.RetryConfig(),
		OnPage:    onPage,
	}
}

// Close gracefully shuts down the application and all its resources.
// Errors are logged and the first one is returned.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.navMu.Lock()
		defer a.navMu.Unlock()
		if a.navigator != nil {
			if err := a.navigator.Close(); err != nil {
				a.Logger.Warn().Err(err).Msg("Error closing navigator")
				firstErr = err
			}
			a.navigator = nil
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.Logger.Warn().Msg("Timed out closing navigator")
		return ctx.Err()
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return firstErr
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
