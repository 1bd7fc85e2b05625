package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-makers/payout-harvest/internal/engine"
	"github.com/law-makers/payout-harvest/internal/extract"
	"github.com/law-makers/payout-harvest/internal/retry"
	"github.com/law-makers/payout-harvest/pkg/models"
)

// Waits bounds the waits performed after navigation.
type Waits struct {
	DOM      time.Duration
	Selector time.Duration
	Idle     time.Duration
}

// LoadPage navigates to url, waits for the table to render and extracts it.
//
// Wait timeouts are logged and ignored. A failed navigation, a page that
// became unusable during a wait, or a failure reading the document is
// returned as an error.
func LoadPage(ctx context.Context, nav engine.Navigator, url string, waits Waits, rc retry.Config, logger zerolog.Logger) (result models.PageResult, layout extract.Layout, err error) {
	err = retry.WithRetry(ctx, rc, func() error {
		return nav.Navigate(ctx, url)
	})
	if err != nil {
		return models.PageResult{}, extract.LayoutNone, err
	}

	steps := []struct {
		name    string
		timeout time.Duration
		wait    func() engine.WaitOutcome
	}{
		{"dom", waits.DOM, func() engine.WaitOutcome { return nav.WaitDOMReady(ctx, waits.DOM) }},
		{"table", waits.Selector, func() engine.WaitOutcome {
			return nav.WaitForSelector(ctx, extract.RootSelector, waits.Selector)
		}},
		{"rows", waits.Selector, func() engine.WaitOutcome {
			return nav.WaitForSelector(ctx, extract.RowSelector, waits.Selector)
		}},
		{"network-idle", waits.Idle, func() engine.WaitOutcome { return nav.WaitNetworkIdle(ctx, waits.Idle) }},
	}

	tableMissing := false
	for _, step := range steps {
		if step.name == "rows" && tableMissing {
			continue
		}
		outcome := step.wait()
		switch outcome {
		case engine.WaitNavigationFailed:
			return models.PageResult{}, extract.LayoutNone,
				engine.NewEngineError(engine.ErrCodeNavigation, "page unusable while waiting for "+step.name, ctx.Err()).
					WithDetail("url", url)
		case engine.WaitTimedOut:
			if step.name == "table" {
				tableMissing = true
			}
			logger.Debug().
				Str("wait", step.name).
				Dur("timeout", step.timeout).
				Str("outcome", outcome.String()).
				Msg("Wait timed out, continuing")
		}
	}

	doc, err := nav.Document(ctx)
	if err != nil {
		return models.PageResult{}, extract.LayoutNone, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = engine.NewEngineError(engine.ErrCodeExtraction, "extraction panicked", fmt.Errorf("%v", r)).
				WithDetail("url", url)
		}
	}()
	result, layout = extract.ExtractLayout(extract.FromDocument(doc))
	return result, layout, nil
}
