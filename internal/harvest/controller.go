// Package harvest drives a run over the paginated payout listing: it loads
// each page, extracts its table, fixes the output schema and streams the
// normalized rows to a sink.
package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/payout-harvest/internal/engine"
	"github.com/law-makers/payout-harvest/internal/reqctx"
	"github.com/law-makers/payout-harvest/internal/retry"
	"github.com/law-makers/payout-harvest/internal/utils/output"
	urlutil "github.com/law-makers/payout-harvest/internal/utils/url"
	"github.com/law-makers/payout-harvest/pkg/models"
)

// Options configures a Controller.
type Options struct {
	StartPage int
	EndPage   int
	BaseURL   string // template, see urlutil.PageURL
	Waits     Waits
	Retry     retry.Config

	// OnPage is called after every page, including the one that stopped
	// the run.
	OnPage func(models.PageReport)
}

// Summary describes a finished or stopped run.
type Summary struct {
	RunID         string        `json:"run_id"`
	PagesVisited  int           `json:"pages_visited"`
	PagesWithData int           `json:"pages_with_data"`
	PagesSkipped  int           `json:"pages_skipped"`
	RowsWritten   int           `json:"rows_written"`
	StoppedAt     int           `json:"stopped_at,omitempty"`
	Schema        []string      `json:"schema"`
	Elapsed       time.Duration `json:"elapsed"`
}

// PageError is the fatal error that stopped a run.
type PageError struct {
	RunID string
	Page  int
	URL   string
	Err   error
}

// Error implements the error interface
func (e *PageError) Error() string {
	return fmt.Sprintf("run %s stopped at page %d (%s): %v", e.RunID, e.Page, e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *PageError) Unwrap() error {
	return e.Err
}

// Controller visits pages strictly in order through a single navigator.
// The navigator and the sink are owned by the caller.
type Controller struct {
	nav    engine.Navigator
	sink   output.Sink
	opts   Options
	schema Schema
}

// New creates a Controller.
func New(nav engine.Navigator, sink output.Sink, opts Options) *Controller {
	return &Controller{nav: nav, sink: sink, opts: opts}
}

// Schema returns the schema established so far.
func (c *Controller) Schema() *Schema {
	return &c.schema
}

// Run processes pages StartPage..EndPage. It stops at the first fatal page
// error and returns it as a *PageError; rows written before that stay in
// the sink.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	ctx = reqctx.WithRun(ctx)
	rc := reqctx.FromContext(ctx)
	logger := log.With().Str("run_id", rc.RunID).Logger()

	summary := Summary{RunID: rc.RunID}
	finish := func() Summary {
		summary.Schema = c.schema.Columns()
		summary.Elapsed = rc.Elapsed()
		return summary
	}

	logger.Info().
		Int("start", c.opts.StartPage).
		Int("end", c.opts.EndPage).
		Str("navigator", c.nav.Name()).
		Msg("Harvest started")

	for p := c.opts.StartPage; p <= c.opts.EndPage; p++ {
		url := urlutil.PageURL(c.opts.BaseURL, p)

		err := ctx.Err()
		report := models.PageReport{Page: p, URL: url, Layout: "none"}
		if err == nil {
			report, err = c.processPage(ctx, p, url, logger)
			summary.PagesVisited++
		}

		if err == nil {
			if report.Skipped {
				summary.PagesSkipped++
			} else {
				summary.PagesWithData++
				summary.RowsWritten += report.Rows
			}
		}

		if c.opts.OnPage != nil {
			c.opts.OnPage(report)
		}

		if err != nil {
			summary.StoppedAt = p
			logger.Error().
				Err(err).
				Int("page", p).
				Str("url", url).
				Int("rows", summary.RowsWritten).
				Msg("Harvest stopped")
			return finish(), &PageError{RunID: rc.RunID, Page: p, URL: url, Err: err}
		}
	}

	logger.Info().
		Int("pages", summary.PagesVisited).
		Int("pages_with_data", summary.PagesWithData).
		Int("rows", summary.RowsWritten).
		Dur("elapsed", rc.Elapsed()).
		Msg("Harvest finished")

	return finish(), nil
}

// processPage runs one page through load, schema resolution and output.
func (c *Controller) processPage(ctx context.Context, p int, url string, logger zerolog.Logger) (models.PageReport, error) {
	start := time.Now()
	report := models.PageReport{Page: p, URL: url}
	pageLog := logger.With().Int("page", p).Str("url", url).Logger()

	result, layout, err := LoadPage(ctx, c.nav, url, c.opts.Waits, c.opts.Retry, pageLog)
	report.Layout = layout.String()
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}

	if result.Empty() {
		report.Skipped = true
		pageLog.Info().Str("layout", report.Layout).Msg("No table data on page, skipping")
		return report, nil
	}

	if c.schema.Resolve(result) {
		if err := c.sink.WriteHeader(c.schema.Columns()); err != nil {
			return report, fmt.Errorf("failed to write header: %w", err)
		}
		pageLog.Info().Strs("schema", c.schema.Columns()).Msg("Schema established")
	}

	for _, row := range result.Rows {
		if err := c.sink.WriteRow(c.schema.Normalize(row)); err != nil {
			return report, fmt.Errorf("failed to write row: %w", err)
		}
		report.Rows++
	}
	if err := c.sink.Flush(); err != nil {
		return report, fmt.Errorf("failed to flush output: %w", err)
	}

	report.Duration = time.Since(start)
	pageLog.Debug().
		Str("layout", report.Layout).
		Int("rows", report.Rows).
		Dur("elapsed", report.Duration).
		Msg("Page harvested")

	return report, nil
}
