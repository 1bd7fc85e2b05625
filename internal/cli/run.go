package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/payout-harvest/internal/harvest"
	"github.com/law-makers/payout-harvest/internal/ui"
	urlutil "github.com/law-makers/payout-harvest/internal/utils/url"
	"github.com/law-makers/payout-harvest/pkg/models"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Harvest a range of payout pages into one file",
	Long: `Visits every page from --start to --end in order, extracts the payout table
and appends its rows to the output file.

The first fatal page error stops the run. Rows already written stay on disk,
the page where processing stopped is reported, and the exit code is 1.`,
	Example: `  # Harvest all pages with headless Chrome
  harvest run

  # A short range into a custom file
  harvest run --start 1 --end 5 -o sample.csv

  # Server rendered pages, no browser, JSON lines output
  harvest run --engine static --format jsonl -o payouts.jsonl

  # Retry a failed page load up to 3 times
  harvest run --attempts 3`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("start", 0, "First page to harvest (default 1)")
	runCmd.Flags().Int("end", 0, "Last page to harvest, inclusive (default 307)")
	runCmd.Flags().StringP("output", "o", "", "Output file path (default payouts.csv)")
	runCmd.Flags().StringP("format", "f", "", "Output format: csv or jsonl")
	runCmd.Flags().Int("attempts", 0, "Navigation attempts per page (1 = no retry)")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := a.Config
	ctx := cmd.Context()

	sink, err := a.OpenSink()
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Error().Err(err).Str("output", cfg.Output).Msg("Failed to close output")
		}
	}()

	nav, err := a.Navigator(ctx, urlutil.PageURL(cfg.BaseURL, cfg.StartPage))
	if err != nil {
		return fmt.Errorf("failed to start %s navigator: %w", cfg.Engine, err)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	bar := newProgressBar(cfg.EndPage-cfg.StartPage+1, quiet || cfg.JSONLog)
	onPage := func(r models.PageReport) {
		bar.Describe(fmt.Sprintf("page %d", r.Page))
		_ = bar.Add(1)
	}

	summary, runErr := harvest.New(nav, sink, a.HarvestOptions(onPage)).Run(ctx)
	_ = bar.Finish()

	closeErr := sink.Close()

	if cfg.JSONLog {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else if !quiet {
		printSummary(cmd.OutOrStdout(), summary, cfg.Output, runErr)
	}

	if runErr != nil {
		return runErr
	}
	return closeErr
}

func newProgressBar(pages int, silent bool) *progressbar.ProgressBar {
	var w io.Writer = os.Stderr
	if silent {
		w = io.Discard
	}
	return progressbar.NewOptions(pages,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func printSummary(w io.Writer, s harvest.Summary, path string, runErr error) {
	status := ui.Success("complete")
	if runErr != nil {
		status = ui.Error(fmt.Sprintf("stopped at page %d", s.StoppedAt))
	}

	fmt.Fprintf(w, "\n%s %s\n", ui.Bold("Harvest"), status)
	fmt.Fprintf(w, "  %-16s %s\n", "run", s.RunID)
	fmt.Fprintf(w, "  %-16s %d\n", "pages visited", s.PagesVisited)
	fmt.Fprintf(w, "  %-16s %d\n", "pages with data", s.PagesWithData)
	fmt.Fprintf(w, "  %-16s %d\n", "pages skipped", s.PagesSkipped)
	fmt.Fprintf(w, "  %-16s %d\n", "rows written", s.RowsWritten)
	if len(s.Schema) > 0 {
		fmt.Fprintf(w, "  %-16s %s\n", "columns", strings.Join(s.Schema, ", "))
	}
	fmt.Fprintf(w, "  %-16s %s\n", "output", path)
	fmt.Fprintf(w, "  %-16s %s\n\n", "elapsed", s.Elapsed.Round(time.Millisecond))
}
