package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/payout-harvest/internal/harvest"
	"github.com/law-makers/payout-harvest/internal/ui"
	urlutil "github.com/law-makers/payout-harvest/internal/utils/url"
	"github.com/law-makers/payout-harvest/pkg/models"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <page|url>",
	Short: "Show what the extractor finds on a single page",
	Long: `Loads one page the same way a run does and prints the detected layout, the
headers and the rows. Nothing is written to the output file.

The argument is either a page number, resolved against --base-url, or a full URL.`,
	Example: `  # Check page 12 of the listing
  harvest inspect 12

  # Any URL, rendered as markdown
  harvest inspect https://example.com/payouts --style markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("style", "table", "Rendering: table, markdown or csv")
}

func runInspect(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	style, _ := cmd.Flags().GetString("style")
	switch style {
	case "table", "markdown", "csv":
	default:
		return fmt.Errorf("invalid style: %s (must be table, markdown or csv)", style)
	}

	url, err := urlutil.ResolveTarget(a.Config.BaseURL, args[0])
	if err != nil {
		return err
	}

	nav, err := a.Navigator(cmd.Context(), url)
	if err != nil {
		return err
	}

	logger := log.With().Str("url", url).Logger()
	result, layout, err := harvest.LoadPage(cmd.Context(), nav, url, a.Waits(), a.RetryConfig(), logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if style == "table" {
		fmt.Fprintf(out, "%s %s  %s %d  %s %d\n",
			ui.Info("layout"), layout,
			ui.Info("columns"), len(result.Headers),
			ui.Info("rows"), len(result.Rows))
	}
	if result.Empty() {
		fmt.Fprintln(out, ui.Info("no table data on this page"))
		return nil
	}

	renderResult(cmd, result, style)
	return nil
}

// renderResult prints result with go-pretty. Without headers the columns get
// the same col_N names a run would use.
func renderResult(cmd *cobra.Command, result models.PageResult, style string) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	headers := result.Headers
	if len(headers) == 0 && len(result.Rows) > 0 {
		headers = harvest.SyntheticColumns(len(result.Rows[0]))
	}
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range result.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}

	switch style {
	case "markdown":
		t.RenderMarkdown()
	case "csv":
		t.RenderCSV()
	default:
		t.Render()
	}
}
