package models

import "time"

// PageResult is what the extractor found on one rendered page.
// Both slices are empty when the page carried no supported table.
type PageResult struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the page yielded neither headers nor rows.
func (r PageResult) Empty() bool {
	return len(r.Headers) == 0 && len(r.Rows) == 0
}

// OutputFormat selects the sink used for a run
type OutputFormat string

const (
	FormatCSV   OutputFormat = "csv"
	FormatJSONL OutputFormat = "jsonl"
)

// EngineMode defines the navigation backend to use
type EngineMode string

const (
	ModeAuto   EngineMode = "auto"
	ModeSPA    EngineMode = "spa"
	ModeStatic EngineMode = "static"
)

// PageReport describes the outcome of a single page of a run.
type PageReport struct {
	Page     int           `json:"page"`
	URL      string        `json:"url"`
	Layout   string        `json:"layout"`
	Rows     int           `json:"rows"`
	Skipped  bool          `json:"skipped"`
	Duration time.Duration `json:"duration"`
}
