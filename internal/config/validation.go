package config

import (
	"fmt"

	"github.com/law-makers/payout-harvest/internal/proxy"
	urlutil "github.com/law-makers/payout-harvest/internal/utils/url"
	"github.com/law-makers/payout-harvest/pkg/models"
)

func validate(c *Config) error {
	if c.StartPage < 1 {
		return fmt.Errorf("start page must be >= 1")
	}
	if c.EndPage < c.StartPage {
		return fmt.Errorf("end page (%d) must be >= start page (%d)", c.EndPage, c.StartPage)
	}
	if err := urlutil.ValidateTemplate(c.BaseURL); err != nil {
		return err
	}
	if c.NavTimeout <= 0 || c.SelectorTimeout <= 0 || c.IdleTimeout <= 0 || c.HTTPTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.PageAttempts < 1 || c.PageAttempts > DefaultMaxPageAttempts {
		return fmt.Errorf("page attempts must be between 1 and %d", DefaultMaxPageAttempts)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must be >= 0")
	}
	switch models.OutputFormat(c.Format) {
	case models.FormatCSV, models.FormatJSONL:
	default:
		return fmt.Errorf("unsupported output format %q (must be csv or jsonl)", c.Format)
	}
	switch models.EngineMode(c.Engine) {
	case models.ModeAuto, models.ModeSPA, models.ModeStatic:
	default:
		return fmt.Errorf("unsupported engine %q (must be auto, spa or static)", c.Engine)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	if _, err := proxy.NewPool(proxy.ParseList(c.Proxy), 0); err != nil {
		return err
	}
	if c.Output == "" {
		return fmt.Errorf("output path is required")
	}
	return nil
}
