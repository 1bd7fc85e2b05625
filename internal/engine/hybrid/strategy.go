// Package hybrid picks a navigation engine for the "auto" mode by looking
// at what a plain HTTP fetch of the first page already contains.
package hybrid

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/payout-harvest/internal/engine"
	"github.com/law-makers/payout-harvest/internal/extract"
)

// Strategy represents the navigation engine to use
type Strategy int

const (
	// StrategyStatic uses plain HTTP fetches
	StrategyStatic Strategy = iota

	// StrategyDynamic uses full browser rendering
	StrategyDynamic
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "static"
	case StrategyDynamic:
		return "spa"
	default:
		return "unknown"
	}
}

// DetermineStrategy chooses static when the server-rendered document already
// holds payout rows, and the browser otherwise.
func DetermineStrategy(doc *goquery.Document) Strategy {
	if doc == nil {
		return StrategyDynamic
	}
	node := extract.FromDocument(doc)
	if extract.Classify(node) == extract.LayoutNone {
		return StrategyDynamic
	}
	if len(extract.Extract(node).Rows) == 0 {
		return StrategyDynamic
	}
	return StrategyStatic
}

// Probe fetches url with the static navigator and decides the strategy.
// Any failure falls back to the browser, which is slower but renders
// everything.
func Probe(ctx context.Context, static engine.Navigator, url string) Strategy {
	if err := static.Navigate(ctx, url); err != nil {
		log.Debug().Err(err).Str("url", url).Msg("Static probe failed, using browser")
		return StrategyDynamic
	}
	doc, err := static.Document(ctx)
	if err != nil {
		return StrategyDynamic
	}
	s := DetermineStrategy(doc)
	log.Debug().Str("url", url).Str("strategy", s.String()).Msg("Engine selected by probe")
	return s
}
