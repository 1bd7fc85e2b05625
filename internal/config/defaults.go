package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel        = "info"
	DefaultJSONLog         = false
	DefaultUserAgent       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	DefaultStartPage       = 1
	DefaultEndPage         = 307
	DefaultBaseURL         = "https://apextraderfunding.com/payouts/page/{page}"
	DefaultOutput          = "payouts.csv"
	DefaultFormat          = "csv"
	DefaultEngine          = "spa"
	DefaultNavTimeout      = 60 * time.Second
	DefaultSelectorTimeout = 15 * time.Second
	DefaultIdleTimeout     = 5 * time.Second
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultRateLimitRPS    = 1.0
	DefaultRateLimitBurst  = 1
	DefaultPageAttempts    = 1
	DefaultMaxPageAttempts = 5
	DefaultBrowserHeadless = true

	// PagePlaceholder is replaced by the page number in the base URL.
	PagePlaceholder = "{page}"
)
