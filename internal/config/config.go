package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	headersutil "github.com/law-makers/payout-harvest/internal/utils/headers"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`

	// Traversal
	StartPage int    `yaml:"start_page"`
	EndPage   int    `yaml:"end_page"`
	BaseURL   string `yaml:"base_url"`

	// Output
	Output string `yaml:"output"`
	Format string `yaml:"format"`

	// Waits
	NavTimeout      time.Duration `yaml:"nav_timeout"`
	SelectorTimeout time.Duration `yaml:"selector_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	PageAttempts    int           `yaml:"page_attempts"`

	// Rate Limiting
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// Navigation engine
	Engine          string            `yaml:"engine"`
	BrowserHeadless bool              `yaml:"headless"`
	ChromePath      string            `yaml:"chrome_path"`
	UserAgent       string            `yaml:"user_agent"`
	Proxy           string            `yaml:"proxy"`
	Headers         map[string]string `yaml:"headers"`
}

// Default returns a Config populated with the default constants.
func Default() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		StartPage:       DefaultStartPage,
		EndPage:         DefaultEndPage,
		BaseURL:         DefaultBaseURL,
		Output:          DefaultOutput,
		Format:          DefaultFormat,
		NavTimeout:      DefaultNavTimeout,
		SelectorTimeout: DefaultSelectorTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		HTTPTimeout:     DefaultHTTPTimeout,
		PageAttempts:    DefaultPageAttempts,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		Engine:          DefaultEngine,
		BrowserHeadless: DefaultBrowserHeadless,
		UserAgent:       DefaultUserAgent,
		Headers:         map[string]string{},
	}
}

// Load builds a Config by combining defaults, an optional YAML config file,
// environment variables, and CLI flags, in that order of precedence.
// Caller should pass the executing *cobra.Command so its flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path := os.Getenv("HARVEST_CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML document at path onto cfg.
func loadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv reads HARVEST_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("HARVEST_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("HARVEST_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("HARVEST_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("HARVEST_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("HARVEST_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("HARVEST_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := os.Getenv("HARVEST_START_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HARVEST_START_PAGE: %w", err)
		}
		cfg.StartPage = n
	}
	if v := os.Getenv("HARVEST_END_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HARVEST_END_PAGE: %w", err)
		}
		cfg.EndPage = n
	}
	return nil
}

// applyFlags overrides cfg with every flag the user set explicitly.
func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	str := func(name string) string {
		return flags.Lookup(name).Value.String()
	}
	dur := func(name string, dst *time.Duration) error {
		if !changed(name) {
			return nil
		}
		d, err := time.ParseDuration(str(name))
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = d
		return nil
	}

	if changed("base-url") {
		cfg.BaseURL = str("base-url")
	}
	if changed("engine") {
		cfg.Engine = str("engine")
	}
	if changed("proxy") {
		cfg.Proxy = str("proxy")
	}
	if changed("user-agent") {
		cfg.UserAgent = str("user-agent")
	}
	if changed("chrome-path") {
		cfg.ChromePath = str("chrome-path")
	}
	if changed("output") {
		cfg.Output = str("output")
	}
	if changed("format") {
		cfg.Format = str("format")
	}
	if changed("headful") {
		headful, _ := flags.GetBool("headful")
		cfg.BrowserHeadless = !headful
	}
	if changed("json") {
		cfg.JSONLog, _ = flags.GetBool("json")
	}
	if changed("verbose") {
		if v, _ := flags.GetBool("verbose"); v {
			cfg.LogLevel = "debug"
		}
	}
	if changed("quiet") {
		if q, _ := flags.GetBool("quiet"); q {
			cfg.LogLevel = "error"
		}
	}
	if changed("header") {
		raw, _ := flags.GetStringArray("header")
		parsed, err := headersutil.ParseHeaders(raw)
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range parsed {
			cfg.Headers[k] = v
		}
	}
	if changed("rps") {
		cfg.RateLimitRPS, _ = flags.GetFloat64("rps")
	}
	if changed("start") {
		cfg.StartPage, _ = flags.GetInt("start")
	}
	if changed("end") {
		cfg.EndPage, _ = flags.GetInt("end")
	}
	if changed("attempts") {
		cfg.PageAttempts, _ = flags.GetInt("attempts")
	}

	for name, dst := range map[string]*time.Duration{
		"nav-timeout":      &cfg.NavTimeout,
		"selector-timeout": &cfg.SelectorTimeout,
		"idle-timeout":     &cfg.IdleTimeout,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}
	return nil
}
