package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Emit logs as JSON lines on stderr")
	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file (optional)")
	cmd.PersistentFlags().String("base-url", "", "Page URL template; {page} is replaced by the page number, otherwise the number is appended")
	cmd.PersistentFlags().String("engine", "", "Navigation engine: spa (headless Chrome), static (plain HTTP) or auto (probe the first page)")
	cmd.PersistentFlags().String("proxy", "", "HTTP/SOCKS5 proxy; a comma separated list rotates static fetches (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (e.g., -H \"Accept-Language: en\")")
	cmd.PersistentFlags().String("nav-timeout", "", "Timeout for loading a page (e.g., 60s)")
	cmd.PersistentFlags().String("selector-timeout", "", "Best-effort wait for the payout table (e.g., 15s)")
	cmd.PersistentFlags().String("idle-timeout", "", "Best-effort wait for network idle (e.g., 5s)")
	cmd.PersistentFlags().Float64("rps", 0, "Maximum page loads per second")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
}
