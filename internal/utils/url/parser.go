package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Placeholder marks where the page number goes in a base URL template.
const Placeholder = "{page}"

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ValidateTemplate checks that a base URL template yields valid page URLs.
func ValidateTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return fmt.Errorf("base URL is required")
	}
	return ValidateURL(PageURL(template, 1))
}

// PageURL builds the address of page n: the placeholder is substituted when
// present, otherwise n is appended to the template.
func PageURL(template string, n int) string {
	page := strconv.Itoa(n)
	if strings.Contains(template, Placeholder) {
		return strings.ReplaceAll(template, Placeholder, page)
	}
	return template + page
}

// ResolveTarget turns an inspect argument into a URL: a bare page number is
// resolved against the template, anything else must be an absolute URL.
func ResolveTarget(template, arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 {
			return "", fmt.Errorf("page number must be >= 1, got %d", n)
		}
		return PageURL(template, n), nil
	}
	if err := ValidateURL(arg); err != nil {
		return "", err
	}
	return arg, nil
}
