// Package headers parses extra request headers given on the command line.
package headers

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// ParseHeaders converts "Key: Value" strings into a map keyed by the
// canonical header name. Entries without a colon or with an invalid name
// or value are rejected.
func ParseHeaders(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q: expected \"Key: Value\"", hdr)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldName(key) {
			return nil, fmt.Errorf("invalid header name %q", key)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("invalid value for header %s", key)
		}
		m[http.CanonicalHeaderKey(key)] = value
	}
	return m, nil
}
