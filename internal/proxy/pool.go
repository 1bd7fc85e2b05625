// Package proxy rotates outgoing page requests across a list of proxies.
package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped.
const DefaultCooldown = 5 * time.Minute

// Pool hands out proxies round robin, skipping ones that failed recently.
type Pool struct {
	proxies  []*url.URL
	index    int
	cooldown time.Duration
	failed   map[string]time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// ParseList splits a comma separated proxy list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewPool validates proxies and creates a pool. An empty list yields an
// empty pool whose Next always returns nil.
func NewPool(proxies []string, cooldown time.Duration) (*Pool, error) {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	p := &Pool{
		cooldown: cooldown,
		failed:   make(map[string]time.Time),
		now:      time.Now,
	}
	for _, raw := range proxies {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", raw)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("invalid proxy %q: unsupported scheme %q", raw, u.Scheme)
		}
		p.proxies = append(p.proxies, u)
	}
	return p, nil
}

// Len returns the number of proxies in the pool
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Next returns the next proxy that is not cooling down. When every proxy
// failed recently the next one in turn is returned anyway.
func (p *Pool) Next() *url.URL {
	if p.Len() == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for range p.proxies {
		u := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failedAt, ok := p.failed[u.String()]
		if !ok {
			return u
		}
		if p.now().Sub(failedAt) >= p.cooldown {
			delete(p.failed, u.String())
			return u
		}
	}

	u := p.proxies[p.index]
	p.index = (p.index + 1) % len(p.proxies)
	return u
}

// MarkFailed benches u for the cooldown period.
func (p *Pool) MarkFailed(u *url.URL) {
	if u == nil || p.Len() == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[u.String()] = p.now()
}

// MarkHealthy clears the failure status of u.
func (p *Pool) MarkHealthy(u *url.URL) {
	if u == nil || p.Len() == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, u.String())
}
