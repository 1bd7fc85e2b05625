package proxy

import (
	"testing"
	"time"
)

func hosts(t *testing.T, p *Pool, n int) []string {
	t.Helper()
	var out []string
	for i := 0; i < n; i++ {
		out = append(out, p.Next().Host)
	}
	return out
}

func TestPool_Rotation(t *testing.T) {
	pool, err := NewPool([]string{"http://p1:8080", "http://p2:8080", "socks5://p3:1080"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	got := hosts(t, pool, 4)
	want := []string{"p1:8080", "p2:8080", "p3:1080", "p1:8080"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
}

func TestPool_SkipsFailedUntilCooldown(t *testing.T) {
	pool, _ := NewPool([]string{"http://p1:1", "http://p2:1"}, time.Minute)
	now := time.Now()
	pool.now = func() time.Time { return now }

	p1 := pool.Next()
	pool.MarkFailed(p1)

	for _, h := range hosts(t, pool, 3) {
		if h == "p1:1" {
			t.Fatal("failed proxy handed out during cooldown")
		}
	}

	now = now.Add(2 * time.Minute)
	seen := false
	for _, h := range hosts(t, pool, 2) {
		if h == "p1:1" {
			seen = true
		}
	}
	if !seen {
		t.Error("proxy should return after cooldown")
	}
}

func TestPool_AllFailedStillReturnsOne(t *testing.T) {
	pool, _ := NewPool([]string{"http://p1:1"}, time.Minute)
	u := pool.Next()
	pool.MarkFailed(u)
	if pool.Next() == nil {
		t.Fatal("expected a proxy even when all are failing")
	}
	pool.MarkHealthy(u)
}

func TestPool_EmptyAndInvalid(t *testing.T) {
	empty, err := NewPool(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Next() != nil || empty.Len() != 0 {
		t.Error("empty pool should hand out nil")
	}

	if _, err := NewPool([]string{"ftp://nope:21"}, 0); err == nil {
		t.Error("expected error for unsupported scheme")
	}
	if _, err := NewPool([]string{"not a proxy"}, 0); err == nil {
		t.Error("expected error for missing host")
	}
}

func TestParseList(t *testing.T) {
	got := ParseList(" http://a:1, ,http://b:2 ")
	if len(got) != 2 || got[0] != "http://a:1" || got[1] != "http://b:2" {
		t.Errorf("ParseList = %v", got)
	}
}
