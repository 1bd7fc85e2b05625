package headers

import (
	"reflect"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	in := []string{"user-agent: Bot", "Accept: text/html", "X-Time: 10:30"}
	out, err := ParseHeaders(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]string{"User-Agent": "Bot", "Accept": "text/html", "X-Time": "10:30"}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParseHeaders_Invalid(t *testing.T) {
	for _, in := range []string{"BadHeader", "Bad Name: x", "X-Ok: line\nbreak"} {
		if _, err := ParseHeaders([]string{in}); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
