package reqctx

import (
	"context"
	"testing"
)

func TestWithRun(t *testing.T) {
	ctx := WithRun(context.Background())
	rc := FromContext(ctx)
	if len(rc.RunID) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", rc.RunID)
	}
	if again := FromContext(WithRun(ctx)); again.RunID != rc.RunID {
		t.Errorf("WithRun replaced an existing run: %s != %s", again.RunID, rc.RunID)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if rc := FromContext(context.Background()); rc.RunID != "unknown" {
		t.Errorf("expected unknown run id, got %q", rc.RunID)
	}
}
