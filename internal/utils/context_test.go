package utils

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	if _, ok := GetRequestIDFromContext(context.Background()); ok {
		t.Fatal("expected no request id on a bare context")
	}

	ctx := WithRequestID(context.Background(), "abc-123")
	got, ok := GetRequestIDFromContext(ctx)
	if !ok || got != "abc-123" {
		t.Errorf("expected abc-123, got %q (ok=%v)", got, ok)
	}
}
