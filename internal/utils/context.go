package utils

import (
	"context"
)

type contextKey string

const ContextRequestIDKey contextKey = "requestID"

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextRequestIDKey, id)
}

func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	requestID := ctx.Value(ContextRequestIDKey)
	requestIDStr, ok := requestID.(string)
	return requestIDStr, ok
}
