package gosession

import "context"

type requestIDContextKey struct{}
type storeIDContextKey struct{}

// WithRequestID attaches a request correlation ID to ctx. The Controller
// copies it into every audit event emitted for operations carrying this ctx.
//
//	Docs: docs/audit.md
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// WithStoreID attaches the active store identifier to ctx. Audit events for
// store-scoped operations carry it; when absent, events record an empty
// store.
//
//	Docs: docs/audit.md, docs/controller.md
func WithStoreID(ctx context.Context, storeID string) context.Context {
	return context.WithValue(ctx, storeIDContextKey{}, storeID)
}

// RequestIDFromContext returns the request correlation ID attached by
// [WithRequestID], and whether one was set. Transports use it to stamp
// outbound headers.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	requestID, ok := ctx.Value(requestIDContextKey{}).(string)
	return requestID, ok && requestID != ""
}

// StoreIDFromContext returns the store identifier attached by [WithStoreID],
// and whether one was set.
func StoreIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	storeID, ok := ctx.Value(storeIDContextKey{}).(string)
	return storeID, ok && storeID != ""
}

func requestIDFromContext(ctx context.Context) string {
	requestID, _ := RequestIDFromContext(ctx)
	return requestID
}

func storeIDFromContext(ctx context.Context) string {
	storeID, _ := StoreIDFromContext(ctx)
	return storeID
}
