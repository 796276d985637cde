// Package requestctx carries per-request metadata through contexts so that
// domain code can attribute audit records without importing HTTP packages.
package requestctx

import "context"

type ctxKey struct{}

type Meta struct {
	RequestID string
	ClientIP  string
}

func With(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, ctxKey{}, meta)
}

func From(ctx context.Context) Meta {
	meta, _ := ctx.Value(ctxKey{}).(Meta)
	return meta
}

// WithRequestID sets the request id while keeping any other metadata.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	meta := From(ctx)
	meta.RequestID = requestID
	return With(ctx, meta)
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	meta := From(ctx)
	meta.ClientIP = ip
	return With(ctx, meta)
}

func GetRequestID(ctx context.Context) string {
	return From(ctx).RequestID
}
