// Package cid carries a per-request correlation id across contexts,
// HTTP headers, and trace spans.
package cid

import "context"

// ContextKey keys the correlation id in a context.
type ContextKey struct{}

// HeaderName carries the correlation id on HTTP requests and
// responses. An incoming value is kept as-is; the server middleware
// mints a fresh KSUID only when the header is absent.
const HeaderName = "X-HG-CID"

// AttributeName is the span attribute the correlation id is recorded
// under.
const AttributeName = "hg.cid"

// WithCID stores the correlation id on the context.
func WithCID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, ContextKey{}, cid)
}

// CIDFromContext returns the context's correlation id, or "" when none
// is set.
func CIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ContextKey{}).(string); ok {
		return v
	}
	return ""
}

// AddHeaderFromContext copies the context's correlation id, if any,
// into headers so outgoing requests stay correlated with the work that
// triggered them.
func AddHeaderFromContext(headers map[string][]string, ctx context.Context) {
	if headers == nil {
		return
	}
	if cid := CIDFromContext(ctx); cid != "" {
		headers[HeaderName] = []string{cid}
	}
}
