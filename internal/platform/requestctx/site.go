// Package requestctx carries request-scoped values that outlive a single
// handler call, such as the site a page is being rendered for.
package requestctx

import "context"

// siteIDContextKey is the context key for the current site.
type siteIDContextKey struct{}

// WithSiteID stores the current site identifier in context.
func WithSiteID(ctx context.Context, siteID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, siteIDContextKey{}, siteID)
}

// SiteIDFromContext returns the site identifier stored in context.
func SiteIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(siteIDContextKey{}).(string)
	return value
}
