// Package render exposes the placement protocol to page templates.
//
// templ pages use Ad and Go, which find the render's Session in the context
// passed to Render. html/template pages bind a Session through Funcs when the
// page is executed.
package render

import (
	"context"
	"errors"

	"github.com/louisbranch/adgeletti/internal/ads/placement"
)

// ErrNoSession is returned when an ad component renders without a session.
var ErrNoSession = errors.New("render: no ad session in context")

type sessionContextKey struct{}

// WithSession attaches the render's session to ctx.
func WithSession(ctx context.Context, s *placement.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext returns the session attached with WithSession.
func SessionFromContext(ctx context.Context) (*placement.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionContextKey{}).(*placement.Session)
	return s, ok && s != nil
}
