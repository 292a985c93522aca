package render

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/louisbranch/adgeletti/internal/ads/placement"
)

// Ad declares an ad placeholder for slot at each breakpoint. A call without
// breakpoints fails when the page renders, so the page is never served with
// that placeholder missing.
func Ad(slot string, breakpoints ...string) templ.Component {
	tag, tagErr := placement.NewAdTag(slot, breakpoints...)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if tagErr != nil {
			return tagErr
		}
		s, ok := SessionFromContext(ctx)
		if !ok {
			return ErrNoSession
		}
		_, err := io.WriteString(w, s.Declare(tag).HTML())
		return err
	})
}

// Go resolves every placeholder declared so far and writes the data block.
// Place it once, after the last Ad.
func Go() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s, ok := SessionFromContext(ctx)
		if !ok {
			return ErrNoSession
		}
		res, err := s.Resolve(ctx)
		if err != nil {
			return err
		}
		out, err := res.HTML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}
