package placement

import (
	"html"
	"strings"

	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
)

// divClass is the class shared by every placeholder element.
const divClass = "adgeletti-ad-div"

// AdTag is one parsed ad declaration: a slot and the breakpoints it may be
// shown at, in template order.
type AdTag struct {
	Slot        string
	Breakpoints []string
}

// NewAdTag validates a declaration. A tag without breakpoints is a template
// authoring error and must stop the page from being assembled.
func NewAdTag(slot string, breakpoints ...string) (AdTag, error) {
	if len(breakpoints) == 0 {
		return AdTag{}, apperrors.WithMetadata(
			apperrors.CodePlaceholderBreakpointsMissing,
			"usage: ad SLOT BREAKPOINT [BREAKPOINT ...]",
			map[string]string{"slot": slot},
		)
	}
	return AdTag{Slot: slot, Breakpoints: append([]string(nil), breakpoints...)}, nil
}

// Placeholder is the element reserved for one (slot, breakpoint) pair.
type Placeholder struct {
	Slot       string
	Breakpoint string
	DivID      string
}

// HTML renders the hidden placeholder element.
func (p Placeholder) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="`)
	b.WriteString(divClass)
	b.WriteString(`" id="`)
	b.WriteString(html.EscapeString(p.DivID))
	b.WriteString(`" style="display:none"></div>`)
	b.WriteByte('\n')
	return b.String()
}
