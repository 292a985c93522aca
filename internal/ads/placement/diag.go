package placement

import (
	"html"
	"strings"
)

// Diagnostic messages emitted inline when templates use the protocol out of
// order or the catalog has nothing for the page.
const (
	MsgDeclaredAfterResolve = "ad used after adgeletti_go used"
	MsgResolveWithoutAds    = "adgeletti_go was run without an ad"
	MsgResolvedTwice        = "adgeletti_go called more than once"
)

// MsgNoPositions names the slots for which the catalog had no positions.
func MsgNoPositions(slots []string) string {
	return "No ad positions exist for the slots in the page (slots: " + strings.Join(slots, ", ") + ")"
}

// Comment formats text as an escaped, inert HTML comment line.
func Comment(text string) string {
	return "<!-- " + html.EscapeString(text) + " -->\n"
}
