package placement

import "strings"

// DivIDPrefix starts every placeholder element id.
const DivIDPrefix = "adgeletti-ad-div"

// replacement is substituted for every character outside [A-Za-z0-9_-].
const replacement = '-'

// CleanValue makes value safe for use inside an element id.
func CleanValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return replacement
		}
	}, value)
}

// DivID returns the placeholder element id for a slot at a breakpoint. It is a
// pure function of its inputs, so client code can recompute it.
func DivID(slot, breakpoint string) string {
	return DivIDPrefix + "-" + CleanValue(slot) + "-" + CleanValue(breakpoint)
}
