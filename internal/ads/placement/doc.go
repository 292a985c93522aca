// Package placement collects ad placeholders while a page renders and
// resolves them against the ad catalog once, at the end of the page.
//
// A render owns exactly one Session. Templates call Declare wherever an ad
// may appear; each call emits hidden placeholder divs and records the
// (slot, breakpoint) pairs it saw. A single Resolve call near the end of the
// document looks up the catalog for those pairs and emits one script block
// that client code uses to display ads per breakpoint.
//
// Misuse of that order (declaring after resolving, resolving twice, resolving
// with nothing declared) never fails the render. It produces an HTML comment
// instead, visible in page source only.
package placement
