// Package web serves pages that declare ad placeholders and resolve them
// against the ad catalog.
//
// Each request gets its own placement.Session bound to the site resolved from
// the request host. Pages are rendered into a buffer first so a failed
// catalog lookup turns into an error status instead of a half-written page.
package web
