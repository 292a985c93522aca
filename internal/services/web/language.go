package web

import (
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	i18ncatalog "github.com/louisbranch/adgeletti/internal/platform/i18n/catalog"
)

// locales matches requests against the locales the message bundle defines.
type locales struct {
	tags    []language.Tag
	matcher language.Matcher
}

// localizer renders page strings for one request.
type localizer struct {
	tag     language.Tag
	printer *message.Printer
}

func (l localizer) Lang() string { return l.tag.String() }

func (l localizer) T(key string) string { return l.printer.Sprintf(key) }

// newLocales orders the bundle's locales with the base locale first, so it
// wins when nothing matches.
func newLocales(bundle *i18ncatalog.Bundle) (*locales, error) {
	names := bundle.Locales()
	if !slices.Contains(names, i18ncatalog.BaseLocale) {
		return nil, fmt.Errorf("message bundle lacks base locale %s", i18ncatalog.BaseLocale)
	}
	tags := []language.Tag{language.MustParse(i18ncatalog.BaseLocale)}
	for _, name := range names {
		if name == i18ncatalog.BaseLocale {
			continue
		}
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return &locales{tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// forRequest picks the page language from Accept-Language.
func (l *locales) forRequest(r *http.Request) localizer {
	tag := l.tags[0]
	if r != nil {
		if accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(accepted) > 0 {
			_, index, _ := l.matcher.Match(accepted...)
			tag = l.tags[index]
		}
	}
	return localizer{tag: tag, printer: message.NewPrinter(tag)}
}
