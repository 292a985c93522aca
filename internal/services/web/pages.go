package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/louisbranch/adgeletti/internal/ads/render"
)

//go:embed templates/*.html
var templateFS embed.FS

const articleTemplate = "article.html"

// Ad slots placed on the demo pages.
const (
	slotLeaderboard = "leaderboard"
	slotSidebar     = "sidebar"
	slotInline      = "inline"
)

// Breakpoints the demo pages serve ads at.
const (
	breakpointDesktop = "desktop"
	breakpointTablet  = "tablet"
	breakpointMobile  = "mobile"
)

type story struct {
	Slug    string
	Title   string
	Summary string
	Body    []string
}

type articleView struct {
	Lang      string
	BackLabel string
	AdLabel   string
	Article   story
}

var frontPageStories = []story{
	{
		Slug:    "harbor-reopens",
		Title:   "Harbor reopens after winter repairs",
		Summary: "Ferries return to the old pier this weekend.",
		Body: []string{
			"The harbor authority confirmed that the north pier is open again.",
			"Weekend ferries will run on the summer timetable starting Saturday.",
		},
	},
	{
		Slug:    "market-hours",
		Title:   "Night market extends its hours",
		Summary: "Vendors will stay open until midnight through August.",
		Body: []string{
			"The night market will close at midnight on Fridays and Saturdays.",
		},
	},
}

func findArticle(slug string) (story, bool) {
	for _, s := range frontPageStories {
		if s.Slug == slug {
			return s, true
		}
	}
	return story{}, false
}

// parsePages parses the embedded html/template pages and rejects malformed
// ad calls.
func parsePages() (*template.Template, error) {
	pages, err := render.NewTemplate("pages").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	if err := render.CheckTemplate(pages); err != nil {
		return nil, fmt.Errorf("check page templates: %w", err)
	}
	return pages, nil
}

// homePage lists the front page stories between a leaderboard and a sidebar
// ad, then resolves them.
func homePage(l localizer, stories []story) templ.Component {
	return templ.Join(
		templ.Raw("<!doctype html>\n"),
		element("html", []attr{{"lang", l.Lang()}},
			element("head", nil,
				templ.Raw(`<meta charset="utf-8">`),
				element("title", nil, text(l.T("web.front.title"))),
			),
			element("body", nil,
				render.Ad(slotLeaderboard, breakpointDesktop, breakpointTablet),
				element("main", nil,
					element("h1", nil, text(l.T("web.front.heading"))),
					storyList(stories),
				),
				element("aside", []attr{{"aria-label", l.T("web.ads.label")}},
					render.Ad(slotSidebar, breakpointDesktop),
				),
				render.Go(),
			),
		),
	)
}

func storyList(stories []story) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, s := range stories {
			item := element("article", nil,
				element("h2", nil, element("a", []attr{{"href", routeArticle + s.Slug}}, text(s.Title))),
				element("p", nil, text(s.Summary)),
			)
			if err := item.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

type attr struct {
	name  string
	value string
}

// element renders tag with escaped attribute values around children.
func element(tag string, attrs []attr, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var open strings.Builder
		open.WriteString("<" + tag)
		for _, a := range attrs {
			open.WriteString(" " + a.name + `="` + templ.EscapeString(a.value) + `"`)
		}
		open.WriteString(">")
		if _, err := io.WriteString(w, open.String()); err != nil {
			return err
		}
		for _, child := range children {
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">\n")
		return err
	})
}

// text writes s escaped.
func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}
