package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/louisbranch/adgeletti/internal/ads/catalog"
	"github.com/louisbranch/adgeletti/internal/ads/placement"
)

const testNetworkID = "1234"

func newTestCatalog(t *testing.T) *catalog.Memory {
	t.Helper()
	ctx := context.Background()
	store := catalog.NewMemory()
	leaderboard := []catalog.Size{{Width: 728, Height: 90}, {Width: 970, Height: 90}}
	steps := []error{
		store.PutSite(ctx, catalog.Site{ID: "news", Domain: "news.example.com", Name: "News"}),
		store.PutAdUnit(ctx, catalog.AdUnit{UnitID: "NEWS_TOP", SiteID: "news"}),
		store.PutAdUnit(ctx, catalog.AdUnit{UnitID: "NEWS_SIDE", SiteID: "news"}),
		store.PutAdUnit(ctx, catalog.AdUnit{UnitID: "NEWS_INLINE", SiteID: "news"}),
		store.PutPosition(ctx, catalog.Position{Slot: slotLeaderboard, Breakpoint: breakpointDesktop, UnitID: "NEWS_TOP", Sizes: leaderboard}),
		store.PutPosition(ctx, catalog.Position{Slot: slotSidebar, Breakpoint: breakpointDesktop, UnitID: "NEWS_SIDE", Sizes: []catalog.Size{{Width: 300, Height: 250}}}),
		store.PutPosition(ctx, catalog.Position{Slot: slotInline, Breakpoint: breakpointMobile, UnitID: "NEWS_INLINE", Sizes: []catalog.Size{{Width: 320, Height: 50}}}),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
	return store
}

func newTestHandler(t *testing.T, store catalog.Store) http.Handler {
	t.Helper()
	h, err := NewHandler(Config{NetworkID: testNetworkID, DefaultSiteID: "default", Catalog: store})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func serve(h http.Handler, method, target, host string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Host = host
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// divIDs returns the ids of ad placeholder divs in document order.
func divIDs(t *testing.T, body string) []string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	var ids []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" {
			var id, class string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "id":
					id = attr.Val
				case "class":
					class = attr.Val
				}
			}
			if class == "adgeletti-ad-div" {
				ids = append(ids, id)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ids
}

func htmlLang(t *testing.T, body string) string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "html" {
			for _, attr := range c.Attr {
				if attr.Key == "lang" {
					return attr.Val
				}
			}
		}
	}
	return ""
}

func TestHomePageResolvesPositionsForHostSite(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodGet, "/", "news.example.com:8086", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
	body := rec.Body.String()

	wantIDs := []string{
		placement.DivID(slotLeaderboard, breakpointDesktop),
		placement.DivID(slotLeaderboard, breakpointTablet),
		placement.DivID(slotSidebar, breakpointDesktop),
	}
	if diff := cmp.Diff(wantIDs, divIDs(t, body)); diff != "" {
		t.Fatalf("div ids mismatch (-want +got):\n%s", diff)
	}

	wantScript := "<script type=\"text/javascript\">\n" +
		`Adgeletti.position({"breakpoint":"desktop","ad_unit_id":"1234/NEWS_TOP","sizes":[[728,90],[970,90]],"div_id":"adgeletti-ad-div-leaderboard-desktop"});` + "\n" +
		`Adgeletti.position({"breakpoint":"desktop","ad_unit_id":"1234/NEWS_SIDE","sizes":[[300,250]],"div_id":"adgeletti-ad-div-sidebar-desktop"});` + "\n" +
		"</script>\n"
	if !strings.Contains(body, wantScript) {
		t.Fatalf("body missing data block:\n%s", body)
	}
	if strings.Contains(body, "<!--") {
		t.Fatalf("unexpected diagnostic in body:\n%s", body)
	}
}

func TestHomePageUnknownHostUsesDefaultSite(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodGet, "/", "other.example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	want := "<script type=\"text/javascript\">\n" +
		"// No ad positions exist for the slots in the page (slots: leaderboard, sidebar)\n" +
		"</script>\n"
	if !strings.Contains(body, want) {
		t.Fatalf("body missing empty catalog output:\n%s", body)
	}
}

func TestArticlePageRendersThroughHTMLTemplate(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodGet, "/articles/harbor-reopens", "news.example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := rec.Body.String()

	wantIDs := []string{
		placement.DivID(slotLeaderboard, breakpointDesktop),
		placement.DivID(slotLeaderboard, breakpointTablet),
		placement.DivID(slotInline, breakpointMobile),
		placement.DivID(slotInline, breakpointTablet),
		placement.DivID(slotSidebar, breakpointDesktop),
	}
	if diff := cmp.Diff(wantIDs, divIDs(t, body)); diff != "" {
		t.Fatalf("div ids mismatch (-want +got):\n%s", diff)
	}
	for _, unit := range []string{"1234/NEWS_TOP", "1234/NEWS_SIDE", "1234/NEWS_INLINE"} {
		if !strings.Contains(body, `"ad_unit_id":"`+unit+`"`) {
			t.Fatalf("body missing record for %s:\n%s", unit, body)
		}
	}
	if !strings.Contains(body, "<h1>Harbor reopens after winter repairs</h1>") {
		t.Fatalf("body missing article title:\n%s", body)
	}
}

func TestArticlePageNotFound(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodGet, "/articles/missing", "news.example.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodGet, "/nope", "news.example.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPagesRejectWrites(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodPost, "/", "news.example.com", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
		t.Fatalf("allow = %q", got)
	}
}

func TestHeadWritesNoBody(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodHead, "/", "news.example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body length = %d, want 0", rec.Body.Len())
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	rec := serve(h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestPageStringsAreLocalized(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	header := http.Header{}
	header.Set("Accept-Language", "it")
	home := serve(h, http.MethodGet, "/", "news.example.com", header).Body.String()
	if !strings.Contains(home, "<title>Prima pagina</title>") {
		t.Fatalf("home page not localized:\n%s", home)
	}
	article := serve(h, http.MethodGet, "/articles/market-hours", "news.example.com", header).Body.String()
	if !strings.Contains(article, "Torna alla prima pagina") {
		t.Fatalf("article page not localized:\n%s", article)
	}
}

func TestPageLanguageFollowsAcceptLanguage(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "default", header: "", want: "en-US"},
		{name: "italian", header: "it-IT,it;q=0.9", want: "it-IT"},
		{name: "portuguese", header: "pt-BR", want: "pt-BR"},
		{name: "unsupported", header: "ja", want: "en-US"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.header != "" {
				header.Set("Accept-Language", tc.header)
			}
			rec := serve(h, http.MethodGet, "/", "news.example.com", header)
			if got := htmlLang(t, rec.Body.String()); got != tc.want {
				t.Fatalf("lang = %q, want %q", got, tc.want)
			}
		})
	}
}

type failingCatalog struct {
	catalog.Store
	err error
}

func (f failingCatalog) FindPositions(context.Context, string, []string, []string) ([]catalog.Position, error) {
	return nil, f.err
}

func TestCatalogFailureReturnsServiceUnavailable(t *testing.T) {
	h := newTestHandler(t, failingCatalog{Store: newTestCatalog(t), err: errors.New("database is locked")})

	for _, target := range []string{"/", "/articles/market-hours"} {
		rec := serve(h, http.MethodGet, target, "news.example.com", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: status = %d, want %d", target, rec.Code, http.StatusServiceUnavailable)
		}
		if strings.Contains(rec.Body.String(), "adgeletti-ad-div") {
			t.Fatalf("%s: partial page written on failure:\n%s", target, rec.Body.String())
		}
	}
}

func TestCatalogTimeoutReturnsGatewayTimeout(t *testing.T) {
	h := newTestHandler(t, failingCatalog{Store: newTestCatalog(t), err: context.DeadlineExceeded})

	rec := serve(h, http.MethodGet, "/", "news.example.com", nil)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusGatewayTimeout)
	}
}

func TestNewHandlerValidatesConfig(t *testing.T) {
	store := catalog.NewMemory()
	tests := []struct {
		name   string
		config Config
	}{
		{name: "missing catalog", config: Config{NetworkID: testNetworkID, DefaultSiteID: "default"}},
		{name: "missing network", config: Config{DefaultSiteID: "default", Catalog: store}},
		{name: "missing default site", config: Config{NetworkID: testNetworkID, Catalog: store}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewHandler(tc.config); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEachRequestGetsFreshSession(t *testing.T) {
	h := newTestHandler(t, newTestCatalog(t))

	first := serve(h, http.MethodGet, "/", "news.example.com", nil).Body.String()
	second := serve(h, http.MethodGet, "/", "news.example.com", nil).Body.String()
	if first != second {
		t.Fatalf("responses differ between requests:\n%s\n---\n%s", first, second)
	}
	if strings.Contains(second, placement.MsgResolvedTwice) {
		t.Fatalf("second request reused a resolved session:\n%s", second)
	}
}
