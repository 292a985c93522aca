package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/louisbranch/adgeletti/internal/ads/catalog"
	"github.com/louisbranch/adgeletti/internal/ads/placement"
	"github.com/louisbranch/adgeletti/internal/ads/render"
	i18ncatalog "github.com/louisbranch/adgeletti/internal/platform/i18n/catalog"
	"github.com/louisbranch/adgeletti/internal/platform/requestctx"
	"github.com/louisbranch/adgeletti/internal/platform/timeouts"
)

const (
	routeHome    = "/"
	routeArticle = "/articles/"
	routeHealthz = "/healthz"
)

type handler struct {
	networkID     string
	defaultSiteID string
	catalog       catalog.Store
	pages         *template.Template
	locales       *locales
}

// NewHandler builds the page routes.
func NewHandler(config Config) (http.Handler, error) {
	if config.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	networkID := strings.TrimSpace(config.NetworkID)
	if networkID == "" {
		return nil, errors.New("network id is required")
	}
	defaultSiteID := strings.TrimSpace(config.DefaultSiteID)
	if defaultSiteID == "" {
		return nil, errors.New("default site id is required")
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	langs, err := newLocales(i18ncatalog.Default())
	if err != nil {
		return nil, err
	}

	h := &handler{
		networkID:     networkID,
		defaultSiteID: defaultSiteID,
		catalog:       config.Catalog,
		pages:         pages,
		locales:       langs,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(routeHealthz, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle(routeArticle, h.withSite(http.HandlerFunc(h.handleArticle)))
	mux.Handle(routeHome, h.withSite(http.HandlerFunc(h.handleHome)))
	return mux, nil
}

// withSite resolves the site served by the request host. Unknown hosts use
// the default site.
func (h *handler) withSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siteID := h.siteIDForHost(r.Context(), r.Host)
		next.ServeHTTP(w, r.WithContext(requestctx.WithSiteID(r.Context(), siteID)))
	})
}

func (h *handler) siteIDForHost(ctx context.Context, hostport string) string {
	host := hostport
	if parsed, _, err := net.SplitHostPort(hostport); err == nil {
		host = parsed
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return h.defaultSiteID
	}
	siteID, err := h.catalog.SiteIDForDomain(ctx, host)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			log.Printf("resolve site for host %q: %v", host, err)
		}
		return h.defaultSiteID
	}
	return siteID
}

func (h *handler) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != routeHome {
		http.NotFound(w, r)
		return
	}
	if !allowRead(w, r) {
		return
	}
	l := h.locales.forRequest(r)
	h.renderPage(w, r, func(ctx context.Context, s *placement.Session, buf *bytes.Buffer) error {
		return homePage(l, frontPageStories).Render(render.WithSession(ctx, s), buf)
	})
}

func (h *handler) handleArticle(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, routeArticle), "/")
	article, ok := findArticle(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}
	l := h.locales.forRequest(r)
	view := articleView{
		Lang:      l.Lang(),
		BackLabel: l.T("web.article.back"),
		AdLabel:   l.T("web.ads.label"),
		Article:   article,
	}
	h.renderPage(w, r, func(ctx context.Context, s *placement.Session, buf *bytes.Buffer) error {
		return render.Execute(ctx, buf, h.pages, articleTemplate, s, view)
	})
}

// renderPage renders into a buffer with a fresh session, so a failed render
// never reaches the client half-written.
func (h *handler) renderPage(w http.ResponseWriter, r *http.Request, fn func(context.Context, *placement.Session, *bytes.Buffer) error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.PageRender)
	defer cancel()

	session := placement.NewSession(placement.Config{
		SiteID:    requestctx.SiteIDFromContext(ctx),
		NetworkID: h.networkID,
		Lookup:    h.catalog,
	})
	var buf bytes.Buffer
	if err := fn(ctx, session, &buf); err != nil {
		h.writeRenderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("write page %s: %v", r.URL.Path, err)
	}
}

func (h *handler) writeRenderError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := renderErrorStatus(err)
	log.Printf("render page %s: %v", r.URL.Path, err)
	http.Error(w, http.StatusText(statusCode), statusCode)
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", fmt.Sprintf("%s, %s", http.MethodGet, http.MethodHead))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}
