// Package pagemanager serves the page files of a site directory, running
// their bodies through the googlemaps plugin.
package pagemanager

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/bokwoon95/googlemaps/cache"
	"github.com/bokwoon95/googlemaps/config"
	"github.com/bokwoon95/googlemaps/erro"
	"github.com/bokwoon95/googlemaps/googlemaps"
	"github.com/bokwoon95/googlemaps/ledger"
	"github.com/bokwoon95/googlemaps/renderly"
	"github.com/dgraph-io/ristretto"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/microcosm-cc/bluemonday"
)

const pageKey = "pageKey\x00"

// LayoutTemplate wraps every page. A theme directory may replace it.
const LayoutTemplate = "page.html"

//go:embed templates
var templates embed.FS

type PageManager struct {
	Router     *chi.Mux
	Render     *renderly.Renderly
	site       *config.Config
	root       fs.FS
	cache      *ristretto.Cache
	cacheCfg   cache.RistrettoConfig
	ledgers    ledger.Cache
	ownLedgers bool
	htmlPolicy *bluemonday.Policy
	plugin     *googlemaps.Plugin
	themes     []fs.FS
	logger     *slog.Logger
}

type Option func(*PageManager) error

// WithRoot serves pages from fsys instead of the server.root directory.
func WithRoot(fsys fs.FS) Option {
	return func(pm *PageManager) error {
		pm.root = fsys
		return nil
	}
}

// WithTheme overrides the layout and map templates with the ones in fsys.
func WithTheme(fsys fs.FS) Option {
	return func(pm *PageManager) error {
		pm.themes = append(pm.themes, fsys)
		return nil
	}
}

// WithLedgerCache stores the plugin's asset ledgers in c. By default they
// live in an in-memory ristretto cache next to the rendered pages.
func WithLedgerCache(c ledger.Cache) Option {
	return func(pm *PageManager) error {
		pm.ledgers = c
		return nil
	}
}

func WithContentCache(cfg cache.RistrettoConfig) Option {
	return func(pm *PageManager) error {
		pm.cacheCfg = cfg
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(pm *PageManager) error {
		if logger == nil {
			return errors.New("pagemanager: nil logger")
		}
		pm.logger = logger
		return nil
	}
}

func New(site *config.Config, opts ...Option) (*PageManager, error) {
	var err error
	pm := &PageManager{
		site:     site,
		cacheCfg: cache.RistrettoDefaults(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		err = opt(pm)
		if err != nil {
			return nil, err
		}
	}
	// Root
	if pm.root == nil {
		dir := site.String("server.root")
		if dir == "" {
			return nil, errors.New("pagemanager: no root directory configured")
		}
		pm.root = os.DirFS(dir)
	}
	// Cache
	pm.cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: pm.cacheCfg.NumCounters,
		MaxCost:     pm.cacheCfg.MaxCost,
		BufferItems: pm.cacheCfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	if pm.ledgers == nil {
		pm.ledgers, err = cache.NewRistretto(pm.cacheCfg)
		if err != nil {
			return nil, err
		}
		pm.ownLedgers = true
	}
	// HTMLPolicy
	if site.Bool("server.sanitize") {
		pm.htmlPolicy = bluemonday.UGCPolicy()
		pm.htmlPolicy.AllowStyling()
	}
	// renderly
	layouts, err := fs.Sub(templates, "templates")
	if err != nil {
		return nil, err
	}
	renderOpts := []renderly.Option{renderly.Override(layouts)}
	for _, theme := range pm.themes {
		renderOpts = append(renderOpts, renderly.Override(theme))
	}
	pm.Render, err = renderly.New(googlemaps.Templates(), renderOpts...)
	if err != nil {
		return nil, err
	}
	// Plugin
	if site.PluginEnabled() {
		pm.plugin, err = googlemaps.New(pm.Render,
			googlemaps.WithCache(pm.ledgers),
			googlemaps.WithLogger(pm.logger),
		)
		if err != nil {
			return nil, err
		}
	} else {
		pm.logger.Info("googlemaps plugin disabled")
	}
	// Router
	pm.Router = chi.NewRouter()
	pm.Router.Use(middleware.Recoverer)
	pm.Router.Use(pm.logRequests)
	pm.Router.Use(SecurityHeaders)
	pm.Router.Get("/pm-routes", func(w http.ResponseWriter, r *http.Request) {
		chi.Walk(pm.Router, printroutes(w))
		printpages(w, pm.root)
	})
	pm.Router.Post("/pm-invalidate", func(w http.ResponseWriter, r *http.Request) {
		err := pm.Invalidate()
		if err != nil {
			pm.logger.Error("invalidate caches", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	if pm.plugin != nil {
		pm.mountAssets()
	}
	pm.Router.Get("/*", pm.ServePage)
	return pm, nil
}

// mountAssets serves the embedded glue script and stylesheet at the plugin's
// assets_url. An assets_url on another host is left alone.
func (pm *PageManager) mountAssets() {
	base := googlemaps.AssetsURL(pm.site.Sub(config.PluginKey))
	if base == "" || !strings.HasPrefix(base, "/") || strings.HasPrefix(base, "//") {
		return
	}
	if strings.ContainsAny(base, "{}*") {
		pm.logger.Warn("googlemaps assets not served, assets_url is not a plain path", "assets_url", base)
		return
	}
	FileServer(pm.Router, base, http.FS(googlemaps.Assets()))
}

func (pm *PageManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pm.Router.ServeHTTP(w, r)
}

// Page is a page ready to be written out.
type Page struct {
	Name   string
	Title  string
	Header map[string]any
	Body   string
	Assets *renderly.Assets
	// Cached reports whether Body came out of the content cache.
	Cached bool
}

type cachedPage struct {
	Header map[string]any
	Body   string
}

// Page builds the page served at urlPath. Missing pages give an error
// matching fs.ErrNotExist.
func (pm *PageManager) Page(urlPath string) (*Page, error) {
	name, err := pageFile(urlPath)
	if err != nil {
		return nil, err
	}
	var cached cachedPage
	hit := false
	if value, ok := pm.cache.Get(pageKey + name); ok {
		if cp, ok := value.(cachedPage); ok {
			cached, hit = cp, true
		} else {
			pm.cache.Del(pageKey + name)
		}
	}
	if !hit {
		src, err := fs.ReadFile(pm.root, name)
		if err != nil {
			return nil, err
		}
		header, body, err := config.SplitFrontMatter(src)
		if err != nil {
			return nil, erro.Wrapf(err, "front matter of %s", name)
		}
		cached = cachedPage{Header: header, Body: string(body)}
		if pm.htmlPolicy != nil {
			cached.Body = pm.htmlPolicy.Sanitize(cached.Body)
		}
	}
	page := &Page{
		Name:   name,
		Title:  title(cached.Header, name),
		Header: cached.Header,
		Body:   cached.Body,
		Assets: &renderly.Assets{},
		Cached: hit,
	}
	if pm.plugin != nil {
		cfg, err := pm.site.ForPage(cached.Header)
		if err != nil {
			return nil, erro.Wrapf(err, "config of %s", name)
		}
		pass := pm.plugin.NewPass(name, cfg)
		if hit {
			err = pass.Restore(page.Body)
		} else {
			page.Body, err = pass.Process(page.Body)
			if err == nil {
				err = pass.Persist()
			}
		}
		if err != nil {
			return nil, err
		}
		err = pass.Materialize(page.Assets)
		if err != nil {
			return nil, err
		}
	}
	if !hit {
		cached.Body = page.Body
		pm.cache.Set(pageKey+name, cached, int64(len(cached.Body)+len(name)))
		pm.cache.Wait()
	}
	return page, nil
}

func (pm *PageManager) ServePage(w http.ResponseWriter, r *http.Request) {
	page, err := pm.Page(r.URL.Path)
	if erro.Is(err, fs.ErrNotExist, fs.ErrInvalid) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		pm.logger.Error("build page", "path", r.URL.Path, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	err = renderly.AppendCSP(w, "script-src-elem", page.Assets.ScriptHashes())
	if err != nil {
		pm.logger.Warn("content security policy", "path", r.URL.Path, "err", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = pm.Render.Execute(w, LayoutTemplate, map[string]any{
		"Title":    page.Title,
		"Body":     template.HTML(page.Body),
		"CSS":      page.Assets.CSS(),
		"JSTop":    page.Assets.JS(ledger.Top),
		"JSBottom": page.Assets.JS(ledger.Bottom),
	})
	if err != nil {
		pm.logger.Error("render page", "path", r.URL.Path, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Invalidate drops every rendered page. Stored ledgers move to a new cache
// generation with them.
func (pm *PageManager) Invalidate() error {
	pm.cache.Clear()
	if inv, ok := pm.ledgers.(interface{ Invalidate() error }); ok {
		return inv.Invalidate()
	}
	return nil
}

func (pm *PageManager) Close() error {
	pm.cache.Close()
	if closer, ok := pm.ledgers.(io.Closer); ok && pm.ownLedgers {
		return closer.Close()
	}
	return nil
}

// pageFile maps a request path to a file under the root: "/" is index.html
// and an extensionless path gets .html.
func pageFile(urlPath string) (string, error) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		return "index.html", nil
	}
	switch path.Ext(name) {
	case "":
		return name + ".html", nil
	case ".html":
		return name, nil
	}
	return "", fmt.Errorf("%s: %w", urlPath, fs.ErrNotExist)
}

func title(header map[string]any, name string) string {
	if s, ok := header["title"].(string); ok && s != "" {
		return s
	}
	return strings.TrimSuffix(path.Base(name), ".html")
}

func (pm *PageManager) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		pm.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		securityPolicies := []string{
			`script-src-elem
				'self'
				maps.googleapis.com
				maps.gstatic.com
			`,
			`style-src-elem
				'self'
				'unsafe-inline'
				fonts.googleapis.com
			`,
			`img-src
				'self'
				data:
				maps.googleapis.com
				maps.gstatic.com
				*.googleapis.com
				*.ggpht.com
			`,
			`font-src fonts.gstatic.com`,
			"default-src 'self'",
			"object-src 'self'",
			"media-src 'self'",
			"frame-ancestors 'self'",
			"connect-src 'self' maps.googleapis.com",
		}
		ContentSecurityPolicy := regexp.MustCompile(`\s+`).ReplaceAllString(strings.Join(securityPolicies, "; "), " ")
		w.Header().Set("Content-Security-Policy", ContentSecurityPolicy)
		features := []string{
			`microphone 'none'`,
			`camera 'none'`,
			`magnetometer 'none'`,
			`gyroscope 'none'`,
		}
		FeaturePolicy := regexp.MustCompile(`\s+`).ReplaceAllString(strings.Join(features, "; "), " ")
		w.Header().Set("Feature-Policy", FeaturePolicy)
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "sameorigin")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		next.ServeHTTP(w, r)
	})
}
