package pagemanager

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/bokwoon95/googlemaps/config"
	"github.com/bokwoon95/googlemaps/logging"
	"github.com/davecgh/go-spew/spew"
	"github.com/matryer/is"
)

const indexPage = `---
title: Visit us
googlemaps:
  home:
    zoom: 5
    center: "50.85, 4.35"
---
<h1>Where</h1>
<p>[GOOGLEMAPS:home]</p>
<script>alert(1)</script>
`

const quietPage = `+++
title = "No maps"
[googlemaps]
enabled = false
+++
<p>[GOOGLEMAPS:home]</p>
`

func site(plugin map[string]any) *config.Config {
	return config.New(map[string]any{
		"server":  map[string]any{"sanitize": true},
		"plugins": map[string]any{"googlemaps": plugin},
	})
}

func newTestPM(t *testing.T, site *config.Config) *PageManager {
	t.Helper()
	root := fstest.MapFS{
		"index.html":       {Data: []byte(indexPage)},
		"quiet.html":       {Data: []byte(quietPage)},
		"about/team.html":  {Data: []byte("<p>No front matter.</p>")},
		"broken.html":      {Data: []byte("---\ntitle: never closed\n")},
		"styles/notes.txt": {Data: []byte("ignored")},
	}
	pm, err := New(site, WithRoot(root), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pm.Close() })
	return pm
}

func get(pm *PageManager, url string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	pm.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	return rr
}

func TestServePage(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{"enabled": true, "api_key": "abc"}))
	rr := get(pm, "/")
	is.Equal(rr.Code, http.StatusOK)
	body := rr.Body.String()
	is.True(strings.Contains(body, "<title>Visit us</title>"))
	is.True(strings.Contains(body, `<div id="home" class="googlemaps"></div>`))
	is.True(!strings.Contains(body, "[GOOGLEMAPS"))
	is.True(!strings.Contains(body, "alert(1)"))
	is.True(strings.Contains(body, `<script src="https://maps.googleapis.com/maps/api/js?v=3.exp&amp;key=abc"></script>`))
	is.True(strings.Contains(body, `googlemaps.initGoogleMaps("home", {"center":"50.85, 4.35","zoom":5,`))
	csp := rr.Header().Get("Content-Security-Policy")
	is.True(strings.Contains(csp, "maps.googleapis.com"))
	is.True(strings.Contains(csp, "'sha256-"))
}

func TestGlueAssets(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{"enabled": true, "built_in_css": true}))
	body := get(pm, "/").Body.String()
	is.True(strings.Contains(body, `<script src="/googlemaps/assets/js/googlemaps.min.js"></script>`))
	is.True(strings.Contains(body, `href="/googlemaps/assets/css/googlemaps.css"`))

	for _, url := range []string{
		"/googlemaps/assets/js/googlemaps.min.js",
		"/googlemaps/assets/js/googlemaps.js",
	} {
		rr := get(pm, url)
		is.Equal(rr.Code, http.StatusOK)
		is.True(strings.Contains(rr.Header().Get("Content-Type"), "javascript"))
		is.True(strings.Contains(rr.Body.String(), "window.googlemaps=googlemaps") ||
			strings.Contains(rr.Body.String(), "window.googlemaps = googlemaps"))
		is.True(strings.Contains(rr.Body.String(), "initGoogleMaps"))
	}
	rr := get(pm, "/googlemaps/assets/css/googlemaps.css")
	is.Equal(rr.Code, http.StatusOK)
	is.True(strings.Contains(rr.Header().Get("Content-Type"), "text/css"))
	is.Equal(get(pm, "/googlemaps/assets/js/missing.js").Code, http.StatusNotFound)
}

func TestGlueAssetsAtConfiguredURL(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{"enabled": true, "assets_url": "/static/maps/"}))
	is.Equal(get(pm, "/static/maps/js/googlemaps.min.js").Code, http.StatusOK)
	is.Equal(get(pm, "/googlemaps/assets/js/googlemaps.min.js").Code, http.StatusNotFound)
	is.True(strings.Contains(get(pm, "/").Body.String(), `<script src="/static/maps/js/googlemaps.min.js"></script>`))

	// glue hosted elsewhere is not served locally
	pm = newTestPM(t, site(map[string]any{"enabled": true, "assets_url": "https://cdn.example.com/maps"}))
	is.Equal(get(pm, "/googlemaps/assets/js/googlemaps.min.js").Code, http.StatusNotFound)

	pm = newTestPM(t, site(map[string]any{"enabled": false}))
	is.Equal(get(pm, "/googlemaps/assets/js/googlemaps.min.js").Code, http.StatusNotFound)
}

func TestServePageFromCache(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{"enabled": true}))
	first, err := pm.Page("/index")
	is.NoErr(err)
	is.True(!first.Cached)
	second, err := pm.Page("/")
	is.NoErr(err)
	is.True(second.Cached)
	is.Equal(second.Body, first.Body)
	is.Equal(second.Title, "Visit us")
	if first.Assets.ScriptHashes() != second.Assets.ScriptHashes() {
		t.Fatalf("assets differ:\n%s\n%s", spew.Sdump(first.Assets.Scripts("bottom")), spew.Sdump(second.Assets.Scripts("bottom")))
	}
	is.Equal(string(second.Assets.JS("bottom")), string(first.Assets.JS("bottom")))

	// the ledger is rebuilt from the markup when the stored one is gone
	is.NoErr(pm.ledgers.(interface{ Invalidate() error }).Invalidate())
	third, err := pm.Page("/")
	is.NoErr(err)
	is.True(third.Cached)
	is.Equal(string(third.Assets.JS("bottom")), string(first.Assets.JS("bottom")))
}

func TestInvalidate(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{"enabled": true}))
	_, err := pm.Page("/")
	is.NoErr(err)

	rr := httptest.NewRecorder()
	pm.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/pm-invalidate", nil))
	is.Equal(rr.Code, http.StatusSeeOther)

	page, err := pm.Page("/")
	is.NoErr(err)
	is.True(!page.Cached)
}

func TestPageDisablesMaps(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{"enabled": true}))
	for i := 0; i < 2; i++ { // fresh, then cached
		page, err := pm.Page("/quiet")
		is.NoErr(err)
		is.Equal(page.Title, "No maps")
		is.True(!strings.Contains(page.Body, "GOOGLEMAPS"))
		is.Equal(page.Assets.ScriptHashes(), "")
		is.Equal(string(page.Assets.JS("bottom")), "")
	}
}

func TestPluginDisabledForSite(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{"enabled": false}))
	page, err := pm.Page("/")
	is.NoErr(err)
	is.True(strings.Contains(page.Body, "[GOOGLEMAPS:home]"))
	is.Equal(string(page.Assets.JS("bottom")), "")
}

func TestNotFound(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{}))
	is.Equal(get(pm, "/missing").Code, http.StatusNotFound)
	is.Equal(get(pm, "/styles/notes.txt").Code, http.StatusNotFound)
	is.Equal(get(pm, "/../index").Code, http.StatusOK)
}

func TestPageWithoutFrontMatter(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{}))
	rr := get(pm, "/about/team")
	is.Equal(rr.Code, http.StatusOK)
	is.True(strings.Contains(rr.Body.String(), "<title>team</title>"))
}

func TestBrokenFrontMatter(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{}))
	is.Equal(get(pm, "/broken").Code, http.StatusInternalServerError)
}

func TestRoutesListing(t *testing.T) {
	is := is.New(t)
	pm := newTestPM(t, site(map[string]any{}))
	body := get(pm, "/pm-routes").Body.String()
	is.True(strings.Contains(body, "/pm-routes [internal handler]"))
	is.True(strings.Contains(body, "/ [page]"))
	is.True(strings.Contains(body, "/about/team [page]"))
}

func TestPageFile(t *testing.T) {
	tests := []struct {
		in, want string
		err      bool
	}{
		{"/", "index.html", false},
		{"", "index.html", false},
		{"/about/team", "about/team.html", false},
		{"/about/team.html", "about/team.html", false},
		{"/a/../b", "b.html", false},
		{"/style.css", "", true},
	}
	for _, tt := range tests {
		is := is.New(t)
		got, err := pageFile(tt.in)
		is.Equal(err != nil, tt.err)
		is.Equal(got, tt.want)
	}
}
