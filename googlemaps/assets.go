package googlemaps

import (
	"net/url"
	"strings"

	"github.com/bokwoon95/googlemaps/ledger"
)

// LibraryURL is the Google Maps JavaScript API.
const LibraryURL = "https://maps.googleapis.com/maps/api/js?v=3.exp"

// Lower priorities load first. The API must be loaded before the glue script,
// and the glue script before any map is initialized.
const (
	LibraryPriority = 10
	GluePriority    = 20
	InitPriority    = 30
)

// DefaultAssetsURL is where the glue script and stylesheet are served from
// unless assets_url says otherwise.
const DefaultAssetsURL = "/googlemaps/assets"

// AssetsURL is the base URL of the glue script and stylesheet, without a
// trailing slash.
func AssetsURL(cfg Config) string {
	if s, ok := optionalString(cfg.Lookup("assets_url")); ok {
		return strings.TrimSuffix(s, "/")
	}
	return DefaultAssetsURL
}

// AddAssets records the assets every page with at least one map needs. cfg
// is the plugin level configuration: lang, api_key, debug, built_in_css and
// assets_url.
func AddAssets(l *ledger.Ledger, cfg Config) {
	base := AssetsURL(cfg)
	if enabled(cfg, "built_in_css") {
		l.AddCSS(base + "/css/googlemaps.css")
	}
	library := LibraryURL
	if lang, ok := optionalString(cfg.Lookup("lang")); ok {
		library += "&language=" + url.QueryEscape(lang)
	}
	if key, ok := optionalString(cfg.Lookup("api_key")); ok {
		library += "&key=" + url.QueryEscape(key)
	}
	l.AddJS(library, LibraryPriority, ledger.Bottom)
	glue := base + "/js/googlemaps.min.js"
	if enabled(cfg, "debug") {
		glue = base + "/js/googlemaps.js"
	}
	l.AddJS(glue, GluePriority, ledger.Bottom)
}

// enabled reads a flag that defaults to off; anything that does not parse as
// a boolean counts as off.
func enabled(cfg Config, path string) bool {
	v, ok := cfg.Lookup(path)
	if !ok {
		return false
	}
	b, err := toBool(v)
	return err == nil && b
}
