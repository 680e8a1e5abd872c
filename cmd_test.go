package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bokwoon95/googlemaps/config"
	"github.com/bokwoon95/googlemaps/logging"
	"github.com/matryer/is"
)

func TestRender(t *testing.T) {
	is := is.New(t)
	site := config.New(map[string]any{
		"plugins": map[string]any{
			"googlemaps": map[string]any{"built_in_css": true, "lang": "fr"},
		},
	})
	src := []byte("---\ngooglemaps:\n  paris:\n    zoom: 11\n---\n<p>[GOOGLEMAPS:Paris]</p>\n")
	buf := &bytes.Buffer{}
	is.NoErr(render(buf, site, logging.Discard(), "paris.html", src))
	out := buf.String()
	is.True(strings.Contains(out, `<div id="paris" class="googlemaps"></div>`))
	is.True(strings.Contains(out, `<link rel="stylesheet" href="/googlemaps/assets/css/googlemaps.css">`))
	is.True(strings.Contains(out, "language=fr"))
	is.True(strings.Contains(out, `"zoom":11`))
}

func TestRenderPluginDisabled(t *testing.T) {
	is := is.New(t)
	site := config.New(map[string]any{
		"plugins": map[string]any{"googlemaps": map[string]any{"enabled": false}},
	})
	buf := &bytes.Buffer{}
	is.NoErr(render(buf, site, logging.Discard(), "a.html", []byte("[GOOGLEMAPS:a]")))
	is.Equal(buf.String(), "[GOOGLEMAPS:a]\n")
}

func TestConfigCommand(t *testing.T) {
	is := is.New(t)
	t.Setenv("GOOGLEMAPS__SERVER__ADDR", ":9999")
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"config", "--log-level", "debug"})
	is.NoErr(cmd.Execute())
	out := buf.String()
	is.True(strings.Contains(out, ":9999"))
	is.True(strings.Contains(out, "level: debug"))
}

func TestUnknownCacheBackend(t *testing.T) {
	is := is.New(t)
	settings := config.Defaults()
	settings.Cache.Backend = "memcached"
	_, err := openLedgerCache(settings)
	is.True(err != nil)
}
