package googlemaps

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bokwoon95/googlemaps/config"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
)

// flat is a Config whose keys are full dotted paths.
type flat map[string]any

func (f flat) Lookup(path string) (any, bool) {
	v, ok := f[path]
	return v, ok
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestResolveDefaults(t *testing.T) {
	is := is.New(t)
	tc, err := Resolve(flat{}, "Home")
	is.NoErr(err)
	is.Equal(tc.Tag, "home")
	is.Equal(tc.Map.Center, DefaultCenter)
	is.Equal(tc.Map.Zoom, DefaultZoom)
	is.Equal(tc.Map.MapType, Roadmap)
	is.Equal(tc.Map.Options.Len(), 0)
	is.Equal(tc.Display.KmlURL, "")
	is.Equal(tc.Display.KmlStatus, false)
	is.Equal(len(tc.Display.Markers), 0)

	p := Build(tc)
	is.Equal(marshal(t, p.MapOptions), `{"center":"51.010009, 4.061270","zoom":12,"mapTypeId":"google.maps.MapTypeId.ROADMAP"}`)
	is.Equal(marshal(t, p.DisplayOptions), `{"kmlStatus":false,"markers":[]}`)
}

func TestResolveConfiguredTag(t *testing.T) {
	is := is.New(t)
	cfg := flat{
		"home.zoom":      5,
		"home.center":    "50.85, 4.35",
		"home.mapTypeId": "google.maps.MapTypeId.satellite",
		"home.kmlUrl":    "https://example.com/route.kml",
		"home.kmlStatus": "true",
		"home.markers": []any{
			map[string]any{"location": "50.85, 4.35", "title": "Office", "bogusField": 1},
			"not a marker",
		},
		"home.controlStyle": "azteca",
		"office.zoom":       9,
	}
	tc, err := Resolve(cfg, "home")
	is.NoErr(err)
	p := Build(tc)
	is.Equal(p.TagID, "home")
	is.Equal(p.ControlStyle, "azteca")
	is.True(p.KML)
	is.True(p.KmlStatus)
	is.Equal(marshal(t, p.MapOptions), `{"center":"50.85, 4.35","zoom":5,"mapTypeId":"google.maps.MapTypeId.SATELLITE"}`)
	is.Equal(marshal(t, p.DisplayOptions), `{"kmlUrl":"https://example.com/route.kml","kmlStatus":true,"markers":[{"location":"50.85, 4.35","title":"Office"}]}`)
}

func TestResolveOptionalFieldsPresentEvenWhenFalsy(t *testing.T) {
	is := is.New(t)
	cfg := flat{
		"home.scrollwheel":     false,
		"home.maxZoom":         0,
		"home.backgroundColor": "",
		"home.notAnOption":     true,
	}
	tc, err := Resolve(cfg, "home")
	is.NoErr(err)
	is.Equal(tc.Map.Options.Keys(), []string{"backgroundColor", "maxZoom", "scrollwheel"})
	v, ok := tc.Map.Options.Get("scrollwheel")
	is.True(ok)
	is.Equal(v, false)
	is.True(!tc.Map.Options.Has("notAnOption"))
	is.True(!tc.Map.Options.Has("draggable"))
}

func TestResolveKmlURLSwitchedOff(t *testing.T) {
	is := is.New(t)
	for _, v := range []any{false, "", "false"} {
		tc, err := Resolve(flat{"home.kmlUrl": v}, "home")
		is.NoErr(err)
		p := Build(tc)
		is.True(!p.KML)
		is.True(!p.DisplayOptions.Has("kmlUrl"))
	}
}

func TestResolveControlStyleFallsBackToPluginSetting(t *testing.T) {
	is := is.New(t)
	tc, err := Resolve(flat{"control_style": "azteca"}, "home")
	is.NoErr(err)
	is.Equal(tc.ControlStyle, "azteca")
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   flat
		field string
		err   error
	}{
		{"unknown map type", flat{"home.mapTypeId": "moon"}, "mapTypeId", ErrMapType},
		{"map type not a string", flat{"home.mapTypeId": 3}, "mapTypeId", ErrMapType},
		{"zoom not a number", flat{"home.zoom": "close"}, "zoom", ErrInteger},
		{"zoom fractional", flat{"home.zoom": 4.5}, "zoom", ErrInteger},
		{"kmlStatus not a bool", flat{"home.kmlStatus": "maybe"}, "kmlStatus", ErrBool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			_, err := Resolve(tt.cfg, "home")
			var cerr *ConfigError
			is.True(errors.As(err, &cerr))
			is.Equal(cerr.Tag, "home")
			is.Equal(cerr.Field, tt.field)
			is.True(errors.Is(err, tt.err))
		})
	}
}

func TestResolveCoercesStrings(t *testing.T) {
	is := is.New(t)
	tc, err := Resolve(flat{"home.zoom": " 7 ", "home.center": []any{50.85, 4.35}}, "home")
	is.NoErr(err)
	is.Equal(tc.Map.Zoom, 7)
	is.Equal(tc.Map.Center, "50.85, 4.35")
}

func TestParseMapType(t *testing.T) {
	tests := []struct {
		in   string
		want MapType
	}{
		{"ROADMAP", Roadmap},
		{"hybrid", Hybrid},
		{"google.maps.MapTypeId.TERRAIN", Terrain},
		{"Google.Maps.MapTypeId.satellite", Satellite},
	}
	for _, tt := range tests {
		is := is.New(t)
		got, err := ParseMapType(tt.in)
		is.NoErr(err)
		is.Equal(got, tt.want)
	}
	_, err := ParseMapType("google.maps.MapTypeId.")
	if !errors.Is(err, ErrMapType) {
		t.Fatalf("expected ErrMapType, got %v", err)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	is := is.New(t)
	cfg := flat{
		"home.zoom":            5,
		"home.zoomControl":     true,
		"home.styles":          []any{map[string]any{"featureType": "water"}},
		"home.gestureHandling": "cooperative",
		"home.markers": []any{
			map[string]any{"link": "/a", "location": "1, 2", "title": "A", "info": "first"},
		},
	}
	tc1, err := Resolve(cfg, "home")
	is.NoErr(err)
	tc2, err := Resolve(cfg, "home")
	is.NoErr(err)
	a, b := marshal(t, Build(tc1).MapOptions), marshal(t, Build(tc2).MapOptions)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatal(diff)
	}
	a, b = marshal(t, Build(tc1).DisplayOptions), marshal(t, Build(tc2).DisplayOptions)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatal(diff)
	}
	// marker fields come out in their canonical order
	is.Equal(a, `{"kmlStatus":false,"markers":[{"location":"1, 2","title":"A","info":"first","link":"/a"}]}`)
}

func TestResolveThroughKoanfConfig(t *testing.T) {
	is := is.New(t)
	site := config.New(map[string]any{
		"plugins": map[string]any{
			"googlemaps": map[string]any{
				"control_style": "azteca",
				"home": map[string]any{
					"zoom":               9,
					"zoomControlOptions": map[string]any{"position": 3},
				},
			},
		},
	})
	page, err := site.ForPage(map[string]any{
		"googlemaps": map[string]any{
			"home": map[string]any{"zoom": 5},
		},
	})
	is.NoErr(err)
	tc, err := Resolve(page, "home")
	is.NoErr(err)
	is.Equal(tc.Map.Zoom, 5)
	is.Equal(tc.ControlStyle, "azteca")
	is.True(tc.Map.Options.Has("zoomControlOptions"))
}

func TestMarkerUnknownFieldsDropped(t *testing.T) {
	is := is.New(t)
	cfg := flat{"home.markers": []map[string]any{
		{"location": "10,20", "icon": "http://x/y.png", "bogusField": "z"},
	}}
	tc, err := Resolve(cfg, "home")
	is.NoErr(err)
	is.Equal(len(tc.Display.Markers), 1)
	is.Equal(tc.Display.Markers[0].Keys(), []string{"location", "icon"})
}
