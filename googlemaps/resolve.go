package googlemaps

import (
	"fmt"
	"strings"
)

// Config is the merged plugin configuration for one page: site settings with
// the page's front matter on top. Paths are dotted, e.g. "home.zoom".
type Config interface {
	Lookup(path string) (value any, ok bool)
}

const (
	DefaultCenter = "51.010009, 4.061270"
	DefaultZoom   = 12
)

// MapConfig holds the google.maps.MapOptions of one map. Options only carries
// the optional fields that were configured.
type MapConfig struct {
	Center  string
	Zoom    int
	MapType MapType
	Options Options
}

type DisplayOptions struct {
	// KmlURL is empty when no overlay is configured.
	KmlURL    string
	KmlStatus bool
	Markers   []Options
}

// TagConfig is everything configured for one [GOOGLEMAPS:<tag>].
type TagConfig struct {
	Tag          string
	Map          MapConfig
	Display      DisplayOptions
	ControlStyle string
}

func value(cfg Config, path string, def any) any {
	if v, ok := cfg.Lookup(path); ok {
		return v
	}
	return def
}

// Resolve reads the settings of tag from cfg, filling in defaults. Values are
// type checked once here; coordinates are passed through as written.
func Resolve(cfg Config, tag string) (*TagConfig, error) {
	tag = strings.ToLower(tag)
	prefix := tag + "."
	tc := &TagConfig{Tag: tag}

	switch v := value(cfg, prefix+"center", DefaultCenter).(type) {
	case string:
		tc.Map.Center = v
	case []any:
		parts := make([]string, len(v))
		for i := range v {
			parts[i] = fmt.Sprint(v[i])
		}
		tc.Map.Center = strings.Join(parts, ", ")
	default:
		tc.Map.Center = fmt.Sprint(v)
	}

	zoom := value(cfg, prefix+"zoom", DefaultZoom)
	n, err := toInt(zoom)
	if err != nil {
		return nil, &ConfigError{Tag: tag, Field: "zoom", Value: zoom, Err: err}
	}
	tc.Map.Zoom = n

	mapTypeID := value(cfg, prefix+"mapTypeId", Roadmap.String())
	s, ok := mapTypeID.(string)
	if !ok {
		return nil, &ConfigError{Tag: tag, Field: "mapTypeId", Value: mapTypeID, Err: ErrMapType}
	}
	tc.Map.MapType, err = ParseMapType(s)
	if err != nil {
		return nil, &ConfigError{Tag: tag, Field: "mapTypeId", Value: mapTypeID, Err: err}
	}

	for _, field := range MapOptionFields {
		if v, ok := cfg.Lookup(prefix + field); ok {
			tc.Map.Options.Set(field, v)
		}
	}

	if kmlURL, ok := optionalString(cfg.Lookup(prefix + "kmlUrl")); ok {
		tc.Display.KmlURL = kmlURL
	}
	kmlStatus := value(cfg, prefix+"kmlStatus", false)
	tc.Display.KmlStatus, err = toBool(kmlStatus)
	if err != nil {
		return nil, &ConfigError{Tag: tag, Field: "kmlStatus", Value: kmlStatus, Err: err}
	}
	tc.Display.Markers = markers(value(cfg, prefix+"markers", nil))

	controlStyle := value(cfg, prefix+"controlStyle", value(cfg, "control_style", ""))
	if controlStyle != nil {
		tc.ControlStyle = fmt.Sprint(controlStyle)
	}
	return tc, nil
}

// markers keeps the recognized fields of each configured marker. Entries
// that are not key/value tables are skipped.
func markers(v any) []Options {
	var entries []map[string]any
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
	case []map[string]any:
		entries = v
	}
	result := make([]Options, 0, len(entries))
	for _, entry := range entries {
		var marker Options
		for _, field := range MarkerFields {
			if fv, ok := entry[field]; ok {
				marker.Set(field, fv)
			}
		}
		result = append(result, marker)
	}
	return result
}
