package googlemaps

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMapType = errors.New("unknown map type")
	ErrInteger = errors.New("not an integer")
	ErrBool    = errors.New("not a boolean")
)

// ConfigError reports a setting that could not be turned into the type the
// payload needs.
type ConfigError struct {
	Tag   string
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	path := e.Field
	if e.Tag != "" {
		path = e.Tag + "." + e.Field
	}
	return fmt.Sprintf("googlemaps: %s = %#v: %v", path, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MapType is google.maps.MapTypeId.
type MapType int

const (
	Roadmap MapType = iota
	Hybrid
	Satellite
	Terrain
)

var mapTypeNames = [...]string{
	Roadmap:   "ROADMAP",
	Hybrid:    "HYBRID",
	Satellite: "SATELLITE",
	Terrain:   "TERRAIN",
}

const mapTypePrefix = "google.maps.MapTypeId."

// ParseMapType accepts the constant name in any case, with or without the
// google.maps.MapTypeId prefix.
func ParseMapType(s string) (MapType, error) {
	name := strings.TrimSpace(s)
	if len(name) > len(mapTypePrefix) && strings.EqualFold(name[:len(mapTypePrefix)], mapTypePrefix) {
		name = name[len(mapTypePrefix):]
	}
	for t, n := range mapTypeNames {
		if strings.EqualFold(n, name) {
			return MapType(t), nil
		}
	}
	return Roadmap, ErrMapType
}

func (t MapType) String() string {
	if t < 0 || int(t) >= len(mapTypeNames) {
		return "MapType(" + strconv.Itoa(int(t)) + ")"
	}
	return mapTypeNames[t]
}

// Qualified is the form the browser glue expects, e.g.
// "google.maps.MapTypeId.ROADMAP".
func (t MapType) Qualified() string {
	return mapTypePrefix + t.String()
}

func toInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, ErrInteger
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, ErrInteger
		}
		return n, nil
	}
	return 0, ErrInteger
}

func toBool(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, ErrBool
		}
		return b, nil
	case int, int64, float64:
		n, err := toInt(v)
		if err != nil {
			return false, ErrBool
		}
		return n != 0, nil
	}
	return false, ErrBool
}

// optionalString reports a setting that is present and not switched off.
// YAML configs commonly use false for "not set".
func optionalString(v any, ok bool) (string, bool) {
	if !ok || v == nil {
		return "", false
	}
	switch v := v.(type) {
	case bool:
		return "", false
	case string:
		if v == "" || strings.EqualFold(v, "false") {
			return "", false
		}
		return v, true
	}
	return fmt.Sprint(v), true
}
