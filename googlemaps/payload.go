package googlemaps

// Payload is what the map object and map initialization templates are
// executed with.
type Payload struct {
	TagID          string
	MapOptions     Options
	DisplayOptions Options
	ControlStyle   string
	// KML and KmlStatus mirror DisplayOptions for the markup template.
	KML       bool
	KmlStatus bool
}

// Build turns a resolved tag into its template payload. It has no side
// effects and equal inputs give equal payloads.
func Build(tc *TagConfig) Payload {
	p := Payload{
		TagID:        tc.Tag,
		ControlStyle: tc.ControlStyle,
		KML:          tc.Display.KmlURL != "",
		KmlStatus:    tc.Display.KmlStatus,
	}
	p.MapOptions.Set("center", tc.Map.Center)
	p.MapOptions.Set("zoom", tc.Map.Zoom)
	p.MapOptions.Set("mapTypeId", tc.Map.MapType.Qualified())
	for _, key := range tc.Map.Options.Keys() {
		v, _ := tc.Map.Options.Get(key)
		p.MapOptions.Set(key, v)
	}
	// The glue script enables the overlay on the presence of kmlUrl.
	if tc.Display.KmlURL != "" {
		p.DisplayOptions.Set("kmlUrl", tc.Display.KmlURL)
	}
	p.DisplayOptions.Set("kmlStatus", tc.Display.KmlStatus)
	markers := make([]Options, len(tc.Display.Markers))
	copy(markers, tc.Display.Markers)
	p.DisplayOptions.Set("markers", markers)
	return p
}
