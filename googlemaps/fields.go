package googlemaps

// MarkerFields are the marker settings passed on to the browser, in the order
// they are emitted. Anything else in a marker's configuration is dropped.
var MarkerFields = []string{
	"location",
	"title",
	"zIndex",
	"timeout",
	"info",
	"icon",
	"link",
}

// MapOptionFields are google.maps.MapOptions that may be set per map. They
// are copied verbatim and only when configured.
var MapOptionFields = []string{
	"backgroundColor",
	"disableDefaultUI",
	"disableDoubleClickZoom",
	"draggable",
	"draggableCursor",
	"draggingCursor",
	"fullscreenControl",
	"fullscreenControlOptions",
	"gestureHandling",
	"heading",
	"keyboardShortcuts",
	"mapTypeControl",
	"mapTypeControlOptions",
	"maxZoom",
	"minZoom",
	"noClear",
	"panControl",
	"panControlOptions",
	"rotateControl",
	"rotateControlOptions",
	"scaleControl",
	"scaleControlOptions",
	"scrollwheel",
	"streetViewControl",
	"streetViewControlOptions",
	"styles",
	"tilt",
	"zoomControl",
	"zoomControlOptions",
}
