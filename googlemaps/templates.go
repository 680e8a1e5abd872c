package googlemaps

import (
	"embed"
	"io/fs"
)

//go:embed templates
var templates embed.FS

//go:embed assets
var assets embed.FS

// Templates holds the default map object and map initialization templates.
func Templates() fs.FS {
	fsys, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Assets holds the glue script and stylesheet that AddAssets links to, laid
// out as js/googlemaps.js, js/googlemaps.min.js and css/googlemaps.css.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return fsys
}
