package googlemaps

import (
	"strings"

	"golang.org/x/net/html"
)

// ContainerClass marks the element the map object template renders the map
// into. It is how maps are found again in cached page content.
const ContainerClass = "googlemaps"

// ScanRendered returns the tags of the map containers in already rendered
// content, in document order. A container is an empty element with the map's
// tag as id and ContainerClass among its classes.
func ScanRendered(content string) []string {
	var tags []string
	var pending, pendingElem string
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return tags
		}
		if pending != "" {
			if tt == html.EndTagToken {
				name, _ := z.TagName()
				if string(name) == pendingElem {
					tags = append(tags, pending)
				}
			}
			pending, pendingElem = "", ""
		}
		if tt != html.StartTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if !hasAttr {
			continue
		}
		elem := string(name)
		var id string
		var isContainer bool
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			switch string(key) {
			case "id":
				id = string(val)
			case "class":
				for _, class := range strings.Fields(string(val)) {
					if class == ContainerClass {
						isContainer = true
					}
				}
			}
		}
		if isContainer && id != "" {
			pending, pendingElem = id, elem
		}
	}
}
