package googlemaps

import (
	"regexp"
	"strings"
)

// Match is one placeholder occurrence; content[Start:End] is what gets
// replaced.
type Match struct {
	Tag   string
	Start int
	End   int
}

// A placeholder alone in its own paragraph takes the paragraph with it, so
// that the map container does not end up nested in a <p>. Anywhere else only
// the token itself is replaced.
var placeholderRegexp = regexp.MustCompile(`(?i)<p>\s*\[GOOGLEMAPS:([^:\]]+)\]\s*</p>|\[GOOGLEMAPS:([^:\]]+)\]`)

// Scan returns every placeholder in content, left to right, with tags
// lowercased.
func Scan(content string) []Match {
	locs := placeholderRegexp.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		// loc[2:4] is the wrapped tag, loc[4:6] the bare one
		start, end := loc[2], loc[3]
		if start < 0 {
			start, end = loc[4], loc[5]
		}
		matches = append(matches, Match{
			Tag:   strings.ToLower(content[start:end]),
			Start: loc[0],
			End:   loc[1],
		})
	}
	return matches
}
