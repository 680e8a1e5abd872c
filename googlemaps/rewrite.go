package googlemaps

import (
	"fmt"
	"strings"
)

// Rewrite replaces matches[i] with fragments[i]. Everything between matches is
// copied verbatim. matches must come from Scan(content).
func Rewrite(content string, matches []Match, fragments []string) string {
	if len(matches) != len(fragments) {
		panic(fmt.Sprintf("googlemaps: %d placeholders but %d fragments", len(matches), len(fragments)))
	}
	if len(matches) == 0 {
		return content
	}
	b := &strings.Builder{}
	b.Grow(len(content))
	last := 0
	for i, m := range matches {
		b.WriteString(content[last:m.Start])
		b.WriteString(fragments[i])
		last = m.End
	}
	b.WriteString(content[last:])
	return b.String()
}

// Strip removes every match from content. Removing a placeholder can join the
// text around it into a new one, so Strip scans again until none are left.
func Strip(content string, matches []Match) string {
	for len(matches) > 0 {
		content = Rewrite(content, matches, make([]string, len(matches)))
		matches = Scan(content)
	}
	return content
}
