package renderly

import (
	"encoding/json"
)

// FuncMap returns the template functions every template gets, or only the
// named ones.
func FuncMap(names ...string) map[string]interface{} {
	funcMap := map[string]interface{}{
		"json": fnJSON,
	}
	if len(names) == 0 {
		return funcMap
	}
	customMap := make(map[string]interface{})
	for _, name := range names {
		if fn, ok := funcMap[name]; ok {
			customMap[name] = fn
		}
	}
	return customMap
}

// fnJSON encodes v for inclusion in a script. <, > and & come out as \u
// escapes so the result cannot close the surrounding script element.
func fnJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
