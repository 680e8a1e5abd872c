package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

var (
	yamlFence = []byte("---")
	tomlFence = []byte("+++")
)

// SplitFrontMatter separates a page file into its header and its body. The
// header is delimited by "---" lines (YAML) or "+++" lines (TOML) at the very
// start of the file. A file without front matter has a nil header.
func SplitFrontMatter(src []byte) (header map[string]any, body []byte, err error) {
	var fence []byte
	switch {
	case hasFence(src, yamlFence):
		fence = yamlFence
	case hasFence(src, tomlFence):
		fence = tomlFence
	default:
		return nil, src, nil
	}
	rest := src[bytes.IndexByte(src, '\n')+1:]
	var raw []byte
	found := false
	for {
		line, next, ok := bytes.Cut(rest, []byte("\n"))
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			body = next
			found = true
			break
		}
		raw = append(raw, line...)
		raw = append(raw, '\n')
		rest = next
		if !ok {
			break
		}
	}
	if !found {
		return nil, nil, fmt.Errorf("front matter opened with %q is never closed", fence)
	}
	header = make(map[string]any)
	if bytes.Equal(fence, yamlFence) {
		err = yaml.Unmarshal(raw, &header)
		if err != nil {
			return nil, nil, fmt.Errorf("yaml front matter: %w", err)
		}
		return header, body, nil
	}
	tree, err := toml.LoadBytes(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("toml front matter: %w", err)
	}
	return tree.ToMap(), body, nil
}

func hasFence(src, fence []byte) bool {
	line, _, ok := bytes.Cut(src, []byte("\n"))
	return ok && bytes.Equal(bytes.TrimRight(line, " \t\r"), fence)
}
