package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestNewWriterJSON(t *testing.T) {
	is := is.New(t)
	buf := &bytes.Buffer{}
	logger := NewWriter(buf, Config{Level: "warn", Format: "JSON"})
	logger.Info("dropped")
	logger.Warn("kept", "path", "/index")
	var entry map[string]any
	is.NoErr(json.Unmarshal(buf.Bytes(), &entry))
	is.Equal(entry["msg"], "kept")
	is.Equal(entry["path"], "/index")
}

func TestNewWriterText(t *testing.T) {
	is := is.New(t)
	buf := &bytes.Buffer{}
	logger := NewWriter(buf, Config{Level: "debug"})
	logger.Debug("hello")
	is.True(strings.Contains(buf.String(), "msg=hello"))
}

func TestParseLevel(t *testing.T) {
	is := is.New(t)
	is.Equal(parseLevel("WARNING").String(), "WARN")
	is.Equal(parseLevel("").String(), "INFO")
	is.Equal(parseLevel("error").String(), "ERROR")
}
