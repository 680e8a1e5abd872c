// Package renderly executes named page fragments for plugins. Templates whose
// name ends in .js are parsed with text/template and everything else with
// html/template, so script templates are not HTML-escaped.
package renderly

import (
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/oxtoacart/bpool"
)

type Renderly struct {
	mu      *sync.RWMutex
	bufpool *bpool.BufferPool
	funcs   map[string]interface{}
	opts    []string
	// sources are parsed in order; a later file with the same name wins.
	sources []fs.FS
	html    map[string]*htmltemplate.Template
	js      map[string]*texttemplate.Template
}

type Option func(*Renderly) error

func TemplateFuncs(funcmaps ...map[string]interface{}) Option {
	return func(ry *Renderly) error {
		for _, funcmap := range funcmaps {
			for name, fn := range funcmap {
				ry.funcs[name] = fn
			}
		}
		return nil
	}
}

func TemplateOpts(option ...string) Option {
	return func(ry *Renderly) error {
		ry.opts = option
		return nil
	}
}

// Override adds a directory (usually a theme's) whose templates replace the
// ones of the same name.
func Override(fsys fs.FS) Option {
	return func(ry *Renderly) error {
		ry.sources = append(ry.sources, fsys)
		return nil
	}
}

// New parses every .html and .js file at the root of fsys and of any
// Override directories.
func New(fsys fs.FS, opts ...Option) (*Renderly, error) {
	ry := &Renderly{
		mu:      &sync.RWMutex{},
		bufpool: bpool.NewBufferPool(64),
		funcs:   FuncMap(),
		sources: []fs.FS{fsys},
		html:    make(map[string]*htmltemplate.Template),
		js:      make(map[string]*texttemplate.Template),
	}
	var err error
	for _, opt := range opts {
		err = opt(ry)
		if err != nil {
			return ry, err
		}
	}
	for _, src := range ry.sources {
		err = ry.parseFS(src)
		if err != nil {
			return ry, err
		}
	}
	return ry, nil
}

func (ry *Renderly) parseFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	HTML, JS := categorize(names)
	ry.mu.Lock()
	defer ry.mu.Unlock()
	for _, name := range HTML {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		t, err := htmltemplate.New(name).Funcs(ry.funcs).Option(ry.opts...).Parse(string(b))
		if err != nil {
			return err
		}
		ry.html[name] = t
	}
	for _, name := range JS {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		t, err := texttemplate.New(name).Funcs(ry.funcs).Option(ry.opts...).Parse(string(b))
		if err != nil {
			return err
		}
		ry.js[name] = t
	}
	return nil
}

// Render executes the template called name and returns its output.
func (ry *Renderly) Render(name string, vars any) (string, error) {
	b := &strings.Builder{}
	err := ry.Execute(b, name, vars)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Execute writes the output of template name to w. Nothing is written if the
// template fails.
func (ry *Renderly) Execute(w io.Writer, name string, vars any) error {
	ry.mu.RLock()
	ht, isHTML := ry.html[name]
	jt, isJS := ry.js[name]
	ry.mu.RUnlock()
	tempbuf := ry.bufpool.Get()
	defer ry.bufpool.Put(tempbuf)
	var err error
	switch {
	case isHTML:
		err = ht.Execute(tempbuf, vars)
	case isJS:
		err = jt.Execute(tempbuf, vars)
	default:
		return fmt.Errorf("renderly: no such template %q", name)
	}
	if err != nil {
		return err
	}
	_, err = tempbuf.WriteTo(w)
	return err
}

func categorize(names []string) (html, js []string) {
	for _, name := range names {
		switch strings.ToLower(path.Ext(name)) {
		case ".js":
			js = append(js, name)
		case ".html", ".htm", ".tmpl":
			html = append(html, name)
		}
	}
	return html, js
}
