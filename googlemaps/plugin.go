// Package googlemaps replaces [GOOGLEMAPS:<tag>] placeholders in page content
// with Google Maps and keeps track of the scripts and stylesheets those maps
// need.
//
// A page is processed by a Pass. On the fresh path Pass.Process rewrites the
// content and fills the pass ledger, and Pass.Persist stores the ledger in the
// plugin's cache. When the host serves the page body from its own render
// cache it calls Pass.Restore instead, which reloads the ledger or, failing
// that, rebuilds it from the map containers found in the cached markup.
package googlemaps

import (
	"errors"
	"log/slog"

	"github.com/bokwoon95/googlemaps/erro"
	"github.com/bokwoon95/googlemaps/ledger"
)

// Template names the Renderer must know.
const (
	ObjectTemplate = "googlemaps.html"
	CallTemplate   = "googlemaps_call.js"
)

// Renderer executes a named template with vars.
type Renderer interface {
	Render(name string, vars any) (string, error)
}

type Plugin struct {
	renderer  Renderer
	cache     ledger.Cache
	logger    *slog.Logger
	namespace string
}

type Option func(*Plugin) error

// WithCache persists page ledgers in c. Without a cache Persist is a no-op
// and Restore always rescans.
func WithCache(c ledger.Cache) Option {
	return func(p *Plugin) error {
		p.cache = c
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) error {
		if logger == nil {
			return errors.New("googlemaps: nil logger")
		}
		p.logger = logger
		return nil
	}
}

// WithNamespace changes the string mixed into ledger cache keys.
func WithNamespace(namespace string) Option {
	return func(p *Plugin) error {
		p.namespace = namespace
		return nil
	}
}

func New(renderer Renderer, opts ...Option) (*Plugin, error) {
	if renderer == nil {
		return nil, errors.New("googlemaps: nil renderer")
	}
	p := &Plugin{
		renderer:  renderer,
		logger:    slog.Default(),
		namespace: "googlemaps",
	}
	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Pass is the state of one page render. It is owned by the caller and must
// not be shared between goroutines.
type Pass struct {
	plugin *Plugin
	Path   string
	Config Config
	Ledger *ledger.Ledger
	// Maps is the number of maps placed or found by the pass.
	Maps int
}

// NewPass starts processing the page at path. cfg is the plugin configuration
// with the page's overrides applied.
func (p *Plugin) NewPass(path string, cfg Config) *Pass {
	return &Pass{
		plugin: p,
		Path:   path,
		Config: cfg,
		Ledger: ledger.New(),
	}
}

// Enabled reports whether maps are rendered for this page. It defaults to
// true; a page turns maps off with enabled: false.
func (ps *Pass) Enabled() (bool, error) {
	v, ok := ps.Config.Lookup("enabled")
	if !ok {
		return true, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, &ConfigError{Field: "enabled", Value: v, Err: err}
	}
	return b, nil
}

// Process replaces every placeholder in content. When maps are disabled for
// the page the placeholders are removed and the ledger is emptied.
func (ps *Pass) Process(content string) (string, error) {
	on, err := ps.Enabled()
	if err != nil {
		return "", err
	}
	matches := Scan(content)
	if !on {
		ps.Ledger.Reset()
		ps.Maps = 0
		if len(matches) > 0 {
			ps.plugin.logger.Debug("googlemaps: maps disabled, placeholders removed", "path", ps.Path, "count", len(matches))
		}
		return Strip(content, matches), nil
	}
	if len(matches) == 0 {
		return content, nil
	}
	fragments := make([]string, 0, len(matches))
	calls := make([]string, 0, len(matches))
	for _, m := range matches {
		payload, err := ps.payload(m.Tag)
		if err != nil {
			return "", err
		}
		fragment, err := ps.plugin.renderer.Render(ObjectTemplate, payload)
		if err != nil {
			return "", erro.Wrapf(err, "render %s for %q", ObjectTemplate, m.Tag)
		}
		call, err := ps.plugin.renderer.Render(CallTemplate, payload)
		if err != nil {
			return "", erro.Wrapf(err, "render %s for %q", CallTemplate, m.Tag)
		}
		fragments = append(fragments, fragment)
		calls = append(calls, call)
	}
	ps.addAssets(calls)
	ps.plugin.logger.Debug("googlemaps: placeholders replaced", "path", ps.Path, "count", len(matches))
	return Rewrite(content, matches, fragments), nil
}

// Restore fills the ledger for content that came out of a render cache and
// therefore already has its map markup. The stored ledger is used when there
// is one; otherwise the ledger is rebuilt from the map containers in content
// and stored for next time.
func (ps *Pass) Restore(content string) error {
	ps.Ledger.Reset()
	ps.Maps = 0
	cache := ps.plugin.cache
	if cache != nil {
		l, ok, err := ledger.Load(cache, ps.key())
		if err != nil {
			return erro.Wrapf(err, "load ledger of %s", ps.Path)
		}
		if ok {
			ps.Ledger = l
			for _, e := range l.Entries() {
				if e.Kind == ledger.InlineJS {
					ps.Maps++
				}
			}
			return nil
		}
	}
	on, err := ps.Enabled()
	if err != nil {
		return err
	}
	tags := ScanRendered(content)
	if on && len(tags) > 0 {
		calls := make([]string, 0, len(tags))
		for _, tag := range tags {
			payload, err := ps.payload(tag)
			if err != nil {
				return err
			}
			call, err := ps.plugin.renderer.Render(CallTemplate, payload)
			if err != nil {
				return erro.Wrapf(err, "render %s for %q", CallTemplate, tag)
			}
			calls = append(calls, call)
		}
		ps.addAssets(calls)
	}
	ps.plugin.logger.Debug("googlemaps: ledger rebuilt from cached content", "path", ps.Path, "count", ps.Maps)
	if cache == nil {
		return nil
	}
	return ps.Persist()
}

// Persist stores the ledger for this page, or deletes the stored one when the
// ledger is empty. Concurrent passes over the same page race; the last write
// wins.
func (ps *Pass) Persist() error {
	if ps.plugin.cache == nil {
		return nil
	}
	err := ledger.Store(ps.plugin.cache, ps.key(), ps.Ledger)
	if err != nil {
		return erro.Wrapf(err, "store ledger of %s", ps.Path)
	}
	return nil
}

// Materialize replays the ledger onto the page's asset sink.
func (ps *Pass) Materialize(sink ledger.Sink) error {
	return ps.Ledger.Materialize(sink)
}

func (ps *Pass) key() string {
	return ledger.Key(ps.plugin.namespace, ps.Path, ps.plugin.cache.Generation())
}

func (ps *Pass) payload(tag string) (Payload, error) {
	tc, err := Resolve(ps.Config, tag)
	if err != nil {
		return Payload{}, err
	}
	return Build(tc), nil
}

func (ps *Pass) addAssets(calls []string) {
	AddAssets(ps.Ledger, ps.Config)
	for _, call := range calls {
		ps.Ledger.AddInlineJS(call, InitPriority, ledger.Bottom)
	}
	ps.Maps = len(calls)
}
