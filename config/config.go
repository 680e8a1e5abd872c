// Package config loads site and plugin settings and exposes them as a dotted
// key space. Page front matter is layered on top per request.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bokwoon95/googlemaps/cache"
	"github.com/bokwoon95/googlemaps/logging"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// PluginKey is where the googlemaps plugin settings live in the site config.
// Page front matter overrides them under the plugin's short name.
const (
	PluginKey = "plugins.googlemaps"
	PageKey   = "googlemaps"
)

type Settings struct {
	Server  ServerSettings `koanf:"server"`
	Cache   CacheSettings  `koanf:"cache"`
	Logging logging.Config `koanf:"logging"`
	Plugins PluginSettings `koanf:"plugins"`
}

type ServerSettings struct {
	Addr string `koanf:"addr"`
	// Root is the directory page files are served from.
	Root string `koanf:"root"`
	// Sanitize runs page bodies through a UGC html policy before rendering.
	Sanitize bool `koanf:"sanitize"`
}

type CacheSettings struct {
	// Backend is "ristretto" or "sqlite".
	Backend   string                `koanf:"backend"`
	SQLite    string                `koanf:"sqlite"`
	Ristretto cache.RistrettoConfig `koanf:"ristretto"`
}

type PluginSettings struct {
	Googlemaps GooglemapsDefaults `koanf:"googlemaps"`
}

// GooglemapsDefaults are the plugin level defaults. Optional settings such as
// lang and api_key are deliberately absent so that an unset value stays unset.
type GooglemapsDefaults struct {
	Enabled      bool   `koanf:"enabled"`
	BuiltInCSS   bool   `koanf:"built_in_css"`
	Debug        bool   `koanf:"debug"`
	AssetsURL    string `koanf:"assets_url"`
	ControlStyle string `koanf:"control_style"`
}

func Defaults() Settings {
	return Settings{
		Server: ServerSettings{
			Addr:     ":8080",
			Root:     "pages",
			Sanitize: true,
		},
		Cache: CacheSettings{
			Backend:   "ristretto",
			SQLite:    "googlemaps.sqlite3",
			Ristretto: cache.RistrettoDefaults(),
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
		Plugins: PluginSettings{
			Googlemaps: GooglemapsDefaults{
				Enabled:    true,
				BuiltInCSS: true,
				AssetsURL:  "/googlemaps/assets",
			},
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
}

// NewLoader creates a new configuration loader. envPrefix should be like
// "GOOGLEMAPS" (without trailing delimiter); GOOGLEMAPS__SERVER__ADDR maps to
// server.addr.
func NewLoader(envPrefix string) *Loader {
	return &Loader{
		k:         koanf.New("."),
		envPrefix: envPrefix + "__",
	}
}

// LoadWithDefaults loads configuration with the following priority (highest
// to lowest): environment variables, the YAML config file, struct defaults.
// An empty configPath skips the file.
func (l *Loader) LoadWithDefaults(defaults any, configPath string) error {
	if defaults != nil {
		if err := l.k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
			return fmt.Errorf("failed to load defaults: %w", err)
		}
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file not found: %s", configPath)
		}
		if err := l.k.Load(file.Provider(configPath), koanfyaml.Parser()); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
	}
	envProvider := env.Provider(l.envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := l.k.Load(envProvider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// LoadFlags applies the flags the user explicitly set, using mappings from
// flag name to config key.
func (l *Loader) LoadFlags(flags *pflag.FlagSet, mappings map[string]string) error {
	var errs []error
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := mappings[f.Name]; ok {
			if err := l.k.Set(key, f.Value.String()); err != nil {
				errs = append(errs, fmt.Errorf("flag %s: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

func (l *Loader) Unmarshal(path string, out any) error {
	return l.k.Unmarshal(path, out)
}

// Config returns a read-only view of everything loaded so far.
func (l *Loader) Config() *Config {
	return &Config{k: l.k.Copy()}
}

// DumpYAML writes the loaded configuration as YAML to w.
func (l *Loader) DumpYAML(w io.Writer) error {
	return yaml.NewEncoder(w).Encode(l.k.Raw())
}

// Config is a dotted key space, e.g. "home.zoom" or "home.markers".
type Config struct {
	k *koanf.Koanf
}

// New builds a Config from a map. Keys may be nested maps or dotted paths.
func New(m map[string]any) *Config {
	k := koanf.New(".")
	// confmap never fails to read a map.
	_ = k.Load(confmap.Provider(m, "."), nil)
	return &Config{k: k}
}

// Lookup returns the value configured at path, if any. A key set to a falsy
// value (false, 0, "") is still present.
func (c *Config) Lookup(path string) (any, bool) {
	if !c.k.Exists(path) {
		return nil, false
	}
	return c.k.Get(path), true
}

// Sub returns the subtree rooted at path; missing paths give an empty Config.
func (c *Config) Sub(path string) *Config {
	return &Config{k: c.k.Cut(path)}
}

// Overlay returns a copy of c with m merged on top. Maps are merged key by
// key; any other value in m replaces the one in c.
func (c *Config) Overlay(m map[string]any) (*Config, error) {
	k := c.k.Copy()
	if len(m) > 0 {
		if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
			return nil, err
		}
	}
	return &Config{k: k}, nil
}

// ForPage merges the page's front matter overrides over the plugin settings.
func (c *Config) ForPage(header map[string]any) (*Config, error) {
	plugin := c.Sub(PluginKey)
	if header == nil {
		return plugin, nil
	}
	override, ok := header[PageKey].(map[string]any)
	if !ok {
		return plugin, nil
	}
	return plugin.Overlay(override)
}

// PluginEnabled reports whether the site leaves the googlemaps plugin on.
// Pages can still turn maps off for themselves.
func (c *Config) PluginEnabled() bool {
	_, ok := c.Lookup(PluginKey + ".enabled")
	return !ok || c.Bool(PluginKey+".enabled")
}

func (c *Config) Bool(path string) bool {
	return c.k.Bool(path)
}

func (c *Config) String(path string) string {
	return c.k.String(path)
}

func (c *Config) Raw() map[string]any {
	return c.k.Raw()
}
