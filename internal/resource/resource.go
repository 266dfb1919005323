// Package resource loads the catalog of named icon sets ("characters") from
// a resource.toml file:
//
//	[resource.cat]
//	dark = ["cat/dark_cat_0.ico", ...]
//	light = ["cat/light_cat_0.ico", ...]
//
// Relative icon paths are looked up in the directory holding the file, then
// in the executable's directory.
package resource

import (
	"os"
	"path/filepath"
	"sort"

	"codeberg.org/mutker/runcat/internal/errors"
	"github.com/spf13/viper"
)

const (
	// DefaultIconSet is the character shown at startup.
	DefaultIconSet = "cat"

	// DefaultPath is the catalog location relative to the executable.
	DefaultPath = "config/resource.toml"
)

// Theme selects the light or dark variant of an icon set.
type Theme int

const (
	Light Theme = iota
	Dark
)

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// Icon is a single animation frame on disk.
type Icon struct {
	Path string
}

// IconSet is one character with a frame sequence per theme.
type IconSet struct {
	Name  string
	Dark  []Icon
	Light []Icon
}

// Frame returns the icon for index i in the given theme.
func (s *IconSet) Frame(theme Theme, i int) (Icon, bool) {
	frames := s.Light
	if theme == Dark {
		frames = s.Dark
	}
	if i < 0 || i >= len(frames) {
		return Icon{}, false
	}

	return frames[i], true
}

// FrameCount returns the number of frames per theme.
func (s *IconSet) FrameCount() int {
	return len(s.Light)
}

type paths struct {
	Dark  []string `mapstructure:"dark"`
	Light []string `mapstructure:"light"`
}

// Catalog maps character names to their icon paths.
type Catalog struct {
	dirs       []string
	frameCount int
	sets       map[string]paths
}

// CatalogOption configures a Catalog
type CatalogOption func(*Catalog)

// WithSearchDirs replaces the directories searched after the catalog's own
// directory. The default is the executable's directory.
func WithSearchDirs(dirs ...string) CatalogOption {
	return func(c *Catalog) {
		c.dirs = append(c.dirs[:1], dirs...)
	}
}

// LoadCatalog reads a resource.toml file. Every icon set must provide
// frameCount icons per theme; this is checked when a set is loaded.
func LoadCatalog(path string, frameCount int, opts ...CatalogOption) (*Catalog, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errFactory.Wrap(ErrCatalogRead, err)
	}

	sets := map[string]paths{}
	if err := v.UnmarshalKey("resource", &sets); err != nil {
		return nil, errFactory.Wrap(ErrCatalogInvalid, err)
	}
	if len(sets) == 0 {
		return nil, errFactory.WithData(ErrCatalogInvalid, "no [resource.<name>] tables")
	}

	c := &Catalog{
		dirs:       []string{filepath.Dir(path)},
		frameCount: frameCount,
		sets:       sets,
	}
	if exe, err := os.Executable(); err == nil {
		c.dirs = append(c.dirs, filepath.Dir(exe))
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// DefaultCatalogPath returns DefaultPath resolved against the executable's directory.
func DefaultCatalogPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.New().Wrap(ErrCatalogRead, err)
	}

	return filepath.Join(filepath.Dir(exe), DefaultPath), nil
}

// Names returns the character names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.sets))
	for name := range c.sets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Has reports whether the catalog lists name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.sets[name]
	return ok
}

// Load resolves and validates the icon set called name.
func (c *Catalog) Load(name string) (*IconSet, error) {
	errFactory := errors.New()

	p, ok := c.sets[name]
	if !ok {
		return nil, errFactory.WithData(ErrUnknownIconSet, name)
	}

	if len(p.Dark) != c.frameCount || len(p.Light) != c.frameCount {
		return nil, errFactory.WithData(ErrFrameMismatch, struct {
			Name     string
			Expected int
			Dark     int
			Light    int
		}{
			Name:     name,
			Expected: c.frameCount,
			Dark:     len(p.Dark),
			Light:    len(p.Light),
		})
	}

	dark, err := c.resolve(p.Dark)
	if err != nil {
		return nil, err
	}
	light, err := c.resolve(p.Light)
	if err != nil {
		return nil, err
	}

	return &IconSet{Name: name, Dark: dark, Light: light}, nil
}

func (c *Catalog) resolve(rel []string) ([]Icon, error) {
	icons := make([]Icon, 0, len(rel))
	for _, p := range rel {
		icon, err := c.find(p)
		if err != nil {
			return nil, err
		}
		icons = append(icons, icon)
	}

	return icons, nil
}

// find returns the first existing file for p. Absolute paths are used as is.
func (c *Catalog) find(p string) (Icon, error) {
	errFactory := errors.New()

	candidates := []string{p}
	if !filepath.IsAbs(p) {
		candidates = candidates[:0]
		for _, dir := range c.dirs {
			candidates = append(candidates, filepath.Join(dir, p))
		}
	}

	var firstErr error
	for _, full := range candidates {
		info, err := os.Stat(full)
		if err == nil && !info.IsDir() {
			return Icon{Path: full}, nil
		}
		if firstErr == nil {
			if err == nil {
				err = errFactory.WithData(ErrIconUnavailable, full)
			}
			firstErr = err
		}
	}

	return Icon{}, errFactory.Wrap(ErrIconUnavailable, firstErr)
}
