package tray

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/logger"
	"codeberg.org/mutker/runcat/internal/resource"
)

const DefaultThemePoll = 2 * time.Second

// Catalog provides the selectable icon sets.
type Catalog interface {
	Names() []string
	Load(name string) (*resource.IconSet, error)
}

type Config struct {
	Character string
	AutoTheme bool
	ThemePoll time.Duration
}

func DefaultConfig() Config {
	return Config{
		Character: resource.DefaultIconSet,
		AutoTheme: true,
		ThemePoll: DefaultThemePoll,
	}
}

// Presenter owns all UI state and applies events one at a time on the
// goroutine that calls Run.
type Presenter struct {
	proxy    *Proxy
	renderer Renderer
	catalog  Catalog
	detector ThemeDetector
	poll     time.Duration
	log      logger.Logger

	theme     resource.Theme
	autoTheme bool
	set       *resource.IconSet
	frame     int
}

// PresenterOption configures a Presenter
type PresenterOption func(*Presenter)

// WithPresenterLogger sets the logger.
func WithPresenterLogger(log logger.Logger) PresenterOption {
	return func(p *Presenter) {
		p.log = log
	}
}

func NewPresenter(
	proxy *Proxy, renderer Renderer, catalog Catalog, detector ThemeDetector, cfg Config, opts ...PresenterOption,
) (*Presenter, error) {
	errFactory := errors.New()

	if proxy == nil || renderer == nil || catalog == nil || detector == nil {
		return nil, errFactory.New(ErrMissingDependency)
	}

	p := &Presenter{
		proxy:     proxy,
		renderer:  renderer,
		catalog:   catalog,
		detector:  detector,
		poll:      cfg.ThemePoll,
		autoTheme: cfg.AutoTheme,
		theme:     detector.Detect(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.WithComponent("tray")
	}
	if p.poll <= 0 {
		p.poll = DefaultThemePoll
	}

	set, err := catalog.Load(cfg.Character)
	if err != nil {
		return nil, errFactory.Wrap(ErrIconSetLoad, err)
	}
	p.set = set

	return p, nil
}

// Run processes events until ctx is cancelled or the exit item is clicked.
// The proxy is closed when Run returns.
func (p *Presenter) Run(ctx context.Context) error {
	errFactory := errors.New()

	if !p.proxy.start() {
		return errFactory.New(ErrLoopRunning)
	}
	defer p.proxy.close()

	poll := time.NewTicker(p.poll)
	defer poll.Stop()

	p.renderMenu()
	p.renderFrame(0)

	p.log.Info().
		Str("character", p.set.Name).
		Stringer("theme", p.theme).
		Bool("auto_theme", p.autoTheme).
		Msg("Tray started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.proxy.events:
			if !p.Handle(ev) {
				p.log.Info().Msg("Exit requested")
				return nil
			}
		case <-p.proxy.frames.Updates():
			if index, ok := p.proxy.frames.TryRead(); ok {
				p.Handle(FrameChanged{Index: index})
			}
		case <-poll.C:
			if detected := p.detector.Detect(); detected != p.theme {
				p.Handle(ThemeChanged{Theme: detected})
			}
		}
	}
}

// Handle applies one event. It returns false when the event loop should exit.
// It must only be called from the event loop goroutine, or before Run.
func (p *Presenter) Handle(ev Event) bool {
	switch e := ev.(type) {
	case FrameChanged:
		p.renderFrame(e.Index)
	case ThemeChanged:
		if p.autoTheme && e.Theme != p.theme {
			p.log.Debug().Stringer("theme", e.Theme).Msg("System theme changed")
			p.theme = e.Theme
			p.renderFrame(0)
		}
	case MenuClicked:
		return p.handleMenu(e.ID)
	default:
		p.log.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("Unknown event")
	}

	return true
}

func (p *Presenter) handleMenu(id string) bool {
	switch id {
	case MenuExit:
		return false
	case MenuToggleTheme:
		if p.autoTheme {
			return true
		}
		if p.theme == resource.Dark {
			p.theme = resource.Light
		} else {
			p.theme = resource.Dark
		}
		p.renderFrame(0)
	case MenuAutoTheme:
		p.autoTheme = !p.autoTheme
		if p.autoTheme {
			p.theme = p.detector.Detect()
		}
		p.renderMenu()
		p.renderFrame(0)
	default:
		name, ok := characterName(id)
		if !ok {
			p.log.Warn().Str("id", id).Msg("Unknown menu item")
			return true
		}
		p.selectCharacter(name)
	}

	return true
}

func (p *Presenter) selectCharacter(name string) {
	if name == p.set.Name {
		return
	}

	set, err := p.catalog.Load(name)
	if err != nil {
		p.log.Error().Err(err).Str("character", name).Msg("Failed to load icon set, keeping current")
		return
	}

	p.log.Info().Str("character", name).Msg("Character changed")
	p.set = set
	p.renderMenu()
	p.renderFrame(p.frame)
}

func (p *Presenter) renderFrame(index int) {
	icon, ok := p.set.Frame(p.theme, index)
	if !ok {
		p.log.Warn().Int("frame", index).Str("character", p.set.Name).Msg("Frame out of range")
		return
	}
	p.frame = index

	if err := p.renderer.SetIcon(icon); err != nil {
		p.log.Warn().Err(errors.New().Wrap(ErrRender, err)).Msg("Failed to set icon")
	}
}

func (p *Presenter) renderMenu() {
	if err := p.renderer.SetMenu(p.Menu()); err != nil {
		p.log.Warn().Err(errors.New().Wrap(ErrRender, err)).Msg("Failed to set menu")
	}
}

// Menu builds the menu for the current state.
func (p *Presenter) Menu() Menu {
	names := p.catalog.Names()
	characters := make([]MenuItem, 0, len(names))
	for _, name := range names {
		current := name == p.set.Name
		characters = append(characters, MenuItem{
			ID:        CharacterID(name),
			Label:     name,
			Enabled:   !current,
			Checkable: true,
			Checked:   current,
		})
	}

	return Menu{Items: []MenuItem{
		{ID: MenuCharacters, Label: "Characters", Enabled: true, Children: characters},
		{ID: MenuAutoTheme, Label: fmt.Sprintf("Auto theme: %t", p.autoTheme), Enabled: true},
		{ID: MenuToggleTheme, Label: "Toggle theme", Enabled: !p.autoTheme},
		{ID: MenuExit, Label: "Exit", Enabled: true},
	}}
}

// Theme returns the theme currently displayed.
func (p *Presenter) Theme() resource.Theme {
	return p.theme
}

// Character returns the name of the current icon set.
func (p *Presenter) Character() string {
	return p.set.Name
}

// Frame returns the index of the frame currently displayed.
func (p *Presenter) Frame() int {
	return p.frame
}
