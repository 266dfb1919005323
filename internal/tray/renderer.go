package tray

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"codeberg.org/mutker/runcat/internal/logger"
	"codeberg.org/mutker/runcat/internal/resource"
)

// Renderer is the native tray widget: it shows an icon and a menu and reports
// menu activations. SetIcon, SetMenu and Close are only called from the
// presenter's event loop; the OnAction callback may run on any goroutine.
type Renderer interface {
	SetIcon(icon resource.Icon) error
	SetMenu(menu Menu) error
	OnAction(callback func(menuItemID string))
	Close() error
}

// Menu is a snapshot of the tray menu.
type Menu struct {
	Items []MenuItem
}

type MenuItem struct {
	ID        string
	Label     string
	Enabled   bool
	Checkable bool
	Checked   bool
	Children  []MenuItem
}

// Find returns the item with the given ID, searching submenus.
func (m Menu) Find(id string) (MenuItem, bool) {
	return findItem(m.Items, id)
}

func findItem(items []MenuItem, id string) (MenuItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
		if found, ok := findItem(item.Children, id); ok {
			return found, true
		}
	}

	return MenuItem{}, false
}

// LogRenderer is a headless renderer that logs what a tray would display.
// If it has an input, every non-empty line read from it is reported as a
// menu activation, e.g. "exit" or "character/parrot".
type LogRenderer struct {
	log   logger.Logger
	input io.Reader
	once  sync.Once
}

func NewLogRenderer(log logger.Logger, input io.Reader) *LogRenderer {
	if log == nil {
		log = logger.WithComponent("renderer")
	}
	return &LogRenderer{log: log, input: input}
}

// OnAction starts reading menu item IDs from the input. Only the first
// callback is used.
func (r *LogRenderer) OnAction(callback func(menuItemID string)) {
	if r.input == nil || callback == nil {
		return
	}

	r.once.Do(func() {
		go r.readActions(callback)
	})
}

func (r *LogRenderer) readActions(callback func(string)) {
	scanner := bufio.NewScanner(r.input)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		r.log.Debug().Str("id", id).Msg("Menu item activated")
		callback(id)
	}
	if err := scanner.Err(); err != nil {
		r.log.Warn().Err(err).Msg("Stopped reading menu input")
	}
}

func (r *LogRenderer) SetIcon(icon resource.Icon) error {
	r.log.Debug().Str("icon", icon.Path).Msg("Set tray icon")
	return nil
}

func (r *LogRenderer) SetMenu(menu Menu) error {
	for _, item := range menu.Items {
		ev := r.log.Info().
			Str("id", item.ID).
			Str("label", item.Label).
			Bool("enabled", item.Enabled)
		if len(item.Children) > 0 {
			checked := ""
			for _, child := range item.Children {
				if child.Checked {
					checked = child.Label
				}
			}
			ev = ev.Int("children", len(item.Children)).Str("checked", checked)
		}
		ev.Msg("Menu item")
	}

	return nil
}

func (r *LogRenderer) Close() error {
	return nil
}
