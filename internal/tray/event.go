package tray

import (
	"strings"

	"codeberg.org/mutker/runcat/internal/resource"
)

// Menu item identifiers
const (
	MenuExit        = "exit"
	MenuAutoTheme   = "auto_theme"
	MenuToggleTheme = "toggle_theme"
	MenuCharacters  = "characters"

	characterPrefix = "character/"
)

// Event is processed by the presenter's event loop.
type Event interface {
	event()
}

// FrameChanged asks the presenter to show frame Index of the current icon set.
type FrameChanged struct {
	Index int
}

// ThemeChanged reports a system theme change.
type ThemeChanged struct {
	Theme resource.Theme
}

// MenuClicked reports activation of a menu item.
type MenuClicked struct {
	ID string
}

func (FrameChanged) event() {}
func (ThemeChanged) event() {}
func (MenuClicked) event()  {}

// CharacterID returns the menu item ID selecting the named icon set.
func CharacterID(name string) string {
	return characterPrefix + name
}

func characterName(id string) (string, bool) {
	if !strings.HasPrefix(id, characterPrefix) {
		return "", false
	}

	return strings.TrimPrefix(id, characterPrefix), true
}
