package tray

import (
	"sync"

	"codeberg.org/mutker/runcat/internal/resource"
)

// RecordingRenderer records rendered icons and menus for test assertions.
type RecordingRenderer struct {
	mu sync.Mutex

	Icons []resource.Icon
	Menus []Menu

	// IconError, if set, is returned by SetIcon.
	IconError error

	Closed bool

	action func(string)
}

func NewRecordingRenderer() *RecordingRenderer {
	return &RecordingRenderer{}
}

func (r *RecordingRenderer) SetIcon(icon resource.Icon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.IconError != nil {
		return r.IconError
	}
	r.Icons = append(r.Icons, icon)

	return nil
}

func (r *RecordingRenderer) SetMenu(menu Menu) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Menus = append(r.Menus, menu)

	return nil
}

func (r *RecordingRenderer) OnAction(callback func(menuItemID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.action = callback
}

// Click fires the registered action callback as if the user activated id.
// It reports false if no callback is registered.
func (r *RecordingRenderer) Click(id string) bool {
	r.mu.Lock()
	action := r.action
	r.mu.Unlock()

	if action == nil {
		return false
	}
	action(id)

	return true
}

func (r *RecordingRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Closed = true

	return nil
}

// LastIcon returns the most recently rendered icon.
func (r *RecordingRenderer) LastIcon() (resource.Icon, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Icons) == 0 {
		return resource.Icon{}, false
	}

	return r.Icons[len(r.Icons)-1], true
}

// LastMenu returns the most recently rendered menu.
func (r *RecordingRenderer) LastMenu() (Menu, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Menus) == 0 {
		return Menu{}, false
	}

	return r.Menus[len(r.Menus)-1], true
}

// IconCount returns the number of rendered icons.
func (r *RecordingRenderer) IconCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Icons)
}
