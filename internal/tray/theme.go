package tray

import (
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/runcat/internal/resource"
)

// ThemeDetector reports the current system theme.
type ThemeDetector interface {
	Detect() resource.Theme
}

// StaticDetector always reports the same theme.
type StaticDetector struct {
	Theme resource.Theme
}

func (d StaticDetector) Detect() resource.Theme {
	return d.Theme
}

// EnvDetector guesses the desktop theme from GTK_THEME and COLORFGBG,
// falling back to light.
type EnvDetector struct {
	Getenv func(string) string
}

func NewEnvDetector() *EnvDetector {
	return &EnvDetector{Getenv: os.Getenv}
}

func (d *EnvDetector) Detect() resource.Theme {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	// e.g. "Adwaita:dark"
	if gtk := strings.ToLower(getenv("GTK_THEME")); gtk != "" {
		if strings.Contains(gtk, "dark") {
			return resource.Dark
		}
		return resource.Light
	}

	// "fg;bg" or "fg;default;bg", set by rxvt and konsole
	if fgbg := getenv("COLORFGBG"); fgbg != "" {
		parts := strings.Split(fgbg, ";")
		if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			if bg < 7 || bg == 8 {
				return resource.Dark
			}
			return resource.Light
		}
	}

	return resource.Light
}
