package tray

import "codeberg.org/mutker/runcat/internal/errors"

const (
	ErrLoopClosed        = errors.ErrorCode("tray_closed")
	ErrLoopRunning       = errors.ErrorCode("tray_already_running")
	ErrMissingDependency = errors.ErrorCode("tray_missing_dependency")
	ErrIconSetLoad       = errors.ErrorCode("tray_icon_set_load_failed")
	ErrRender            = errors.ErrorCode("tray_render_failed")
)

// ErrClosed is returned by the proxy once the event loop has exited.
var ErrClosed = errors.New().New(ErrLoopClosed)
