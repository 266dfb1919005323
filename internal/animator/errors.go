package animator

import "codeberg.org/mutker/runcat/internal/errors"

const (
	ErrEmitFailed        = errors.ErrorCode("animator_emit_failed")
	ErrInvalidFrameCount = errors.ErrorCode("animator_invalid_frame_count")
	ErrMissingDependency = errors.ErrorCode("animator_missing_dependency")
)
