package sampler

import "codeberg.org/mutker/runcat/internal/errors"

const (
	ErrReadFailed        = errors.ErrorCode("sampler_read_failed")
	ErrInvalidReading    = errors.ErrorCode("sampler_invalid_reading")
	ErrEmptyReading      = errors.ErrorCode("sampler_empty_reading")
	ErrMissingDependency = errors.ErrorCode("sampler_missing_dependency")
)
