package resource

import "codeberg.org/mutker/runcat/internal/errors"

const (
	ErrCatalogRead     = errors.ErrorCode("resource_catalog_read_failed")
	ErrCatalogInvalid  = errors.ErrorCode("resource_catalog_invalid")
	ErrUnknownIconSet  = errors.ErrorCode("resource_unknown_icon_set")
	ErrFrameMismatch   = errors.ErrorCode("resource_frame_count_mismatch")
	ErrIconUnavailable = errors.ErrorCode("resource_icon_unavailable")
)
