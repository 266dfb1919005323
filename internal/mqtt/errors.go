package mqtt

import "codeberg.org/mutker/runcat/internal/errors"

const (
	ErrConnect        = errors.ErrorCode("mqtt_connect_failed")
	ErrConnectTimeout = errors.ErrorCode("mqtt_connect_timeout")
	ErrPublish        = errors.ErrorCode("mqtt_publish_failed")
	ErrPublishTimeout = errors.ErrorCode("mqtt_publish_timeout")
	ErrFormatPayload  = errors.ErrorCode("mqtt_format_payload_failed")
)
