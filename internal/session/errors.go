package session

import "github.com/witsoft001/esp8266-smart-home/internal/errors"

const (
	ErrConnect        = errors.ErrConnect
	ErrPublish        = errors.ErrPublish
	ErrSubscribe      = errors.ErrSubscribe
	ErrTimeout        = errors.ErrTimeout
	ErrInvalidConfig  = errors.ErrorCode("session_invalid_config")
	ErrUnknownCommand = errors.ErrorCode("session_unknown_command")
	ErrInvalidPayload = errors.ErrorCode("session_invalid_payload")
)
