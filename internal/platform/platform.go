// Package platform provides the hardware primitives the node lifecycle needs.
// Restart and DeepSleepMicros do not return when they work; a returned error
// means the reset did not take effect.
package platform

import "github.com/witsoft001/esp8266-smart-home/internal/errors"

type Platform interface {
	Restart() error
	DeepSleepMicros(us uint64) error
	DelayMillis(ms uint32)
	SyncTime(utcOffset, dstOffset int, server string)
}

const (
	ErrExecutable  = errors.ErrorCode("platform_executable_not_found")
	ErrReexec      = errors.ErrorCode("platform_reexec_failed")
	ErrInterrupted = errors.ErrorCode("platform_sleep_interrupted")
)
