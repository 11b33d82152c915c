package platform

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
	"github.com/witsoft001/esp8266-smart-home/internal/logger"
)

const defaultQueryTimeout = 5 * time.Second

// Host runs the node as a Linux process. A reset re-executes the binary,
// which is what waking from deep sleep looks like on the device too.
//
// Cancelling ctx cuts delays and deep sleep short, and a reset requested
// after cancellation returns ErrInterrupted instead of re-executing.
type Host struct {
	ctx          context.Context
	clock        *Clock
	queryTimeout time.Duration

	exec  func(argv0 string, argv []string, envv []string) error
	sleep func(ctx context.Context, d time.Duration) error
	query func(host string, opt ntp.QueryOptions) (*ntp.Response, error)
}

func NewHost(ctx context.Context, clock *Clock) *Host {
	return &Host{
		ctx:          ctx,
		clock:        clock,
		queryTimeout: defaultQueryTimeout,
		exec:         syscall.Exec,
		sleep:        sleepContext,
		query:        ntp.QueryWithOptions,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (h *Host) Restart() error {
	errFactory := errors.New()

	if err := h.ctx.Err(); err != nil {
		return errFactory.Wrap(ErrInterrupted, err)
	}

	exe, err := os.Executable()
	if err != nil {
		return errFactory.Wrap(ErrExecutable, err)
	}
	if err := h.exec(exe, os.Args, os.Environ()); err != nil {
		return errFactory.Wrap(ErrReexec, err)
	}
	return nil
}

func (h *Host) DeepSleepMicros(us uint64) error {
	if err := h.sleep(h.ctx, time.Duration(us)*time.Microsecond); err != nil {
		return errors.New().Wrap(ErrInterrupted, err)
	}
	return h.Restart()
}

func (h *Host) DelayMillis(ms uint32) {
	_ = h.sleep(h.ctx, time.Duration(ms)*time.Millisecond)
}

// SyncTime sets the zone immediately and queries the server in the
// background. Failures only show up in debug logs.
func (h *Host) SyncTime(utcOffset, dstOffset int, server string) {
	h.clock.SetZone(utcOffset + dstOffset)

	go func() {
		resp, err := h.query(server, ntp.QueryOptions{Timeout: h.queryTimeout})
		if err != nil {
			logger.Debug().Err(err).Str("server", server).Msg("SNTP query failed")
			return
		}
		if err := resp.Validate(); err != nil {
			logger.Debug().Err(err).Str("server", server).Msg("SNTP response rejected")
			return
		}

		h.clock.Adjust(resp.ClockOffset)
		logger.Debug().
			Str("server", server).
			Dur("offset", resp.ClockOffset).
			Uint8("stratum", resp.Stratum).
			Msg("Clock synchronized")
	}()
}
