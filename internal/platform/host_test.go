package platform

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
)

type fakeExec struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeExec) exec(string, []string, []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func newTestHost() (*Host, *fakeExec, *[]time.Duration) {
	fe := &fakeExec{err: stderrors.New("exec format error")}
	var slept []time.Duration
	h := NewHost(context.Background(), NewClock())
	h.exec = fe.exec
	h.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return h, fe, &slept
}

func TestDelayMillis(t *testing.T) {
	h, _, slept := newTestHost()
	h.DelayMillis(25)
	assert.Equal(t, []time.Duration{25 * time.Millisecond}, *slept)
}

func TestRestartReportsFailedReexec(t *testing.T) {
	h, fe, _ := newTestHost()

	err := h.Restart()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrReexec))
	assert.Equal(t, 1, fe.calls)
}

func TestDeepSleepBlocksThenResets(t *testing.T) {
	h, fe, slept := newTestHost()

	err := h.DeepSleepMicros(900 * 1_000_000)
	assert.True(t, errors.HasCode(err, ErrReexec))
	assert.Equal(t, []time.Duration{900 * time.Second}, *slept)
	assert.Equal(t, 1, fe.calls)
}

func TestDeepSleepCancelledDoesNotReset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fe := &fakeExec{}
	h := NewHost(ctx, NewClock())
	h.exec = fe.exec

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := h.DeepSleepMicros(600 * 1_000_000)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInterrupted))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, fe.calls)
}

func TestRestartAfterCancelDoesNotReexec(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fe := &fakeExec{}
	h := NewHost(ctx, NewClock())
	h.exec = fe.exec

	start := time.Now()
	h.DelayMillis(1000)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	err := h.Restart()
	assert.True(t, errors.HasCode(err, ErrInterrupted))
	assert.Zero(t, fe.calls)
}

func TestSyncTimeAppliesOffset(t *testing.T) {
	h, _, _ := newTestHost()
	var gotServer string
	var mu sync.Mutex
	h.query = func(host string, _ ntp.QueryOptions) (*ntp.Response, error) {
		mu.Lock()
		gotServer = host
		mu.Unlock()
		now := time.Now()
		return &ntp.Response{
			Time:           now,
			ReferenceTime:  now.Add(-time.Minute),
			ClockOffset:    3 * time.Second,
			Stratum:        2,
			Leap:           ntp.LeapNoWarning,
			RTT:            10 * time.Millisecond,
			Precision:      time.Microsecond,
			RootDelay:      time.Millisecond,
			RootDispersion: time.Millisecond,
		}, nil
	}

	h.SyncTime(0, 0, "10.0.0.2")

	require.Eventually(t, func() bool {
		return h.clock.Offset() == 3*time.Second
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, "10.0.0.2", gotServer)
	mu.Unlock()
	assert.False(t, h.clock.Synced().IsZero())
}

func TestSyncTimeFailureIsSilent(t *testing.T) {
	h, _, _ := newTestHost()
	done := make(chan struct{})
	h.query = func(string, ntp.QueryOptions) (*ntp.Response, error) {
		defer close(done)
		return nil, stderrors.New("i/o timeout")
	}

	h.SyncTime(0, 0, "unreachable.invalid")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("query was not attempted")
	}
	assert.Zero(t, h.clock.Offset())
	assert.True(t, h.clock.Synced().IsZero())
}

func TestClockZone(t *testing.T) {
	c := NewClock()
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	assert.Equal(t, time.UTC, c.Now().Location())

	c.SetZone(3600)
	_, offset := c.Now().Zone()
	assert.Equal(t, 3600, offset)

	c.Adjust(-2 * time.Second)
	assert.True(t, c.Now().Equal(fixed.Add(-2*time.Second)))
}
