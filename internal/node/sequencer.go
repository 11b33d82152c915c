// Package node sequences the node's terminal lifecycle actions: restart and
// deep sleep. Both tear the session and console down in a fixed order with
// short pauses so the network stack gets a chance to drain.
package node

import (
	"io"

	"github.com/witsoft001/esp8266-smart-home/internal/errors"
	"github.com/witsoft001/esp8266-smart-home/internal/platform"
	"github.com/witsoft001/esp8266-smart-home/internal/rtcstore"
)

const (
	restartDrainDelay  = 50   // ms, lets a pending publish go out
	restartStepDelay   = 25   // ms
	restartSettleDelay = 1000 // ms, in case the reset lags the call
	sleepStepDelay     = 1    // ms

	lowBatterySleep = 15 * 60 // seconds

	// The guard fires for levels strictly inside this band.
	lowBatteryFloor   = 0.5
	lowBatteryCeiling = 3.7

	microsPerSecond = 1_000_000
)

type Session interface {
	Disconnect()
	ProcessTick()
	CloseAll()
}

type Store interface {
	Save(state *rtcstore.State) error
}

type Settings interface {
	TimeServer() string
}

// Sink is the diagnostic console. Writes pass through raw; Log concatenates
// its arguments into one message.
type Sink interface {
	io.Writer
	Log(args ...any)
	Stop()
}

type Sequencer struct {
	session  Session
	store    Store
	settings Settings
	sink     Sink
	platform platform.Platform
	state    *rtcstore.State
}

func NewSequencer(
	session Session,
	store Store,
	settings Settings,
	sink Sink,
	p platform.Platform,
	state *rtcstore.State,
) *Sequencer {
	return &Sequencer{
		session:  session,
		store:    store,
		settings: settings,
		sink:     sink,
		platform: p,
		state:    state,
	}
}

// HexDump renders buf on the diagnostic console.
func (s *Sequencer) HexDump(buf []byte) {
	_ = RenderHexDump(s.sink, buf)
}

// Restart ends the MQTT session cleanly and resets the node. It only returns
// if the platform failed to reset.
func (s *Sequencer) Restart() error {
	s.platform.DelayMillis(restartDrainDelay)

	// Disconnect first so the broker sees a clean session end.
	s.session.Disconnect()
	s.sink.Log("Restarting")
	s.platform.DelayMillis(restartStepDelay)
	s.sink.Stop()
	s.session.CloseAll()
	s.platform.DelayMillis(restartStepDelay)

	err := s.platform.Restart()

	s.platform.DelayMillis(restartSettleDelay)
	return errors.New().Wrap(errors.ErrRestartReturned, err)
}

// DeepSleep saves the retained state and powers down for the given number of
// seconds. It only returns if the platform failed to sleep.
func (s *Sequencer) DeepSleep(seconds uint32) error {
	s.sink.Log("Going to sleep for ", seconds, " seconds")

	s.state.SleepCount++
	s.state.LastSleepSeconds = seconds
	if err := s.store.Save(s.state); err != nil {
		s.sink.Log("Failed to save retained state: ", err)
	}

	s.platform.DelayMillis(sleepStepDelay)
	s.session.ProcessTick()
	s.platform.DelayMillis(sleepStepDelay)
	s.sink.Stop()
	s.session.CloseAll()
	s.platform.DelayMillis(sleepStepDelay)

	err := s.platform.DeepSleepMicros(uint64(seconds) * microsPerSecond)
	return errors.New().Wrap(errors.ErrDeepSleepReturned, err)
}

// CheckBatteryAndSleep puts the node to sleep for fifteen minutes when level
// lies strictly between 0.5 and 3.7. Otherwise it does nothing and returns nil.
func (s *Sequencer) CheckBatteryAndSleep(level float64) error {
	if level > lowBatteryFloor && level < lowBatteryCeiling {
		return s.DeepSleep(lowBatterySleep)
	}
	return nil
}

// ResyncTime starts an SNTP sync against the cached time server, in UTC with
// no daylight saving. The sync completes, or fails, in the background.
func (s *Sequencer) ResyncTime() {
	s.sink.Log("Reconfiguring time")
	s.platform.SyncTime(0, 0, s.settings.TimeServer())
}
