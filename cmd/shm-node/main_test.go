package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/witsoft001/esp8266-smart-home/internal/config"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
	"github.com/witsoft001/esp8266-smart-home/internal/logger"
	"github.com/witsoft001/esp8266-smart-home/internal/node"
	"github.com/witsoft001/esp8266-smart-home/internal/rtcstore"
	"github.com/witsoft001/esp8266-smart-home/internal/session"
	"github.com/witsoft001/esp8266-smart-home/internal/settings"
)

type fakeSession struct {
	published map[string]any
}

func (f *fakeSession) Topic(name string) string         { return "shm/test/" + name }
func (f *fakeSession) Commands() <-chan session.Command { return nil }
func (f *fakeSession) Disconnect()                      {}
func (f *fakeSession) ProcessTick()                     {}
func (f *fakeSession) CloseAll()                        {}

func (f *fakeSession) Publish(name string, value any) error {
	f.published[name] = value
	return nil
}

type fakeStore struct {
	saved []rtcstore.State
}

func (f *fakeStore) Load() (*rtcstore.State, error) { return &rtcstore.State{}, nil }
func (f *fakeStore) Close() error                   { return nil }

func (f *fakeStore) Save(state *rtcstore.State) error {
	f.saved = append(f.saved, *state)
	return nil
}

type fakePlatform struct {
	restarts   int
	sleptMicro uint64
	syncServer string
}

func (f *fakePlatform) Restart() error {
	f.restarts++
	return nil
}

func (f *fakePlatform) DeepSleepMicros(us uint64) error {
	f.sleptMicro = us
	return nil
}

func (f *fakePlatform) DelayMillis(uint32) {}

func (f *fakePlatform) SyncTime(_, _ int, server string) {
	f.syncServer = server
}

type testApp struct {
	*app
	sess *fakeSession
	repo *fakeStore
	plat *fakePlatform
}

func newTestApp() *testApp {
	sess := &fakeSession{published: map[string]any{}}
	store := &fakeStore{}
	p := &fakePlatform{}
	state := &rtcstore.State{NodeID: "node1", BootCount: 4, LastBattery: 4.1}
	cache := settings.New(&config.Config{SNTPServer: "pool.ntp.org", Description: "hall"})
	sink := logger.NewSink(io.Discard, true)

	a := &app{
		cfg:     &config.Config{},
		store:   store,
		state:   state,
		cache:   cache,
		sink:    sink,
		session: sess,
		seq:     node.NewSequencer(sess, store, cache, sink, p, state),
	}
	return &testApp{app: a, sess: sess, repo: store, plat: p}
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name     string
		cmd      session.Command
		wantDone bool
		wantCode errors.ErrorCode
		check    func(t *testing.T, ta *testApp)
	}{
		{
			name:     "restart saves state first",
			cmd:      session.Command{Kind: session.CmdRestart},
			wantDone: true,
			wantCode: errors.ErrRestartReturned,
			check: func(t *testing.T, ta *testApp) {
				assert.Equal(t, 1, ta.plat.restarts)
				require.Len(t, ta.repo.saved, 1)
				assert.Equal(t, 4.1, ta.repo.saved[0].LastBattery)
			},
		},
		{
			name: "upgrade to running version is ignored",
			cmd:  session.Command{Kind: session.CmdUpgrade, Arg: version},
			check: func(t *testing.T, ta *testApp) {
				assert.Zero(t, ta.plat.restarts)
				assert.Empty(t, ta.repo.saved)
			},
		},
		{
			name:     "upgrade to another version restarts",
			cmd:      session.Command{Kind: session.CmdUpgrade, Arg: "SHMVER-2.0"},
			wantDone: true,
			wantCode: errors.ErrRestartReturned,
			check: func(t *testing.T, ta *testApp) {
				assert.Equal(t, 1, ta.plat.restarts)
				assert.Len(t, ta.repo.saved, 1)
			},
		},
		{
			name:     "sleep enters deep sleep",
			cmd:      session.Command{Kind: session.CmdSleep, Seconds: 60},
			wantDone: true,
			wantCode: errors.ErrDeepSleepReturned,
			check: func(t *testing.T, ta *testApp) {
				assert.Equal(t, uint64(60_000_000), ta.plat.sleptMicro)
				assert.Equal(t, uint32(1), ta.state.SleepCount)
			},
		},
		{
			name: "sntp updates cache then resyncs",
			cmd:  session.Command{Kind: session.CmdSNTP, Arg: "10.0.0.9"},
			check: func(t *testing.T, ta *testApp) {
				assert.Equal(t, "10.0.0.9", ta.cache.TimeServer())
				assert.Equal(t, "10.0.0.9", ta.plat.syncServer)
			},
		},
		{
			name: "desc updates cache and republishes",
			cmd:  session.Command{Kind: session.CmdDescription, Arg: "kitchen"},
			check: func(t *testing.T, ta *testApp) {
				assert.Equal(t, "kitchen", ta.cache.Description())
				assert.Equal(t, "kitchen", ta.sess.published["desc"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp()

			done, err := ta.handleCommand(tt.cmd)

			assert.Equal(t, tt.wantDone, done)
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.HasCode(err, tt.wantCode))
			}
			tt.check(t, ta)
		})
	}
}
