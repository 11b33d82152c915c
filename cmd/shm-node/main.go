package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/witsoft001/esp8266-smart-home/internal/battery"
	"github.com/witsoft001/esp8266-smart-home/internal/config"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
	"github.com/witsoft001/esp8266-smart-home/internal/logger"
	"github.com/witsoft001/esp8266-smart-home/internal/node"
	"github.com/witsoft001/esp8266-smart-home/internal/pid"
	"github.com/witsoft001/esp8266-smart-home/internal/platform"
	"github.com/witsoft001/esp8266-smart-home/internal/rtcstore"
	"github.com/witsoft001/esp8266-smart-home/internal/session"
	"github.com/witsoft001/esp8266-smart-home/internal/settings"
)

const (
	connectTimeout = 10 * time.Second
	uptimeInterval = 5 * time.Second
)

// version is searched for by the server's OTA tooling; set with -ldflags.
var version = "SHMVER-dev"

// nodeSession is the part of the MQTT session the wake cycle drives.
type nodeSession interface {
	Topic(name string) string
	Commands() <-chan session.Command
	Publish(name string, value any) error
	Disconnect()
	ProcessTick()
	CloseAll()
}

type app struct {
	cfg      *config.Config
	store    rtcstore.Repository
	state    *rtcstore.State
	cache    *settings.Cache
	sink     *logger.Sink
	clock    *platform.Clock
	session  nodeSession
	seq      *node.Sequencer
	battery  battery.Reader
	pidPath  string
	debug    bool
	bootTime time.Time
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	a, err := setup(ctx, cfg, level == logger.DebugLevel)
	if err != nil {
		logError(err, "failed to initialize node")
		os.Exit(1)
	}

	if err := a.run(ctx); err != nil {
		if errors.HasCode(err, platform.ErrInterrupted) {
			logger.Info().Msg("Reset cancelled by termination signal")
			a.cleanup()
			return
		}
		logError(err, "node stopped with error")
		a.cleanup()
		os.Exit(1)
	}
	a.cleanup()
}

func logError(err error, msg string) {
	var coded errors.Error
	if errors.As(err, &coded) {
		logger.ErrorWithCode(coded).Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}

func setup(ctx context.Context, cfg *config.Config, debug bool) (_ *app, err error) {
	a := &app{
		cfg:      cfg,
		pidPath:  pid.DefaultPath(),
		debug:    debug,
		bootTime: time.Now(),
		battery:  battery.NewReader(cfg.BatteryVoltage, cfg.BatteryPath),
	}

	if err := pid.Write(a.pidPath); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = pid.Remove(a.pidPath)
			if a.store != nil {
				_ = a.store.Close()
			}
		}
	}()

	store, err := rtcstore.New(rtcstore.Config{DBPath: cfg.StorePath}, logger.Default())
	if err != nil {
		return nil, err
	}
	a.store = store

	if a.state, err = store.Load(); err != nil {
		return nil, err
	}
	if cfg.NodeID != "" {
		a.state.NodeID = cfg.NodeID
	}
	a.state.BootCount++
	if err := store.Save(a.state); err != nil {
		logger.Warn().Err(err).Msg("failed to record boot")
	}

	a.cache = settings.New(cfg)
	a.sink = logger.NewSink(os.Stdout, logger.IsService())
	a.clock = platform.NewClock()

	sess, err := session.New(session.Config{
		Broker: a.cache.Broker(),
		NodeID: a.state.NodeID,
	}, logger.Default())
	if err != nil {
		return nil, err
	}
	a.session = sess

	a.seq = node.NewSequencer(sess, a.store, a.cache, a.sink, platform.NewHost(ctx, a.clock), a.state)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := sess.Connect(connectCtx); err != nil {
		logger.Warn().Err(err).Msg("MQTT unavailable, continuing offline")
	}

	return a, nil
}

// run performs one wake cycle. It returns nil after a clean stop; restart
// and deep sleep only return when the platform failed to reset.
func (a *app) run(ctx context.Context) error {
	a.sink.Log("Node ", a.state.NodeID, " boot #", a.state.BootCount, " version ", version)
	a.seq.ResyncTime()

	if level, err := a.battery.Read(); err != nil {
		logger.Debug().Err(err).Msg("battery level unavailable")
	} else {
		a.state.LastBattery = level
		a.publish("battery", level)
		if err := a.seq.CheckBatteryAndSleep(level); err != nil {
			return err
		}
	}

	a.publish("version", version)
	a.publish("boot_count", a.state.BootCount)
	a.publish("desc", a.cache.Description())

	awake := time.NewTimer(time.Duration(a.cfg.AwakeSeconds) * time.Second)
	defer awake.Stop()
	ticker := time.NewTicker(uptimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.publish("uptime", int(time.Since(a.bootTime).Seconds()))
			a.publish("time", a.clock.Now().Format(time.RFC3339))
		case cmd := <-a.session.Commands():
			if done, err := a.handleCommand(cmd); done {
				return err
			}
		case <-awake.C:
			if a.cfg.Once {
				logger.Info().Msg("Awake window over, exiting")
				return nil
			}
			return a.seq.DeepSleep(a.cfg.SleepSeconds)
		}
	}
}

func (a *app) handleCommand(cmd session.Command) (bool, error) {
	logger.Info().Str("command", cmd.Kind.String()).Str("arg", cmd.Arg).Msg("Command received")
	if a.debug {
		a.seq.HexDump(cmd.Raw)
	}

	switch cmd.Kind {
	case session.CmdRestart:
		a.saveState()
		return true, a.seq.Restart()
	case session.CmdUpgrade:
		if cmd.Arg == version {
			logger.Info().Str("version", version).Msg("Already running requested version")
			return false, nil
		}
		a.saveState()
		return true, a.seq.Restart()
	case session.CmdSleep:
		return true, a.seq.DeepSleep(cmd.Seconds)
	case session.CmdSNTP:
		a.cache.SetTimeServer(cmd.Arg)
		a.seq.ResyncTime()
	case session.CmdDescription:
		a.cache.SetDescription(cmd.Arg)
		a.publish("desc", cmd.Arg)
	}

	return false, nil
}

// saveState persists the retained state ahead of a reset.
func (a *app) saveState() {
	if err := a.store.Save(a.state); err != nil {
		logger.Warn().Err(err).Msg("failed to save retained state before restart")
	}
}

func (a *app) publish(name string, value any) {
	if err := a.session.Publish(name, value); err != nil {
		logger.Debug().Err(err).Str("topic", a.session.Topic(name)).Msg("publish skipped")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
	// A second signal gets the default behaviour and kills the process.
	signal.Stop(sigs)
}

func (a *app) cleanup() {
	a.session.Disconnect()
	a.sink.Stop()

	if err := a.store.Save(a.state); err != nil {
		logger.Error().Err(err).Msg("failed to save retained state")
	}
	if err := a.store.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close retained state store")
	}
	if err := pid.Remove(a.pidPath); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}
