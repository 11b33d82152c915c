// Package session is the node's MQTT session. Topics follow the server's
// layout shm/<node_id>/<name>.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
	"github.com/witsoft001/esp8266-smart-home/internal/logger"
)

const (
	topicRoot          = "shm"
	statusOnline       = "online"
	statusOffline      = "offline"
	qos                = 1
	disconnectQuiesce  = 250 // milliseconds
	commandBuffer      = 8
	defaultTickTimeout = 500 * time.Millisecond
)

type Config struct {
	Broker      string
	NodeID      string
	TickTimeout time.Duration
}

type Session struct {
	cfg      Config
	client   mqtt.Client
	log      logger.Logger
	commands chan Command

	mu      sync.Mutex
	pending []mqtt.Token
}

func New(cfg Config, log logger.Logger) (*Session, error) {
	if cfg.Broker == "" || cfg.NodeID == "" {
		return nil, errors.New().WithData(ErrInvalidConfig, "broker and node id are required")
	}

	s := newSession(cfg, nil, log)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("shm-" + cfg.NodeID).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetWill(s.Topic("status"), statusOffline, qos, true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("MQTT connection lost")
		})
	s.client = mqtt.NewClient(opts)

	return s, nil
}

func newSession(cfg Config, client mqtt.Client, log logger.Logger) *Session {
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = defaultTickTimeout
	}
	return &Session{
		cfg:      cfg,
		client:   client,
		log:      log,
		commands: make(chan Command, commandBuffer),
	}
}

// Topic returns the full topic for one of this node's values.
func (s *Session) Topic(name string) string {
	return fmt.Sprintf("%s/%s/%s", topicRoot, s.cfg.NodeID, name)
}

// Commands delivers server requests. Handlers run on paho goroutines, so the
// node reads them here to stay on its own goroutine.
func (s *Session) Commands() <-chan Command {
	return s.commands
}

// Connect connects to the broker, subscribes to commands and announces the
// node as online.
func (s *Session) Connect(ctx context.Context) error {
	errFactory := errors.New()

	if err := waitToken(ctx, s.client.Connect()); err != nil {
		return errFactory.Wrap(ErrConnect, err)
	}

	if err := waitToken(ctx, s.client.Subscribe(s.Topic("cmd/+"), qos, s.handleMessage)); err != nil {
		return errFactory.Wrap(ErrSubscribe, err)
	}

	s.log.Info().Str("broker", s.cfg.Broker).Str("node_id", s.cfg.NodeID).Msg("MQTT session established")

	return s.Publish("status", statusOnline)
}

// Publish sends a retained value. Delivery completes in the background and
// is awaited by ProcessTick.
func (s *Session) Publish(name string, value any) error {
	if !s.client.IsConnected() {
		return errors.New().WithData(ErrPublish, "not connected")
	}

	token := s.client.Publish(s.Topic(name), qos, true, fmt.Sprint(value))

	s.mu.Lock()
	s.pending = append(s.pending, token)
	s.mu.Unlock()

	return nil
}

// ProcessTick waits, bounded by the tick timeout, for outstanding publishes
// and forgets the ones that completed.
func (s *Session) ProcessTick() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var remaining []mqtt.Token
	for _, token := range pending {
		if !token.WaitTimeout(s.cfg.TickTimeout) {
			remaining = append(remaining, token)
			continue
		}
		if err := token.Error(); err != nil {
			s.log.Warn().Err(err).Msg("MQTT publish failed")
		}
	}

	s.mu.Lock()
	s.pending = append(remaining, s.pending...)
	s.mu.Unlock()
}

// Pending returns the number of publishes not yet acknowledged.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Disconnect announces the node offline and ends the session cleanly so the
// broker does not fire the last will.
func (s *Session) Disconnect() {
	if !s.client.IsConnected() {
		return
	}

	token := s.client.Publish(s.Topic("status"), qos, true, statusOffline)
	if !token.WaitTimeout(s.cfg.TickTimeout) {
		s.log.Debug().Msg("Offline status not acknowledged before disconnect")
	}

	s.client.Disconnect(disconnectQuiesce)
}

// CloseAll drops the broker connection without waiting for in-flight work.
func (s *Session) CloseAll() {
	if s.client.IsConnectionOpen() {
		s.client.Disconnect(0)
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *Session) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	name := strings.TrimPrefix(msg.Topic(), s.Topic("cmd/"))

	cmd, err := ParseCommand(name, msg.Payload())
	if err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Ignoring command")
		return
	}
	cmd.Raw = msg.Payload()

	select {
	case s.commands <- cmd:
	default:
		s.log.Warn().Str("command", cmd.Kind.String()).Msg("Command queue full, dropping command")
	}
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return errors.New().Wrap(ErrTimeout, ctx.Err())
	}
}
