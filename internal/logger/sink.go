package logger

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Sink is the node's diagnostic console. Every Log and Write is flushed to
// the underlying writer before it returns.
type Sink struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	log     zerolog.Logger
	stopped bool
}

// NewSink returns a Sink writing console-formatted lines to out.
func NewSink(out io.Writer, isService bool) *Sink {
	buf := bufio.NewWriter(out)
	console := consoleWriter(buf, isService)
	console.NoColor = true
	console.PartsExclude = []string{zerolog.LevelFieldName}

	return &Sink{
		buf: buf,
		log: zerolog.New(console).With().Timestamp().Logger(),
	}
}

// Log writes its arguments concatenated, without separators.
func (s *Sink) Log(args ...any) {
	var b strings.Builder
	for _, arg := range args {
		fmt.Fprint(&b, arg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	// Level-less so the console is not filtered by the global log level.
	s.log.Log().Msg(b.String())
	s.flush()
}

// Write passes raw bytes through to the console.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return len(p), nil
	}
	n, err := s.buf.Write(p)
	if err != nil {
		return n, err
	}
	return n, s.buf.Flush()
}

// Stop flushes anything still pending. Later writes are dropped.
func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.flush()
	s.stopped = true
}

// flush must be called with s.mu held.
func (s *Sink) flush() {
	if err := s.buf.Flush(); err != nil {
		Debug().Err(err).Msg("Failed to flush diagnostic sink")
	}
}

// Stopped reports whether Stop has been called.
func (s *Sink) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
