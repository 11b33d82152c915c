package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/witsoft001/esp8266-smart-home/internal/logger"
)

func TestSinkConcatenatesAndFlushesEachLog(t *testing.T) {
	var out bytes.Buffer
	sink := logger.NewSink(&out, true)

	sink.Log("Node ", "n1", " boot #", 3)
	assert.Contains(t, out.String(), "Node n1 boot #3")

	sink.Log("Going to sleep for ", uint32(600), " seconds")
	assert.Contains(t, out.String(), "Going to sleep for 600 seconds")

	before := out.Len()
	sink.Stop()
	assert.Equal(t, before, out.Len())
	assert.True(t, sink.Stopped())
}

func TestSinkDropsOutputAfterStop(t *testing.T) {
	var out bytes.Buffer
	sink := logger.NewSink(&out, true)
	sink.Stop()

	sink.Log("Restarting")
	n, err := sink.Write([]byte("41 00 7F\n"))

	assert.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Empty(t, out.String())

	sink.Stop()
}

func TestSinkRawWrite(t *testing.T) {
	var out bytes.Buffer
	sink := logger.NewSink(&out, true)

	_, err := sink.Write([]byte("raw line\n"))
	assert.NoError(t, err)
	assert.Equal(t, "raw line\n", out.String())

	sink.Stop()
	assert.Equal(t, "raw line\n", out.String())
}

func TestParseLevel(t *testing.T) {
	level, ok := logger.ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, logger.DebugLevel, level)

	level, ok = logger.ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, logger.WarnLevel, level)

	_, ok = logger.ParseLevel("loud")
	assert.False(t, ok)
}

func TestNewWritesStructuredLines(t *testing.T) {
	var out bytes.Buffer
	log := logger.New(&out)

	log.Info().Str("node_id", "node1").Msg("Retained state saved")

	assert.Contains(t, out.String(), `"node_id":"node1"`)
	assert.Contains(t, out.String(), `"message":"Retained state saved"`)
}
