package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    Command
	}{
		{"restart", "restart", "", Command{Kind: CmdRestart}},
		{"upgrade carries version", "upgrade", "SHMVER-0.4.1", Command{Kind: CmdUpgrade, Arg: "SHMVER-0.4.1"}},
		{"sleep seconds", "sleep", "900", Command{Kind: CmdSleep, Seconds: 900}},
		{"sntp address", "sntp", "10.0.0.2\n", Command{Kind: CmdSNTP, Arg: "10.0.0.2"}},
		{"description", "desc", "Garage", Command{Kind: CmdDescription, Arg: "Garage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.topic, []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	_, err := ParseCommand("sleep", []byte("soon"))
	assert.True(t, errors.HasCode(err, ErrInvalidPayload))

	_, err = ParseCommand("sleep", []byte("0"))
	assert.True(t, errors.HasCode(err, ErrInvalidPayload))

	_, err = ParseCommand("sleep", []byte("4294967296"))
	assert.True(t, errors.HasCode(err, ErrInvalidPayload))

	_, err = ParseCommand("sntp", nil)
	assert.True(t, errors.HasCode(err, ErrInvalidPayload))

	_, err = ParseCommand("selfdestruct", nil)
	assert.True(t, errors.HasCode(err, ErrUnknownCommand))
}

func TestCommandKindString(t *testing.T) {
	assert.Equal(t, "sleep", CmdSleep.String())
	assert.Equal(t, "unknown", CommandKind(0).String())
}
