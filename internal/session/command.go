package session

import (
	"strconv"
	"strings"

	"github.com/witsoft001/esp8266-smart-home/internal/errors"
)

type CommandKind int

const (
	CmdRestart CommandKind = iota + 1
	CmdUpgrade
	CmdSleep
	CmdSNTP
	CmdDescription
)

func (k CommandKind) String() string {
	switch k {
	case CmdRestart:
		return "restart"
	case CmdUpgrade:
		return "upgrade"
	case CmdSleep:
		return "sleep"
	case CmdSNTP:
		return "sntp"
	case CmdDescription:
		return "desc"
	default:
		return "unknown"
	}
}

// Command is a server request delivered to the node's main loop.
type Command struct {
	Kind    CommandKind
	Arg     string
	Seconds uint32
	Raw     []byte
}

// ParseCommand decodes a message received on <prefix>/cmd/<name>.
func ParseCommand(name string, payload []byte) (Command, error) {
	errFactory := errors.New()
	arg := strings.TrimSpace(string(payload))

	switch name {
	case "restart":
		return Command{Kind: CmdRestart}, nil
	case "upgrade":
		return Command{Kind: CmdUpgrade, Arg: arg}, nil
	case "sleep":
		seconds, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return Command{}, errFactory.Wrap(ErrInvalidPayload, err)
		}
		if seconds == 0 {
			return Command{}, errFactory.WithData(ErrInvalidPayload, "sleep seconds must be positive")
		}
		return Command{Kind: CmdSleep, Seconds: uint32(seconds)}, nil
	case "sntp":
		if arg == "" {
			return Command{}, errFactory.WithData(ErrInvalidPayload, "empty sntp address")
		}
		return Command{Kind: CmdSNTP, Arg: arg}, nil
	case "desc":
		return Command{Kind: CmdDescription, Arg: arg}, nil
	default:
		return Command{}, errFactory.WithData(ErrUnknownCommand, name)
	}
}
