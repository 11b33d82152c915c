// Package battery reads the node's supply level.
package battery

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/witsoft001/esp8266-smart-home/internal/errors"
)

const (
	voltageFile     = "voltage_now"
	microvoltsPerV  = 1e6
	ErrReadBattery  = errors.ErrReadBattery
	ErrNoBatterySrc = errors.ErrorCode("battery_no_source")
)

type Reader interface {
	Read() (float64, error)
}

// SysfsReader reads a Linux power supply's voltage_now attribute.
type SysfsReader struct {
	Dir string
}

func (r SysfsReader) Read() (float64, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(filepath.Join(r.Dir, voltageFile))
	if err != nil {
		return 0, errFactory.Wrap(ErrReadBattery, err)
	}

	microvolts, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrReadBattery, err)
	}

	return float64(microvolts) / microvoltsPerV, nil
}

// Fixed always reports the same level.
type Fixed float64

func (f Fixed) Read() (float64, error) {
	return float64(f), nil
}

type none struct{}

func (none) Read() (float64, error) {
	return 0, errors.New().New(ErrNoBatterySrc)
}

// NewReader picks a fixed value over a sysfs path. With neither configured
// every read fails and the battery guard is skipped.
func NewReader(fixed float64, dir string) Reader {
	switch {
	case fixed != 0:
		return Fixed(fixed)
	case dir != "":
		return SysfsReader{Dir: dir}
	default:
		return none{}
	}
}
