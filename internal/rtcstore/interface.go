package rtcstore

import "time"

// Repository persists the retained state across power cycles.
type Repository interface {
	Load() (*State, error)
	Save(state *State) error
	Close() error
}

// State is what the node keeps across deep sleep and resets.
type State struct {
	NodeID           string
	BootCount        uint32
	SleepCount       uint32
	LastSleepSeconds uint32
	LastBattery      float64
	SavedAt          time.Time
}
