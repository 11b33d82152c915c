package rtcstore

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
	"github.com/witsoft001/esp8266-smart-home/internal/logger"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
	now    func() time.Time
}

func New(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}
	// One writer; the node never needs more.
	db.SetMaxOpenConns(1)

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Debug().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("Retained state store opened")

	return &repository{
		db:     db,
		logger: log,
		now:    time.Now,
	}, nil
}

// Load returns the retained state. A store that was never saved yields a
// zero state with a freshly generated node id.
func (r *repository) Load() (*State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		state   State
		savedAt int64
	)
	err := r.db.QueryRow(selectStateSQL).Scan(
		&state.NodeID,
		&state.BootCount,
		&state.SleepCount,
		&state.LastSleepSeconds,
		&state.LastBattery,
		&savedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		fresh := &State{NodeID: uuid.NewString()}
		r.logger.Info().Str("node_id", fresh.NodeID).Msg("No retained state, starting fresh")
		return fresh, nil
	}
	if err != nil {
		return nil, errors.New().Wrap(ErrLoad, err)
	}

	state.SavedAt = time.Unix(0, savedAt)
	return &state, nil
}

// Save persists the state and stamps SavedAt.
func (r *repository) Save(state *State) error {
	errFactory := errors.New()

	if state == nil {
		return errFactory.New(ErrInvalidState)
	}
	if state.NodeID == "" {
		return errFactory.WithData(ErrInvalidState, "empty node id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	savedAt := r.now()
	if _, err := r.db.Exec(upsertStateSQL,
		state.NodeID,
		int64(state.BootCount),
		int64(state.SleepCount),
		int64(state.LastSleepSeconds),
		state.LastBattery,
		savedAt.UnixNano(),
	); err != nil {
		r.logger.Error().Err(err).Msg("Failed to save retained state")
		return errFactory.Wrap(ErrSave, err)
	}
	state.SavedAt = savedAt

	r.logger.Debug().
		Str("node_id", state.NodeID).
		Uint32("boot_count", state.BootCount).
		Uint32("sleep_count", state.SleepCount).
		Msg("Retained state saved")

	return nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	return nil
}
