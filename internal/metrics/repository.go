package metrics

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/logger"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/atomic"
)

// repository buffers snapshots on a channel so Record never waits for the
// database. A single flusher goroutine owns the batch and performs every
// write.
type repository struct {
	db            *sql.DB
	logger        logger.Logger
	cfg           Config
	pending       chan *MetricsSnapshot
	buffer        []*MetricsSnapshot
	dropped       *atomic.Uint64
	closed        *atomic.Bool
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
	closeOnce     sync.Once
}

func NewRepository(cfg Config, log logger.Logger) (MetricsRepository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
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

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
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

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Dur("batch_timeout", cfg.BatchTimeout).
		Msg("Metrics repository initialized")

	repo := &repository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		pending:       make(chan *MetricsSnapshot, pendingCapacity(cfg.BatchSize)),
		buffer:        make([]*MetricsSnapshot, 0, cfg.BatchSize),
		dropped:       atomic.NewUint64(0),
		closed:        atomic.NewBool(false),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}
	go repo.flusher()

	return repo, nil
}

func pendingCapacity(batchSize int) int {
	return max(minPendingCapacity, 2*batchSize)
}

// Record queues snapshot for the flusher. It never blocks: when the queue is
// full the snapshot is dropped and counted.
func (r *repository) Record(snapshot *MetricsSnapshot) error {
	if r.closed.Load() {
		return errors.New().New(ErrStorageClose)
	}

	select {
	case r.pending <- snapshot:
	default:
		if n := r.dropped.Inc(); n == 1 || n%100 == 0 {
			r.logger.Warn().Uint64("dropped", n).Msg("Metrics queue full, dropping samples")
		}
	}

	return nil
}

// Dropped returns how many snapshots were discarded because the queue was full.
func (r *repository) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *repository) Close() error {
	var closeErr error

	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.shutdownChan)

		// Wait for the flusher to drain the queue and write the last batch
		<-r.flushDoneChan

		if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			closeErr = errors.New().WithData(ErrStorageClose, struct {
				Phase string
				Error string
			}{
				Phase: "checkpoint_wal",
				Error: err.Error(),
			})
			r.db.Close()
			return
		}

		if err := r.db.Close(); err != nil {
			closeErr = errors.New().WithData(ErrStorageClose, struct {
				Phase string
				Error string
			}{
				Phase: "close_database",
				Error: err.Error(),
			})
			return
		}

		r.logger.Info().Msg("Metrics repository closed gracefully")
	})

	return closeErr
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	var tick <-chan time.Time
	if r.cfg.BatchTimeout > 0 {
		ticker := time.NewTicker(r.cfg.BatchTimeout)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case snapshot := <-r.pending:
			r.buffer = append(r.buffer, snapshot)
			if len(r.buffer) >= r.cfg.BatchSize {
				r.flush()
			}
		case <-tick:
			r.flush()
		case <-r.shutdownChan:
			r.drain()
			return
		}
	}
}

// drain moves everything still queued into the batch and writes it.
func (r *repository) drain() {
	for {
		select {
		case snapshot := <-r.pending:
			r.buffer = append(r.buffer, snapshot)
		default:
			if err := r.flush(); err != nil {
				r.logger.Warn().Err(err).Msg("Dropping unflushed samples")
			}
			return
		}
	}
}

// flush writes the buffer in a single transaction. The buffer is emptied
// even when the write fails. Only the flusher goroutine calls it.
func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}
	defer func() { r.buffer = r.buffer[:0] }()

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to begin transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertSampleSQL)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, snapshot := range r.buffer {
		if _, err := stmt.Exec(
			snapshot.Timestamp.UnixMilli(),
			snapshot.CPUPercent,
			int64(snapshot.DelayMs),
		); err != nil {
			r.logger.Error().Err(err).Msg("Failed to execute insert")
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to commit transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	r.logger.Debug().Int("records", len(r.buffer)).Msg("Flushed samples to database")

	return nil
}
