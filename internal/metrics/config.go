package metrics

import (
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm = 0o755
	defaultDBName  = "metrics.db"
	defaultBackups = "backups"

	// Smallest queue between Record and the flusher
	minPendingCapacity = 64

	DefaultBatchSize    = 30
	DefaultBatchTimeout = 30 * time.Second
)

type Config struct {
	DBPath       string
	BackupDir    string // defaults to a "backups" directory next to DBPath
	BatchSize    int
	BatchTimeout time.Duration
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:       DefaultDBPath(),
		BatchSize:    DefaultBatchSize,
		BatchTimeout: DefaultBatchTimeout,
		Enabled:      false, // Disabled by default
	}
}

// DefaultDBPath returns $XDG_STATE_HOME/runcat/metrics.db, falling back to
// ~/.local/state.
func DefaultDBPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "runcat", defaultDBName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "runcat", defaultDBName)
	}
	return filepath.Join(os.TempDir(), "runcat", defaultDBName)
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate the rest if metrics is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidBatch, struct {
			BatchSize    int
			BatchTimeout time.Duration
		}{
			BatchSize:    c.BatchSize,
			BatchTimeout: c.BatchTimeout,
		})
	}
	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), defaultBackups)
}
