package metrics

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/latest"
	"codeberg.org/mutker/runcat/internal/logger"
	"codeberg.org/mutker/runcat/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	return Config{
		DBPath:       filepath.Join(t.TempDir(), "metrics.db"),
		BatchSize:    2,
		BatchTimeout: time.Hour,
		Enabled:      true,
	}
}

func countSamples(t *testing.T, path string) int {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&n))
	return n
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate(), "disabled config is always valid")

	err := Config{Enabled: true}.Validate()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidDBPath))

	err = Config{Enabled: true, DBPath: "x.db", BatchSize: -1}.Validate()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidBatch))
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, "/state/runcat/metrics.db", DefaultDBPath())

	cfg := Config{DBPath: "/var/lib/runcat/metrics.db"}
	assert.Equal(t, "/var/lib/runcat/backups", cfg.backupDir())
}

func TestNewServiceDisabled(t *testing.T) {
	c, err := NewService(DefaultConfig(), logger.WithComponent("metrics"))
	require.NoError(t, err)

	assert.IsType(t, &noopMetricsCollector{}, c)
	assert.NoError(t, c.Record(context.Background(), &MetricsSnapshot{}))
	assert.NoError(t, c.Close())
}

func TestServiceRecordsInBatches(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewService(cfg, logger.WithComponent("metrics"))
	require.NoError(t, err)

	start := time.UnixMilli(1_700_000_000_000)
	for i := 0; i < 3; i++ {
		err := c.Record(context.Background(), &MetricsSnapshot{
			Timestamp:  start.Add(time.Duration(i) * time.Second),
			CPUPercent: float64(i * 10),
			DelayMs:    200,
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return countSamples(t, cfg.DBPath) == 2 },
		5*time.Second, 10*time.Millisecond, "first batch flushed")

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")
	assert.Equal(t, 3, countSamples(t, cfg.DBPath), "remainder flushed on close")
}

func TestServiceRecordRejectsNil(t *testing.T) {
	c, err := NewService(testConfig(t), logger.WithComponent("metrics"))
	require.NoError(t, err)
	defer c.Close()

	err = c.Record(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidMetrics))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Record(ctx, &MetricsSnapshot{Timestamp: time.Now(), DelayMs: 200})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrOperationTimeout))
}

func TestRecorderStoresDelay(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	c, err := NewService(cfg, logger.WithComponent("metrics"))
	require.NoError(t, err)

	observe := Recorder(c, logger.WithComponent("metrics"))
	observe(sampler.Sample{Percent: 50, At: time.UnixMilli(1_700_000_000_000)})
	require.NoError(t, c.Close())

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var (
		ts    int64
		cpu   float64
		delay int64
	)
	require.NoError(t, db.QueryRow("SELECT timestamp, cpu_percent, delay_ms FROM samples").Scan(&ts, &cpu, &delay))
	assert.Equal(t, int64(1_700_000_000_000), ts)
	assert.InDelta(t, 50.0, cpu, 0.001)
	assert.Equal(t, int64(20), delay)
}

func TestRecordDoesNotWaitForLockedDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	c, err := NewService(cfg, logger.WithComponent("metrics"))
	require.NoError(t, err)

	// Hold the write lock from a second connection.
	other, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer other.Close()

	ctx := context.Background()
	conn, err := other.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, "BEGIN EXCLUSIVE")
	require.NoError(t, err)

	s, err := sampler.New(&sampler.FakeReader{Values: []float64{40}}, latest.New[float64](), sampler.DefaultConfig(),
		sampler.WithObserver(Recorder(c, logger.WithComponent("metrics"))))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		start := time.Now()
		require.NoError(t, s.SampleOnce(ctx))
		assert.Less(t, time.Since(start), 100*time.Millisecond, "sampling waited for the database")
	}

	_, err = conn.ExecContext(ctx, "ROLLBACK")
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestRecordDropsWhenQueueIsFull(t *testing.T) {
	// No flusher runs, so nothing leaves the queue.
	r := &repository{
		logger:  logger.WithComponent("metrics"),
		pending: make(chan *MetricsSnapshot, 2),
		dropped: atomic.NewUint64(0),
		closed:  atomic.NewBool(false),
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(&MetricsSnapshot{Timestamp: time.Now(), DelayMs: 200}))
	}

	assert.Len(t, r.pending, 2)
	assert.Equal(t, uint64(3), r.Dropped())

	r.closed.Store(true)
	err := r.Record(&MetricsSnapshot{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrStorageClose))
}

func TestSchemaMismatchBacksUpAndRecreates(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackupDir = filepath.Join(t.TempDir(), "backups")

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`
	    CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
	    INSERT INTO schema_versions (version, applied_at) VALUES (99, datetime('now'));
	    CREATE TABLE samples (timestamp INTEGER PRIMARY KEY);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewRepository(cfg, logger.WithComponent("metrics"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	backups, err := os.ReadDir(cfg.BackupDir)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Contains(t, backups[0].Name(), "metrics_v99_")

	db, err = sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestNewRepositoryRequiresPath(t *testing.T) {
	_, err := NewRepository(Config{Enabled: true}, logger.WithComponent("metrics"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidDBPath))
}
