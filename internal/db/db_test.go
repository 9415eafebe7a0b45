package db

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mmwave/internal/radar"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB creates a migrated database in a temp dir.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "mmwave.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPragmasApplied(t *testing.T) {
	db := setupTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestEmbeddedMigrationsFS(t *testing.T) {
	migFS, err := getMigrationsFS()
	require.NoError(t, err)
	entries, err := fs.ReadDir(migFS, ".")
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestMigrations(t *testing.T) {
	db := setupTestDB(t)
	migFS, err := getMigrationsFS()
	require.NoError(t, err)

	version, dirty, err := db.MigrateVersion(migFS)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// already at latest
	require.NoError(t, db.MigrateUp(migFS))

	require.NoError(t, db.MigrateDown(migFS))
	version, _, err = db.MigrateVersion(migFS)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='readings'`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, db.MigrateUp(migFS))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='readings'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	product := radar.ProductInfo{Model: "MR24HPB1", Firmware: "V010309"}

	first, err := db.StartSession(ctx, "/dev/ttyACM0", radar.ModeSimple, product, t0)
	require.NoError(t, err)
	second, err := db.StartSession(ctx, "/dev/ttyACM0", radar.ModeAdvanced, product, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	sessions, err := db.Sessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second, sessions[0])
	assert.Equal(t, first, sessions[1])

	latest, err := db.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestRecordSnapshot_RequiresSession(t *testing.T) {
	db := setupTestDB(t)
	err := db.RecordSnapshot(context.Background(), "missing", radar.Snapshot{}, t0)
	assert.Error(t, err)
}

func TestReadingsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s, err := db.StartSession(ctx, "sim", radar.ModeAdvanced, radar.ProductInfo{}, t0)
	require.NoError(t, err)

	snap := radar.Snapshot{
		Mode:             radar.ModeAdvanced,
		Presence:         radar.Occupied,
		Motion:           radar.MotionActive,
		Activity:         40,
		Direction:        radar.Approaching,
		StaticEnergy:     3,
		MotionEnergy:     90,
		StaticDistanceCM: 100,
		MotionDistanceCM: 250,
		MotionSpeedMPS:   -1.5,
		Heartbeats:       7,
		Frames:           120,
		UpdatedAt:        t0.Add(time.Second),
	}
	require.NoError(t, db.RecordSnapshot(ctx, s.ID, snap, t0))
	// a snapshot that was never updated is stamped with now
	require.NoError(t, db.RecordSnapshot(ctx, s.ID, radar.Snapshot{}, t0.Add(2*time.Second)))

	readings, err := db.Readings(ctx, s.ID, 10)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	want := Reading{
		SessionID:        s.ID,
		RecordedAt:       t0.Add(time.Second),
		Mode:             radar.ModeAdvanced,
		Presence:         radar.Occupied,
		Motion:           radar.MotionActive,
		Activity:         40,
		Direction:        radar.Approaching,
		StaticEnergy:     3,
		MotionEnergy:     90,
		StaticDistanceCM: 100,
		MotionDistanceCM: 250,
		MotionSpeedMPS:   -1.5,
		Heartbeats:       7,
		Frames:           120,
	}
	assert.Equal(t, want, readings[0])
	assert.Equal(t, t0.Add(2*time.Second), readings[1].RecordedAt)
	assert.Equal(t, radar.Unoccupied, readings[1].Presence)
}

func TestSummarise(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s, err := db.StartSession(ctx, "sim", radar.ModeAdvanced, radar.ProductInfo{}, t0)
	require.NoError(t, err)

	_, err = db.Summarise(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNoReadings)

	snaps := []radar.Snapshot{
		{Presence: radar.Occupied, Motion: radar.MotionActive, Activity: 10, MotionDistanceCM: 100, MotionSpeedMPS: 1},
		{Presence: radar.Occupied, Motion: radar.MotionActive, Activity: 30, MotionDistanceCM: 300, MotionSpeedMPS: -1},
		{Presence: radar.Occupied, Motion: radar.MotionStatic, Activity: 20, MotionDistanceCM: 200, MotionSpeedMPS: 0},
		{Presence: radar.Unoccupied, Motion: radar.MotionNone, Activity: 0, MotionDistanceCM: 999, MotionSpeedMPS: 9},
	}
	for i, snap := range snaps {
		require.NoError(t, db.RecordSnapshot(ctx, s.ID, snap, t0.Add(time.Duration(i)*time.Second)))
	}

	sum, err := db.Summarise(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Count)
	assert.Equal(t, t0, sum.First)
	assert.Equal(t, t0.Add(3*time.Second), sum.Last)
	assert.InDelta(t, 0.75, sum.OccupiedFraction, 1e-9)
	assert.InDelta(t, 15.0, sum.ActivityMean, 1e-9)
	// motion statistics skip the empty-room reading
	assert.InDelta(t, 200.0, sum.MotionDistanceMeanCM, 1e-9)
	assert.InDelta(t, 100.0, sum.MotionDistanceStdDevCM, 1e-9)
	assert.InDelta(t, 0.0, sum.SpeedMeanMPS, 1e-9)
	assert.InDelta(t, 1.0, sum.SpeedStdDevMPS, 1e-9)
}

func TestMeanStdDev(t *testing.T) {
	m, s := meanStdDev(nil)
	assert.Zero(t, m)
	assert.Zero(t, s)

	m, s = meanStdDev([]float64{4})
	assert.Equal(t, 4.0, m)
	assert.Zero(t, s)
}
