package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/mmwave/internal/radar"
)

// Session describes one daemon run against one sensor.
type Session struct {
	ID        string            `json:"session_id"`
	StartedAt time.Time         `json:"started_at"`
	Port      string            `json:"port"`
	Mode      radar.Mode        `json:"mode"`
	Product   radar.ProductInfo `json:"product"`
}

// StartSession creates a session with a fresh id.
func (db *DB) StartSession(ctx context.Context, port string, mode radar.Mode, product radar.ProductInfo, now time.Time) (Session, error) {
	s := Session{
		ID:        uuid.NewString(),
		StartedAt: now.UTC(),
		Port:      port,
		Mode:      mode,
		Product:   product,
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, started_at, port, mode, model, product_id, hardware, firmware)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.StartedAt.UnixMilli(), s.Port, s.Mode.String(),
		product.Model, product.ID, product.Hardware, product.Firmware,
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to start session: %w", err)
	}
	return s, nil
}

// Sessions lists sessions, newest first.
func (db *DB) Sessions(ctx context.Context, limit int) ([]Session, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT session_id, started_at, port, mode, model, product_id, hardware, firmware
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s       Session
			started int64
			mode    string
		)
		if err := rows.Scan(&s.ID, &started, &s.Port, &mode,
			&s.Product.Model, &s.Product.ID, &s.Product.Hardware, &s.Product.Firmware); err != nil {
			return nil, err
		}
		s.StartedAt = time.UnixMilli(started).UTC()
		if s.Mode, err = radar.ParseMode(mode); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Reading is one stored snapshot.
type Reading struct {
	SessionID        string          `json:"session_id"`
	RecordedAt       time.Time       `json:"recorded_at"`
	Mode             radar.Mode      `json:"mode"`
	Presence         radar.Presence  `json:"presence"`
	Motion           radar.Motion    `json:"motion"`
	Activity         uint8           `json:"activity"`
	Direction        radar.Direction `json:"direction"`
	StaticEnergy     uint8           `json:"static_energy"`
	MotionEnergy     uint8           `json:"motion_energy"`
	StaticDistanceCM int             `json:"static_distance_cm"`
	MotionDistanceCM int             `json:"motion_distance_cm"`
	MotionSpeedMPS   float64         `json:"motion_speed_mps"`
	Heartbeats       uint64          `json:"heartbeats"`
	Frames           uint64          `json:"frames"`
}

// RecordSnapshot stores s under sessionID. The reading is stamped with the
// snapshot's update time, or now if the snapshot was never updated.
func (db *DB) RecordSnapshot(ctx context.Context, sessionID string, s radar.Snapshot, now time.Time) error {
	at := s.UpdatedAt
	if at.IsZero() {
		at = now
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO readings (
			session_id, recorded_at, mode, presence, motion, activity, direction,
			static_energy, motion_energy, static_distance_cm, motion_distance_cm,
			motion_speed_mps, heartbeats, frames
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, at.UnixMilli(), s.Mode.String(), int(s.Presence), int(s.Motion),
		int(s.Activity), int(s.Direction), int(s.StaticEnergy), int(s.MotionEnergy),
		s.StaticDistanceCM, s.MotionDistanceCM, s.MotionSpeedMPS,
		int64(s.Heartbeats), int64(s.Frames),
	)
	if err != nil {
		return fmt.Errorf("failed to record reading: %w", err)
	}
	return nil
}

// Readings returns up to limit readings for sessionID, oldest first.
func (db *DB) Readings(ctx context.Context, sessionID string, limit int) ([]Reading, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT session_id, recorded_at, mode, presence, motion, activity, direction,
			static_energy, motion_energy, static_distance_cm, motion_distance_cm,
			motion_speed_mps, heartbeats, frames
		 FROM readings WHERE session_id = ? ORDER BY recorded_at, reading_id LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var (
			r                                     Reading
			at                                    int64
			mode                                  string
			presence, motion, activity, direction int
			staticEnergy, motionEnergy            int
			heartbeats, frames                    int64
		)
		if err := rows.Scan(&r.SessionID, &at, &mode, &presence, &motion, &activity, &direction,
			&staticEnergy, &motionEnergy, &r.StaticDistanceCM, &r.MotionDistanceCM,
			&r.MotionSpeedMPS, &heartbeats, &frames); err != nil {
			return nil, err
		}
		r.RecordedAt = time.UnixMilli(at).UTC()
		if r.Mode, err = radar.ParseMode(mode); err != nil {
			return nil, err
		}
		r.Presence = radar.Presence(presence)
		r.Motion = radar.Motion(motion)
		r.Activity = uint8(activity)
		r.Direction = radar.Direction(direction)
		r.StaticEnergy = uint8(staticEnergy)
		r.MotionEnergy = uint8(motionEnergy)
		r.Heartbeats = uint64(heartbeats)
		r.Frames = uint64(frames)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// ErrNoReadings is returned by Summarise for a session with nothing stored.
var ErrNoReadings = errors.New("no readings")

// Summary aggregates a session's readings.
type Summary struct {
	SessionID        string    `json:"session_id"`
	Count            int       `json:"count"`
	First            time.Time `json:"first"`
	Last             time.Time `json:"last"`
	OccupiedFraction float64   `json:"occupied_fraction"`
	ActivityMean     float64   `json:"activity_mean"`
	ActivityStdDev   float64   `json:"activity_stddev"`
	// Distance and speed statistics cover readings with motion only.
	MotionDistanceMeanCM   float64 `json:"motion_distance_mean_cm"`
	MotionDistanceStdDevCM float64 `json:"motion_distance_stddev_cm"`
	SpeedMeanMPS           float64 `json:"speed_mean_mps"`
	SpeedStdDevMPS         float64 `json:"speed_stddev_mps"`
}

// Summarise computes occupancy and motion statistics for sessionID.
func (db *DB) Summarise(ctx context.Context, sessionID string) (Summary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT recorded_at, presence, motion, activity, motion_distance_cm, motion_speed_mps
		 FROM readings WHERE session_id = ? ORDER BY recorded_at, reading_id`, sessionID)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	sum := Summary{SessionID: sessionID}
	var (
		occupied  int
		activity  []float64
		distances []float64
		speeds    []float64
	)
	for rows.Next() {
		var (
			at                    int64
			presence, motion, act int
			distance              int
			speed                 float64
		)
		if err := rows.Scan(&at, &presence, &motion, &act, &distance, &speed); err != nil {
			return Summary{}, err
		}
		t := time.UnixMilli(at).UTC()
		if sum.Count == 0 {
			sum.First = t
		}
		sum.Last = t
		sum.Count++
		if radar.Presence(presence) == radar.Occupied {
			occupied++
		}
		activity = append(activity, float64(act))
		if radar.Motion(motion) != radar.MotionNone {
			distances = append(distances, float64(distance))
			speeds = append(speeds, speed)
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}
	if sum.Count == 0 {
		return sum, fmt.Errorf("%w for session %s", ErrNoReadings, sessionID)
	}

	sum.OccupiedFraction = float64(occupied) / float64(sum.Count)
	sum.ActivityMean, sum.ActivityStdDev = meanStdDev(activity)
	sum.MotionDistanceMeanCM, sum.MotionDistanceStdDevCM = meanStdDev(distances)
	sum.SpeedMeanMPS, sum.SpeedStdDevMPS = meanStdDev(speeds)
	return sum, nil
}

// meanStdDev returns the mean and sample standard deviation; fewer than two
// values have no spread.
func meanStdDev(x []float64) (mean, std float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// LatestSession returns the most recently started session.
func (db *DB) LatestSession(ctx context.Context) (Session, error) {
	sessions, err := db.Sessions(ctx, 1)
	if err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, sql.ErrNoRows
	}
	return sessions[0], nil
}
