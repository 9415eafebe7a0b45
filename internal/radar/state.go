package radar

import (
	"fmt"
	"sync"
	"time"
)

// Presence is the occupancy report.
type Presence uint8

const (
	Unoccupied Presence = 0x00
	Occupied   Presence = 0x01
)

func (p Presence) String() string {
	switch p {
	case Unoccupied:
		return "unoccupied"
	case Occupied:
		return "occupied"
	}
	return fmt.Sprintf("presence(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Presence) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Motion is the movement classification.
type Motion uint8

const (
	MotionNone   Motion = 0x00
	MotionStatic Motion = 0x01
	MotionActive Motion = 0x02
)

func (m Motion) String() string {
	switch m {
	case MotionNone:
		return "none"
	case MotionStatic:
		return "static"
	case MotionActive:
		return "active"
	}
	return fmt.Sprintf("motion(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Motion) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Direction is the movement trend relative to the sensor.
type Direction uint8

const (
	DirectionNone Direction = 0x00
	Approaching   Direction = 0x01
	Receding      Direction = 0x02
)

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case Approaching:
		return "approaching"
	case Receding:
		return "receding"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Scene is the Simple mode installation profile.
type Scene uint8

const (
	SceneUnset         Scene = 0x00
	SceneLivingRoom    Scene = 0x01
	SceneBedroom       Scene = 0x02
	SceneBathroom      Scene = 0x03
	SceneAreaDetection Scene = 0x04
)

func (s Scene) String() string {
	switch s {
	case SceneUnset:
		return "unset"
	case SceneLivingRoom:
		return "living_room"
	case SceneBedroom:
		return "bedroom"
	case SceneBathroom:
		return "bathroom"
	case SceneAreaDetection:
		return "area_detection"
	}
	return fmt.Sprintf("scene(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Scene) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// AbsenceTime is the Simple mode delay before reporting an empty room.
type AbsenceTime uint8

const (
	AbsenceNone AbsenceTime = iota
	Absence10s
	Absence30s
	Absence1m
	Absence2m
	Absence5m
	Absence10m
	Absence30m
	Absence60m
)

var absenceDurations = [...]time.Duration{
	AbsenceNone: 0,
	Absence10s:  10 * time.Second,
	Absence30s:  30 * time.Second,
	Absence1m:   time.Minute,
	Absence2m:   2 * time.Minute,
	Absence5m:   5 * time.Minute,
	Absence10m:  10 * time.Minute,
	Absence30m:  30 * time.Minute,
	Absence60m:  time.Hour,
}

// Duration returns the delay the setting stands for, or 0 if unknown.
func (a AbsenceTime) Duration() time.Duration {
	if int(a) >= len(absenceDurations) {
		return 0
	}
	return absenceDurations[a]
}

func (a AbsenceTime) String() string {
	if a == AbsenceNone {
		return "none"
	}
	if int(a) >= len(absenceDurations) {
		return fmt.Sprintf("absence(%d)", uint8(a))
	}
	return a.Duration().String()
}

// MarshalText implements encoding.TextMarshaler.
func (a AbsenceTime) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ProductInfo holds the identification strings reported under control word
// 0x02.
type ProductInfo struct {
	Model    string `json:"model"`
	ID       string `json:"id"`
	Hardware string `json:"hardware"`
	Firmware string `json:"firmware"`
}

// Snapshot is a consistent copy of every decoded field.
type Snapshot struct {
	Mode       Mode   `json:"mode"`
	Heartbeats uint64 `json:"heartbeats"`

	Presence  Presence  `json:"presence"`
	Motion    Motion    `json:"motion"`
	Activity  uint8     `json:"activity"`
	Direction Direction `json:"direction"`

	StaticEnergy     uint8   `json:"static_energy"`
	MotionEnergy     uint8   `json:"motion_energy"`
	StaticDistanceCM int     `json:"static_distance_cm"`
	MotionDistanceCM int     `json:"motion_distance_cm"`
	MotionSpeedMPS   float64 `json:"motion_speed_mps"`

	StaticThreshold  uint8 `json:"static_threshold"`
	MotionThreshold  uint8 `json:"motion_threshold"`
	StaticBoundaryCM int   `json:"static_boundary_cm"`
	MotionBoundaryCM int   `json:"motion_boundary_cm"`

	AbsenceTriggerMS uint32 `json:"absence_trigger_ms"`
	MotionTriggerMS  uint32 `json:"motion_trigger_ms"`
	MotionToStillMS  uint32 `json:"motion_to_still_ms"`

	CustomMode           uint8       `json:"custom_mode"`
	InitializationStatus uint8       `json:"initialization_status"`
	Scene                Scene       `json:"scene"`
	Sensitivity          uint8       `json:"sensitivity"`
	AbsenceTime          AbsenceTime `json:"absence_time"`

	Product ProductInfo `json:"product"`

	// Frames counts every accepted frame, decoded or not.
	Frames    uint64    `json:"frames"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Initialized reports whether the sensor announced that its initialization
// completed.
func (s Snapshot) Initialized() bool {
	return s.InitializationStatus == 0x01
}

// State holds the latest decoded readings. Writers go through update;
// readers take copies with Snapshot.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewState returns a State with zero/unknown readings in Simple mode.
func NewState() *State {
	return &State{}
}

// Snapshot returns a copy of the current readings.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
}
