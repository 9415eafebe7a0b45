package radar

import (
	"fmt"
	"sort"

	"github.com/banshee-data/mmwave/internal/protocol"
)

// Op names a catalog query.
type Op string

const (
	OpHeartbeat        Op = "heartbeat"
	OpModel            Op = "model"
	OpProductID        Op = "product_id"
	OpHardware         Op = "hardware"
	OpFirmware         Op = "firmware"
	OpInitStatus       Op = "init_status"
	OpScene            Op = "scene"
	OpSensitivity      Op = "sensitivity"
	OpCustomMode       Op = "custom_mode"
	OpOutputSwitch     Op = "output_switch"
	OpPresence         Op = "presence"
	OpMotion           Op = "motion"
	OpActivity         Op = "activity"
	OpDirection        Op = "direction"
	OpAbsenceTime      Op = "absence_time"
	OpStaticEnergy     Op = "static_energy"
	OpStaticDistance   Op = "static_distance"
	OpMotionEnergy     Op = "motion_energy"
	OpMotionDistance   Op = "motion_distance"
	OpMotionSpeed      Op = "motion_speed"
	OpStaticThreshold  Op = "static_threshold"
	OpMotionThreshold  Op = "motion_threshold"
	OpStaticBoundary   Op = "static_boundary"
	OpMotionBoundary   Op = "motion_boundary"
	OpMotionTrigger    Op = "motion_trigger"
	OpMotionToStill    Op = "motion_to_still"
	OpAbsenceTrigger   Op = "absence_trigger"
	OpReset            Op = "reset"
	OpSetMode          Op = "set_mode"
	OpSetScene         Op = "set_scene"
	OpSetSensitivity   Op = "set_sensitivity"
	OpSetAbsenceTime   Op = "set_absence_time"
	OpCustomModeStart  Op = "custom_mode_start"
	OpCustomModeEnd    Op = "custom_mode_end"
	OpSetStaticThresh  Op = "set_static_threshold"
	OpSetMotionThresh  Op = "set_motion_threshold"
	OpSetStaticBound   Op = "set_static_boundary"
	OpSetMotionBound   Op = "set_motion_boundary"
	OpSetMotionTrigger Op = "set_motion_trigger"
	OpSetMotionToStill Op = "set_motion_to_still"
	OpSetAbsenceTrig   Op = "set_absence_trigger"
)

// Command is one outgoing frame selected from the catalog.
type Command struct {
	Op      Op
	Control byte
	Command byte
	Payload []byte
}

// Key returns the command's (control, command) pair.
func (c Command) Key() protocol.Key {
	return protocol.Key{Control: c.Control, Command: c.Command}
}

// Bytes encodes the command frame.
func (c Command) Bytes() ([]byte, error) {
	return protocol.Build(c.Control, c.Command, c.Payload)
}

func (c Command) String() string {
	return fmt.Sprintf("%s %s % X", c.Op, c.Key(), c.Payload)
}

// queryTemplate is a (control, command) pair for a query in one mode.
type queryTemplate struct {
	control, command byte
}

// queryEntry holds the per-mode templates of a query. A nil template means
// the query does not exist in that mode.
type queryEntry struct {
	simple, advanced *queryTemplate
}

func both(control, command byte) queryEntry {
	t := &queryTemplate{control, command}
	return queryEntry{simple: t, advanced: t}
}

func simpleQuery(control, command byte) queryEntry {
	return queryEntry{simple: &queryTemplate{control, command}}
}

func advancedQuery(control, command byte) queryEntry {
	return queryEntry{advanced: &queryTemplate{control, command}}
}

var queries = map[Op]queryEntry{
	OpHeartbeat:    both(CtrlSystem, 0x01),
	OpModel:        both(CtrlProduct, 0xA1),
	OpProductID:    both(CtrlProduct, 0xA2),
	OpHardware:     both(CtrlProduct, 0xA3),
	OpFirmware:     both(CtrlProduct, 0xA4),
	OpInitStatus:   both(CtrlOperation, 0x81),
	OpScene:        simpleQuery(CtrlOperation, 0x87),
	OpSensitivity:  simpleQuery(CtrlOperation, 0x88),
	OpCustomMode:   both(CtrlOperation, 0x89),
	OpOutputSwitch: both(CtrlParams, 0x80),
	OpPresence:     both(CtrlPresence, 0x81),
	OpMotion:       both(CtrlPresence, 0x82),
	OpActivity: {
		simple:   &queryTemplate{CtrlPresence, 0x83},
		advanced: &queryTemplate{CtrlParams, 0x87},
	},
	OpDirection: {
		simple:   &queryTemplate{CtrlPresence, 0x8B},
		advanced: &queryTemplate{CtrlParams, 0x86},
	},
	OpAbsenceTime:     simpleQuery(CtrlPresence, 0x8A),
	OpStaticEnergy:    advancedQuery(CtrlParams, 0x81),
	OpMotionEnergy:    advancedQuery(CtrlParams, 0x82),
	OpStaticDistance:  advancedQuery(CtrlParams, 0x83),
	OpMotionDistance:  advancedQuery(CtrlParams, 0x84),
	OpMotionSpeed:     advancedQuery(CtrlParams, 0x85),
	OpStaticThreshold: advancedQuery(CtrlParams, 0x88),
	OpMotionThreshold: advancedQuery(CtrlParams, 0x89),
	OpStaticBoundary:  advancedQuery(CtrlParams, 0x8A),
	OpMotionBoundary:  advancedQuery(CtrlParams, 0x8B),
	OpMotionTrigger:   advancedQuery(CtrlParams, 0x8C),
	OpMotionToStill:   advancedQuery(CtrlParams, 0x8D),
	OpAbsenceTrigger:  advancedQuery(CtrlParams, 0x8E),
}

// Queries lists the query operations in name order.
func Queries() []Op {
	ops := make([]Op, 0, len(queries))
	for op := range queries {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// QueryCommand returns the query frame for op in mode m. It returns
// ErrNotApplicable if op has no template in m.
func QueryCommand(op Op, m Mode) (Command, error) {
	e, ok := queries[op]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown query %q", ErrInvalidValue, op)
	}
	t := e.simple
	if m == ModeAdvanced {
		t = e.advanced
	}
	if t == nil {
		return Command{}, fmt.Errorf("%w: %s in %s mode", ErrNotApplicable, op, m)
	}
	return Command{Op: op, Control: t.control, Command: t.command, Payload: []byte{protocol.QueryPayload}}, nil
}

// ResetCommand restarts the sensor.
func ResetCommand() Command {
	return Command{Op: OpReset, Control: CtrlSystem, Command: 0x02, Payload: []byte{protocol.QueryPayload}}
}

// ModeCommand switches the underlying open function on (Advanced) or off
// (Simple).
func ModeCommand(m Mode) Command {
	var v byte
	if m == ModeAdvanced {
		v = 0x01
	}
	return Command{Op: OpSetMode, Control: CtrlParams, Command: 0x00, Payload: []byte{v}}
}

// SceneCommand sets the Simple mode scene.
func SceneCommand(m Mode, s Scene) (Command, error) {
	if m != ModeSimple {
		return Command{}, fmt.Errorf("%w: %s in %s mode", ErrNotApplicable, OpSetScene, m)
	}
	if s < SceneLivingRoom || s > SceneAreaDetection {
		return Command{}, fmt.Errorf("%w: scene %d", ErrInvalidValue, s)
	}
	return Command{Op: OpSetScene, Control: CtrlOperation, Command: 0x07, Payload: []byte{byte(s)}}, nil
}

// SensitivityCommand sets the Simple mode sensitivity, 1 to 3.
func SensitivityCommand(m Mode, level uint8) (Command, error) {
	if m != ModeSimple {
		return Command{}, fmt.Errorf("%w: %s in %s mode", ErrNotApplicable, OpSetSensitivity, m)
	}
	if level < 1 || level > 3 {
		return Command{}, fmt.Errorf("%w: sensitivity %d", ErrInvalidValue, level)
	}
	return Command{Op: OpSetSensitivity, Control: CtrlOperation, Command: 0x08, Payload: []byte{level}}, nil
}

// AbsenceTimeCommand sets the Simple mode delay before unoccupied is reported.
func AbsenceTimeCommand(m Mode, a AbsenceTime) (Command, error) {
	if m != ModeSimple {
		return Command{}, fmt.Errorf("%w: %s in %s mode", ErrNotApplicable, OpSetAbsenceTime, m)
	}
	if a > Absence60m {
		return Command{}, fmt.Errorf("%w: absence time %d", ErrInvalidValue, a)
	}
	return Command{Op: OpSetAbsenceTime, Control: CtrlPresence, Command: 0x0A, Payload: []byte{byte(a)}}, nil
}

// CustomModeStart opens a custom mode session for slot n (1 to 4).
func CustomModeStart(n uint8) (Command, error) {
	if n < 1 || n > 4 {
		return Command{}, fmt.Errorf("%w: custom mode %d", ErrInvalidValue, n)
	}
	return Command{Op: OpCustomModeStart, Control: CtrlOperation, Command: 0x09, Payload: []byte{n}}, nil
}

// CustomModeEnd closes the custom mode session and saves its parameters.
func CustomModeEnd() Command {
	return Command{Op: OpCustomModeEnd, Control: CtrlOperation, Command: 0x0A, Payload: []byte{protocol.QueryPayload}}
}

// Parameter ranges accepted by the sensor.
const (
	MaxThreshold       = 250
	MinBoundaryCM      = 50
	MaxBoundaryCM      = 500
	MaxMotionTriggerMS = 1000
	MinMotionToStillMS = 1000
	MaxMotionToStillMS = 60000
	MaxAbsenceTrigMS   = 3600000
)

// paramCommand builds one Advanced mode parameter setting.
func paramCommand(m Mode, op Op, command byte, payload []byte) (Command, error) {
	if m != ModeAdvanced {
		return Command{}, fmt.Errorf("%w: %s in %s mode", ErrNotApplicable, op, m)
	}
	return Command{Op: op, Control: CtrlParams, Command: command, Payload: payload}, nil
}

// ThresholdCommand sets the static (0x08) or motion (0x09) trigger threshold.
func ThresholdCommand(m Mode, motion bool, v uint8) (Command, error) {
	if v > MaxThreshold {
		return Command{}, fmt.Errorf("%w: threshold %d", ErrInvalidValue, v)
	}
	if motion {
		return paramCommand(m, OpSetMotionThresh, 0x09, []byte{v})
	}
	return paramCommand(m, OpSetStaticThresh, 0x08, []byte{v})
}

// BoundaryCommand sets the static (0x0A) or motion (0x0B) detection
// boundary. cm must be a multiple of 50 between 50 and 500.
func BoundaryCommand(m Mode, motion bool, cm int) (Command, error) {
	if cm < MinBoundaryCM || cm > MaxBoundaryCM || cm%50 != 0 {
		return Command{}, fmt.Errorf("%w: boundary %d cm", ErrInvalidValue, cm)
	}
	if motion {
		return paramCommand(m, OpSetMotionBound, 0x0B, []byte{cmToRaw(cm)})
	}
	return paramCommand(m, OpSetStaticBound, 0x0A, []byte{cmToRaw(cm)})
}

func timerPayload(ms uint32) []byte {
	return []byte{byte(ms >> 24), byte(ms >> 16), byte(ms >> 8), byte(ms)}
}

// MotionTriggerCommand sets the motion trigger time, 0 to 1000 ms.
func MotionTriggerCommand(m Mode, ms uint32) (Command, error) {
	if ms > MaxMotionTriggerMS {
		return Command{}, fmt.Errorf("%w: motion trigger %d ms", ErrInvalidValue, ms)
	}
	return paramCommand(m, OpSetMotionTrigger, 0x0C, timerPayload(ms))
}

// MotionToStillCommand sets the motion to still time, 1 s to 60 s.
func MotionToStillCommand(m Mode, ms uint32) (Command, error) {
	if ms < MinMotionToStillMS || ms > MaxMotionToStillMS {
		return Command{}, fmt.Errorf("%w: motion to still %d ms", ErrInvalidValue, ms)
	}
	return paramCommand(m, OpSetMotionToStill, 0x0D, timerPayload(ms))
}

// AbsenceTriggerCommand sets the time without presence before unoccupied
// is reported, up to one hour.
func AbsenceTriggerCommand(m Mode, ms uint32) (Command, error) {
	if ms > MaxAbsenceTrigMS {
		return Command{}, fmt.Errorf("%w: absence trigger %d ms", ErrInvalidValue, ms)
	}
	return paramCommand(m, OpSetAbsenceTrig, 0x0E, timerPayload(ms))
}

// Session wraps a parameter setting in the custom mode session the sensor
// requires: start, setting, end.
func Session(customMode uint8, setting Command) ([]Command, error) {
	start, err := CustomModeStart(customMode)
	if err != nil {
		return nil, err
	}
	return []Command{start, setting, CustomModeEnd()}, nil
}
