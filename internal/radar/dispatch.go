package radar

import (
	"bytes"
	"time"

	"github.com/banshee-data/mmwave/internal/protocol"
)

// Control words.
const (
	CtrlSystem    byte = 0x01
	CtrlProduct   byte = 0x02
	CtrlUpgrade   byte = 0x03
	CtrlOperation byte = 0x05
	CtrlParams    byte = 0x08
	CtrlPresence  byte = 0x80
)

type handler func(s *Snapshot, f protocol.Frame)

type entry struct {
	name   string
	minLen int
	modes  modeSet
	fn     handler
}

// dispatchTable maps (control, command) to a decoder. Active reports and
// query responses that carry the same payload share one handler. Pairs not
// listed here are accepted and ignored.
var dispatchTable = buildDispatchTable()

func buildDispatchTable() map[protocol.Key]entry {
	t := make(map[protocol.Key]entry)
	add := func(control byte, name string, minLen int, modes modeSet, fn handler, commands ...byte) {
		for _, cmd := range commands {
			t[protocol.Key{Control: control, Command: cmd}] = entry{name: name, minLen: minLen, modes: modes, fn: fn}
		}
	}
	noop := func(*Snapshot, protocol.Frame) {}

	add(CtrlSystem, "heartbeat", 0, anyMode, func(s *Snapshot, _ protocol.Frame) { s.Heartbeats++ }, 0x01)
	add(CtrlSystem, "reset", 0, anyMode, noop, 0x02)

	add(CtrlProduct, "model", 0, anyMode, func(s *Snapshot, f protocol.Frame) { s.Product.Model = payloadString(f) }, 0xA1)
	add(CtrlProduct, "product_id", 0, anyMode, func(s *Snapshot, f protocol.Frame) { s.Product.ID = payloadString(f) }, 0xA2)
	add(CtrlProduct, "hardware", 0, anyMode, func(s *Snapshot, f protocol.Frame) { s.Product.Hardware = payloadString(f) }, 0xA3)
	add(CtrlProduct, "firmware", 0, anyMode, func(s *Snapshot, f protocol.Frame) { s.Product.Firmware = payloadString(f) }, 0xA4)

	add(CtrlOperation, "init_status", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.InitializationStatus = f.Byte(0) }, 0x01, 0x81)
	add(CtrlOperation, "scene", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.Scene = Scene(f.Byte(0)) }, 0x07, 0x87)
	add(CtrlOperation, "sensitivity", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.Sensitivity = f.Byte(0) }, 0x08, 0x88)
	add(CtrlOperation, "custom_mode", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.CustomMode = f.Byte(0) }, 0x09, 0x89)
	add(CtrlOperation, "custom_mode_end", 0, anyMode, func(s *Snapshot, _ protocol.Frame) { s.CustomMode = 0 }, 0x0A)

	add(CtrlParams, "output_switch", 1, anyMode, decodeOutputSwitch, 0x00, 0x80)
	add(CtrlParams, "underlying_report", 5, advancedOnly, decodeUnderlying, 0x01)
	add(CtrlParams, "static_energy", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.StaticEnergy = f.Byte(0) }, 0x81)
	add(CtrlParams, "motion_energy", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.MotionEnergy = f.Byte(0) }, 0x82)
	add(CtrlParams, "static_distance", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.StaticDistanceCM = DistanceCM(f.Byte(0)) }, 0x83)
	add(CtrlParams, "motion_distance", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.MotionDistanceCM = DistanceCM(f.Byte(0)) }, 0x84)
	add(CtrlParams, "motion_speed", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.MotionSpeedMPS = Speed(f.Byte(0)) }, 0x85)
	add(CtrlParams, "direction", 1, advancedOnly, decodeDirection, 0x06)
	add(CtrlParams, "direction", 1, anyMode, decodeDirection, 0x86)
	add(CtrlParams, "activity", 1, advancedOnly, decodeActivity, 0x07)
	add(CtrlParams, "activity", 1, anyMode, decodeActivity, 0x87)
	add(CtrlParams, "static_threshold", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.StaticThreshold = f.Byte(0) }, 0x08, 0x88)
	add(CtrlParams, "motion_threshold", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.MotionThreshold = f.Byte(0) }, 0x09, 0x89)
	add(CtrlParams, "static_boundary", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.StaticBoundaryCM = DistanceCM(f.Byte(0)) }, 0x0A, 0x8A)
	add(CtrlParams, "motion_boundary", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.MotionBoundaryCM = DistanceCM(f.Byte(0)) }, 0x0B, 0x8B)
	add(CtrlParams, "motion_trigger", 4, anyMode, func(s *Snapshot, f protocol.Frame) { s.MotionTriggerMS = TimeMS(f.Payload) }, 0x0C, 0x8C)
	add(CtrlParams, "motion_to_still", 4, anyMode, func(s *Snapshot, f protocol.Frame) { s.MotionToStillMS = TimeMS(f.Payload) }, 0x0D, 0x8D)
	add(CtrlParams, "absence_trigger", 4, anyMode, func(s *Snapshot, f protocol.Frame) { s.AbsenceTriggerMS = TimeMS(f.Payload) }, 0x0E, 0x8E)

	add(CtrlPresence, "presence", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.Presence = Presence(f.Byte(0)) }, 0x01, 0x81)
	add(CtrlPresence, "motion", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.Motion = Motion(f.Byte(0)) }, 0x02, 0x82)
	add(CtrlPresence, "activity", 1, simpleOnly, decodeActivity, 0x03)
	add(CtrlPresence, "activity", 1, anyMode, decodeActivity, 0x83)
	add(CtrlPresence, "absence_time", 1, anyMode, func(s *Snapshot, f protocol.Frame) { s.AbsenceTime = AbsenceTime(f.Byte(0)) }, 0x0A, 0x8A)
	add(CtrlPresence, "direction", 1, simpleOnly, decodeDirection, 0x0B)
	add(CtrlPresence, "direction", 1, anyMode, decodeDirection, 0x8B)

	return t
}

func decodeOutputSwitch(s *Snapshot, f protocol.Frame) {
	if f.Byte(0) == 0x01 {
		s.Mode = ModeAdvanced
	} else {
		s.Mode = ModeSimple
	}
}

// decodeUnderlying reads the periodic Advanced mode report: static energy,
// static distance, motion energy, motion distance, motion speed.
func decodeUnderlying(s *Snapshot, f protocol.Frame) {
	s.StaticEnergy = f.Byte(0)
	s.StaticDistanceCM = DistanceCM(f.Byte(1))
	s.MotionEnergy = f.Byte(2)
	s.MotionDistanceCM = DistanceCM(f.Byte(3))
	s.MotionSpeedMPS = Speed(f.Byte(4))
}

func decodeDirection(s *Snapshot, f protocol.Frame) {
	s.Direction = Direction(f.Byte(0))
}

func decodeActivity(s *Snapshot, f protocol.Frame) {
	s.Activity = f.Byte(0)
}

func payloadString(f protocol.Frame) string {
	return string(bytes.TrimRight(f.Payload, "\x00 "))
}

// Dispatcher applies accepted frames to a State.
type Dispatcher struct {
	verbose func() bool
	logf    func(format string, v ...interface{})
}

// Dispatch decodes f into st. It reports whether a decoder ran; unknown
// pairs, upgrade frames, short payloads and reports that do not apply in the
// current mode are accepted without changing any reading.
func (d *Dispatcher) Dispatch(st *State, f protocol.Frame, now time.Time) bool {
	e, ok := dispatchTable[f.Key()]
	handled := false
	st.update(func(s *Snapshot) {
		s.Frames++
		if !ok || f.Control == CtrlUpgrade || len(f.Payload) < e.minLen || !e.modes.allows(s.Mode) {
			return
		}
		e.fn(s, f)
		s.UpdatedAt = now
		handled = true
	})
	if d.verbose != nil && d.verbose() && d.logf != nil {
		name := e.name
		if name == "" {
			name = "unknown"
		}
		d.logf("radar: frame %s %s payload=% X handled=%t", f.Key(), name, f.Payload, handled)
	}
	return handled
}

// Describe returns the decoder name registered for k, or "" if none.
func Describe(k protocol.Key) string {
	return dispatchTable[k].name
}
