package radar

import (
	"fmt"
	"strings"
)

// Mode is the sensor's operating profile. Simple mode reports presence,
// motion, activity and direction; Advanced mode turns on the underlying
// open function and reports raw energies, distances and speed.
type Mode uint8

const (
	ModeSimple Mode = iota
	ModeAdvanced
)

func (m Mode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeAdvanced:
		return "advanced"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode parses "simple" or "advanced", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple":
		return ModeSimple, nil
	case "advanced":
		return ModeAdvanced, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidValue, s)
}

// modeSet is a bit set of modes in which a catalog template or a report
// decoder applies.
type modeSet uint8

const (
	simpleOnly   modeSet = 1 << ModeSimple
	advancedOnly modeSet = 1 << ModeAdvanced
	anyMode              = simpleOnly | advancedOnly
)

func (s modeSet) allows(m Mode) bool {
	return s&(1<<m) != 0
}

// ModeController owns the current mode. The value itself lives in State so
// that snapshots always carry the mode the frames were decoded under.
type ModeController struct {
	state *State
}

// Mode returns the current mode.
func (c ModeController) Mode() Mode {
	return c.state.Snapshot().Mode
}

// Set records m as the current mode.
func (c ModeController) Set(m Mode) {
	c.state.update(func(s *Snapshot) {
		s.Mode = m
	})
}
