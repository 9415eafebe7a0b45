package radar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 250, DistanceCM(5))
	assert.Equal(t, 0, DistanceCM(0))
	assert.Equal(t, 500, DistanceCM(10))
	assert.InDelta(t, 2.5, DistanceM(5), 1e-9)
}

func TestSpeed(t *testing.T) {
	tests := []struct {
		raw  uint8
		want float64
	}{
		{10, 0},
		{12, -1},
		{20, -5},
		{5, 2.5},
		{0, 0},
		{1, 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Speed(tt.raw), 1e-9, "raw %d", tt.raw)
	}
}

func TestTimeMS(t *testing.T) {
	assert.Equal(t, uint32(1000), TimeMS([]byte{0x00, 0x00, 0x03, 0xE8}))
	assert.Equal(t, uint32(60000), TimeMS([]byte{0x00, 0x00, 0xEA, 0x60}))
	assert.Equal(t, uint32(0xFFFFFFFF), TimeMS([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	// short input is padded on the right
	assert.Equal(t, uint32(0x01000000), TimeMS([]byte{0x01}))
	assert.Equal(t, uint32(0), TimeMS(nil))
}

func TestAbsenceTime(t *testing.T) {
	assert.Equal(t, "none", AbsenceNone.String())
	assert.Equal(t, "1m0s", Absence1m.String())
	assert.Equal(t, "1h0m0s", Absence60m.String())
	assert.Equal(t, "absence(9)", AbsenceTime(9).String())
	assert.Zero(t, AbsenceTime(9).Duration())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Advanced ")
	assert.NoError(t, err)
	assert.Equal(t, ModeAdvanced, m)

	m, err = ParseMode("simple")
	assert.NoError(t, err)
	assert.Equal(t, ModeSimple, m)

	_, err = ParseMode("turbo")
	assert.ErrorIs(t, err, ErrInvalidValue)
}
