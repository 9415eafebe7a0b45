package protocol

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		n        int
		expected byte
	}{
		{"empty", nil, 0, 0x00},
		{"single byte", []byte{0x0F}, 1, 0x0F},
		{"prefix only", []byte{0x01, 0x02, 0x03}, 2, 0x03},
		{"wraps at 256", []byte{0xFF, 0x02}, 2, 0x01},
		{"n beyond length is clamped", []byte{0x10, 0x20}, 10, 0x30},
		{"reset header", []byte{0x53, 0x59, 0x01, 0x02, 0x00, 0x01, 0x0F}, 7, 0xBF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sum(tt.data, tt.n)
			if got != tt.expected {
				t.Errorf("Sum() = 0x%02X, want 0x%02X", got, tt.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		frame    []byte
		expected bool
	}{
		{"reset command", []byte{0x53, 0x59, 0x01, 0x02, 0x00, 0x01, 0x0F, 0xBF, 0x54, 0x43}, true},
		{"heartbeat query", []byte{0x53, 0x59, 0x01, 0x01, 0x00, 0x01, 0x0F, 0xBE, 0x54, 0x43}, true},
		{"product id query", []byte{0x53, 0x59, 0x02, 0xA2, 0x00, 0x01, 0x0F, 0x60, 0x54, 0x43}, true},
		{"output switch on", []byte{0x53, 0x59, 0x08, 0x00, 0x00, 0x01, 0x01, 0xB6, 0x54, 0x43}, true},
		{"trailers are not inspected", []byte{0x53, 0x59, 0x01, 0x02, 0x00, 0x01, 0x0F, 0xBF}, true},
		{"wrong checksum", []byte{0x53, 0x59, 0x01, 0x02, 0x00, 0x01, 0x0F, 0xC0, 0x54, 0x43}, false},
		{"length high set", []byte{0x53, 0x59, 0x80, 0x01, 0x01, 0x01, 0x01, 0x30, 0x54, 0x43}, false},
		{"length beyond buffer", []byte{0x53, 0x59, 0x80, 0x01, 0x00, 0x05, 0x01}, false},
		{"oversize length", []byte{0x53, 0x59, 0x80, 0x01, 0x00, 0xF0, 0x01, 0x00}, false},
		{"too short", []byte{0x53, 0x59, 0x80}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Validate(tt.frame))
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	frames := [][]byte{
		MustBuild(0x80, 0x01, 0x01),
		{0x53, 0x59, 0x01, 0x02, 0x00, 0x01, 0x0F, 0xC0, 0x54, 0x43},
	}
	for _, f := range frames {
		before := append([]byte(nil), f...)
		first := Validate(f)
		second := Validate(f)
		assert.Equal(t, first, second)
		assert.Equal(t, before, f, "Validate must not modify its input")
	}
}

func TestValidate_SingleByteCorruption(t *testing.T) {
	frame := MustBuild(0x01, 0x02, QueryPayload)
	checksumAt := IndexPayload + int(frame[IndexLengthLow])

	for i := 0; i < checksumAt; i++ {
		for _, mask := range []byte{0x01, 0x80, 0xFF} {
			corrupt := append([]byte(nil), frame...)
			corrupt[i] ^= mask
			if Validate(corrupt) {
				t.Errorf("Validate accepted frame with byte %d xor 0x%02X: % X", i, mask, corrupt)
			}
		}
	}
}

func TestBuildChecksum(t *testing.T) {
	buf := []byte{0x53, 0x59, 0x01, 0x01, 0x00, 0x01, 0x0F, 0x00, 0x54, 0x43}
	BuildChecksum(buf, len(buf))
	assert.Equal(t, byte(0xBE), buf[7])
	assert.Equal(t, []byte{0x54, 0x43}, buf[8:])
}

func TestBuildChecksum_IgnoresBadLength(t *testing.T) {
	buf := []byte{0x01, 0x02}
	require.NotPanics(t, func() { BuildChecksum(buf, 10) })
	require.NotPanics(t, func() { BuildChecksum(buf, 1) })
	assert.Equal(t, []byte{0x01, 0x02}, buf)
}

func TestChecksumRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		payload := make([]byte, rng.Intn(MaxPayload+1))
		rng.Read(payload)
		control := byte(rng.Intn(256))
		command := byte(rng.Intn(256))

		frame, err := Build(control, command, payload)
		require.NoError(t, err)
		require.True(t, Validate(frame), "round trip failed for % X", frame)
	}
}
