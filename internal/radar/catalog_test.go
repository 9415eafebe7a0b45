package radar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mmwave/internal/protocol"
)

func mustBytes(t *testing.T, c Command) []byte {
	t.Helper()
	b, err := c.Bytes()
	require.NoError(t, err)
	return b
}

func TestQueryCommand_Frames(t *testing.T) {
	tests := []struct {
		op   Op
		mode Mode
		want []byte
	}{
		{OpHeartbeat, ModeSimple, []byte{0x53, 0x59, 0x01, 0x01, 0x00, 0x01, 0x0F, 0xBE, 0x54, 0x43}},
		{OpPresence, ModeSimple, []byte{0x53, 0x59, 0x80, 0x81, 0x00, 0x01, 0x0F, 0xBD, 0x54, 0x43}},
		{OpPresence, ModeAdvanced, []byte{0x53, 0x59, 0x80, 0x81, 0x00, 0x01, 0x0F, 0xBD, 0x54, 0x43}},
		{OpActivity, ModeSimple, protocol.Query(0x80, 0x83)},
		{OpActivity, ModeAdvanced, protocol.Query(0x08, 0x87)},
		{OpDirection, ModeSimple, protocol.Query(0x80, 0x8B)},
		{OpDirection, ModeAdvanced, protocol.Query(0x08, 0x86)},
		{OpStaticBoundary, ModeAdvanced, protocol.Query(0x08, 0x8A)},
		{OpMotionEnergy, ModeAdvanced, protocol.Query(0x08, 0x82)},
		{OpStaticDistance, ModeAdvanced, protocol.Query(0x08, 0x83)},
		{OpModel, ModeAdvanced, protocol.Query(0x02, 0xA1)},
	}
	for _, tt := range tests {
		t.Run(string(tt.op)+"/"+tt.mode.String(), func(t *testing.T) {
			cmd, err := QueryCommand(tt.op, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.op, cmd.Op)
			assert.Equal(t, tt.want, mustBytes(t, cmd))
		})
	}
}

func TestQueryCommand_NotApplicable(t *testing.T) {
	advancedOnly := []Op{
		OpStaticEnergy, OpStaticDistance, OpMotionEnergy, OpMotionDistance, OpMotionSpeed,
		OpStaticThreshold, OpMotionThreshold, OpStaticBoundary, OpMotionBoundary,
		OpMotionTrigger, OpMotionToStill, OpAbsenceTrigger,
	}
	for _, op := range advancedOnly {
		_, err := QueryCommand(op, ModeSimple)
		assert.ErrorIs(t, err, ErrNotApplicable, op)
	}

	simpleOnly := []Op{OpScene, OpSensitivity, OpAbsenceTime}
	for _, op := range simpleOnly {
		_, err := QueryCommand(op, ModeAdvanced)
		assert.ErrorIs(t, err, ErrNotApplicable, op)
	}
}

func TestQueryCommand_Unknown(t *testing.T) {
	_, err := QueryCommand("bogus", ModeSimple)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestQueries_Sorted(t *testing.T) {
	ops := Queries()
	require.Len(t, ops, len(queries))
	for i := 1; i < len(ops); i++ {
		assert.Less(t, string(ops[i-1]), string(ops[i]))
	}
}

func TestQueries_AnsweredByDispatcher(t *testing.T) {
	for _, op := range Queries() {
		for _, m := range []Mode{ModeSimple, ModeAdvanced} {
			cmd, err := QueryCommand(op, m)
			if err != nil {
				continue
			}
			e, ok := dispatchTable[cmd.Key()]
			if assert.True(t, ok, "%s has no decoder", cmd.Key()) {
				assert.True(t, e.modes.allows(m), "%s not decoded in %s", cmd.Key(), m)
			}
		}
	}
}

func TestControlCommands(t *testing.T) {
	assert.Equal(t, []byte{0x53, 0x59, 0x01, 0x02, 0x00, 0x01, 0x0F, 0xBF, 0x54, 0x43}, mustBytes(t, ResetCommand()))
	assert.Equal(t, protocol.MustBuild(0x08, 0x00, 0x01), mustBytes(t, ModeCommand(ModeAdvanced)))
	assert.Equal(t, protocol.MustBuild(0x08, 0x00, 0x00), mustBytes(t, ModeCommand(ModeSimple)))
	assert.Equal(t, protocol.MustBuild(0x05, 0x0A, 0x0F), mustBytes(t, CustomModeEnd()))
}

func TestSimpleSettings(t *testing.T) {
	c, err := SceneCommand(ModeSimple, SceneBathroom)
	require.NoError(t, err)
	assert.Equal(t, protocol.MustBuild(0x05, 0x07, 0x03), mustBytes(t, c))

	_, err = SceneCommand(ModeSimple, Scene(9))
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = SceneCommand(ModeAdvanced, SceneBathroom)
	assert.ErrorIs(t, err, ErrNotApplicable)

	c, err = SensitivityCommand(ModeSimple, 3)
	require.NoError(t, err)
	assert.Equal(t, protocol.MustBuild(0x05, 0x08, 0x03), mustBytes(t, c))
	_, err = SensitivityCommand(ModeSimple, 0)
	assert.ErrorIs(t, err, ErrInvalidValue)

	c, err = AbsenceTimeCommand(ModeSimple, Absence5m)
	require.NoError(t, err)
	assert.Equal(t, protocol.MustBuild(0x80, 0x0A, 0x05), mustBytes(t, c))
	_, err = AbsenceTimeCommand(ModeAdvanced, Absence5m)
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestParameterCommands(t *testing.T) {
	tests := []struct {
		name    string
		build   func(Mode) (Command, error)
		want    []byte
		wantErr error
	}{
		{
			name:  "static threshold",
			build: func(m Mode) (Command, error) { return ThresholdCommand(m, false, 33) },
			want:  protocol.MustBuild(0x08, 0x08, 33),
		},
		{
			name:  "motion threshold",
			build: func(m Mode) (Command, error) { return ThresholdCommand(m, true, 250) },
			want:  protocol.MustBuild(0x08, 0x09, 250),
		},
		{
			name:    "threshold out of range",
			build:   func(m Mode) (Command, error) { return ThresholdCommand(m, true, 251) },
			wantErr: ErrInvalidValue,
		},
		{
			name:  "static boundary",
			build: func(m Mode) (Command, error) { return BoundaryCommand(m, false, 250) },
			want:  protocol.MustBuild(0x08, 0x0A, 0x05),
		},
		{
			name:  "motion boundary max",
			build: func(m Mode) (Command, error) { return BoundaryCommand(m, true, 500) },
			want:  protocol.MustBuild(0x08, 0x0B, 0x0A),
		},
		{
			name:    "boundary not a multiple of 50",
			build:   func(m Mode) (Command, error) { return BoundaryCommand(m, true, 275) },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "boundary too far",
			build:   func(m Mode) (Command, error) { return BoundaryCommand(m, false, 550) },
			wantErr: ErrInvalidValue,
		},
		{
			name:  "motion trigger",
			build: func(m Mode) (Command, error) { return MotionTriggerCommand(m, 1000) },
			want:  protocol.MustBuild(0x08, 0x0C, 0x00, 0x00, 0x03, 0xE8),
		},
		{
			name:    "motion to still too short",
			build:   func(m Mode) (Command, error) { return MotionToStillCommand(m, 999) },
			wantErr: ErrInvalidValue,
		},
		{
			name:  "absence trigger",
			build: func(m Mode) (Command, error) { return AbsenceTriggerCommand(m, 60000) },
			want:  protocol.MustBuild(0x08, 0x0E, 0x00, 0x00, 0xEA, 0x60),
		},
		{
			name:    "absence trigger over an hour",
			build:   func(m Mode) (Command, error) { return AbsenceTriggerCommand(m, 3600001) },
			wantErr: ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.build(ModeAdvanced)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mustBytes(t, c))

			_, err = tt.build(ModeSimple)
			assert.ErrorIs(t, err, ErrNotApplicable)
		})
	}
}

func TestTimerFrameLength(t *testing.T) {
	c, err := MotionToStillCommand(ModeAdvanced, 30000)
	require.NoError(t, err)
	assert.Len(t, mustBytes(t, c), 13)
}

func TestSession(t *testing.T) {
	setting, err := BoundaryCommand(ModeAdvanced, false, 100)
	require.NoError(t, err)

	cmds, err := Session(2, setting)
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	assert.Equal(t, protocol.MustBuild(0x05, 0x09, 0x02), mustBytes(t, cmds[0]))
	assert.Equal(t, setting, cmds[1])
	assert.Equal(t, protocol.MustBuild(0x05, 0x0A, 0x0F), mustBytes(t, cmds[2]))

	_, err = Session(5, setting)
	assert.ErrorIs(t, err, ErrInvalidValue)
}
