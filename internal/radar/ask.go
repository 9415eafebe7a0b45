package radar

import (
	"context"

	"github.com/banshee-data/mmwave/internal/protocol"
)

// Ask sends the query for op in the current mode and waits for its answer.
// The decoded readings are in the returned snapshot.
func (d *Driver) Ask(ctx context.Context, op Op) (Snapshot, error) {
	cmd, err := QueryCommand(op, d.Mode())
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := d.Exchange(ctx, cmd); err != nil {
		return Snapshot{}, err
	}
	return d.Snapshot(), nil
}

// AskAll runs the queries in order and stops at the first error.
func (d *Driver) AskAll(ctx context.Context, ops ...Op) (Snapshot, error) {
	var snap Snapshot
	for _, op := range ops {
		var err error
		if snap, err = d.Ask(ctx, op); err != nil {
			return snap, err
		}
	}
	return d.Snapshot(), nil
}

// AskHeartbeat checks the link is alive and returns the heartbeat count.
func (d *Driver) AskHeartbeat(ctx context.Context) (uint64, error) {
	s, err := d.Ask(ctx, OpHeartbeat)
	return s.Heartbeats, err
}

// AskProductInfo asks for model, product id, hardware and firmware.
func (d *Driver) AskProductInfo(ctx context.Context) (ProductInfo, error) {
	s, err := d.AskAll(ctx, OpModel, OpProductID, OpHardware, OpFirmware)
	return s.Product, err
}

func (d *Driver) AskInitStatus(ctx context.Context) (bool, error) {
	s, err := d.Ask(ctx, OpInitStatus)
	return s.Initialized(), err
}

func (d *Driver) AskScene(ctx context.Context) (Scene, error) {
	s, err := d.Ask(ctx, OpScene)
	return s.Scene, err
}

func (d *Driver) AskSensitivity(ctx context.Context) (uint8, error) {
	s, err := d.Ask(ctx, OpSensitivity)
	return s.Sensitivity, err
}

func (d *Driver) AskCustomMode(ctx context.Context) (uint8, error) {
	s, err := d.Ask(ctx, OpCustomMode)
	return s.CustomMode, err
}

// AskMode reads the output switch and updates the current mode from it.
func (d *Driver) AskMode(ctx context.Context) (Mode, error) {
	s, err := d.Ask(ctx, OpOutputSwitch)
	return s.Mode, err
}

func (d *Driver) AskPresence(ctx context.Context) (Presence, error) {
	s, err := d.Ask(ctx, OpPresence)
	return s.Presence, err
}

func (d *Driver) AskMotion(ctx context.Context) (Motion, error) {
	s, err := d.Ask(ctx, OpMotion)
	return s.Motion, err
}

func (d *Driver) AskActivity(ctx context.Context) (uint8, error) {
	s, err := d.Ask(ctx, OpActivity)
	return s.Activity, err
}

func (d *Driver) AskDirection(ctx context.Context) (Direction, error) {
	s, err := d.Ask(ctx, OpDirection)
	return s.Direction, err
}

func (d *Driver) AskAbsenceTime(ctx context.Context) (AbsenceTime, error) {
	s, err := d.Ask(ctx, OpAbsenceTime)
	return s.AbsenceTime, err
}

func (d *Driver) AskStaticEnergy(ctx context.Context) (uint8, error) {
	s, err := d.Ask(ctx, OpStaticEnergy)
	return s.StaticEnergy, err
}

func (d *Driver) AskStaticDistance(ctx context.Context) (int, error) {
	s, err := d.Ask(ctx, OpStaticDistance)
	return s.StaticDistanceCM, err
}

func (d *Driver) AskMotionEnergy(ctx context.Context) (uint8, error) {
	s, err := d.Ask(ctx, OpMotionEnergy)
	return s.MotionEnergy, err
}

func (d *Driver) AskMotionDistance(ctx context.Context) (int, error) {
	s, err := d.Ask(ctx, OpMotionDistance)
	return s.MotionDistanceCM, err
}

func (d *Driver) AskMotionSpeed(ctx context.Context) (float64, error) {
	s, err := d.Ask(ctx, OpMotionSpeed)
	return s.MotionSpeedMPS, err
}

func (d *Driver) AskStaticThreshold(ctx context.Context) (uint8, error) {
	s, err := d.Ask(ctx, OpStaticThreshold)
	return s.StaticThreshold, err
}

func (d *Driver) AskMotionThreshold(ctx context.Context) (uint8, error) {
	s, err := d.Ask(ctx, OpMotionThreshold)
	return s.MotionThreshold, err
}

func (d *Driver) AskStaticBoundary(ctx context.Context) (int, error) {
	s, err := d.Ask(ctx, OpStaticBoundary)
	return s.StaticBoundaryCM, err
}

func (d *Driver) AskMotionBoundary(ctx context.Context) (int, error) {
	s, err := d.Ask(ctx, OpMotionBoundary)
	return s.MotionBoundaryCM, err
}

func (d *Driver) AskMotionTrigger(ctx context.Context) (uint32, error) {
	s, err := d.Ask(ctx, OpMotionTrigger)
	return s.MotionTriggerMS, err
}

func (d *Driver) AskMotionToStill(ctx context.Context) (uint32, error) {
	s, err := d.Ask(ctx, OpMotionToStill)
	return s.MotionToStillMS, err
}

func (d *Driver) AskAbsenceTrigger(ctx context.Context) (uint32, error) {
	s, err := d.Ask(ctx, OpAbsenceTrigger)
	return s.AbsenceTriggerMS, err
}

// Last returns the most recent frame accepted for k.
func (d *Driver) Last(k protocol.Key) (protocol.Frame, bool) {
	d.io.Lock()
	defer d.io.Unlock()
	s, ok := d.seen[k]
	return s.frame, ok
}

// Getters read the latest decoded value without touching the link.

func (d *Driver) Heartbeats() uint64          { return d.Snapshot().Heartbeats }
func (d *Driver) Presence() Presence          { return d.Snapshot().Presence }
func (d *Driver) Motion() Motion              { return d.Snapshot().Motion }
func (d *Driver) Activity() uint8             { return d.Snapshot().Activity }
func (d *Driver) Direction() Direction        { return d.Snapshot().Direction }
func (d *Driver) StaticEnergy() uint8         { return d.Snapshot().StaticEnergy }
func (d *Driver) MotionEnergy() uint8         { return d.Snapshot().MotionEnergy }
func (d *Driver) StaticDistanceCM() int       { return d.Snapshot().StaticDistanceCM }
func (d *Driver) MotionDistanceCM() int       { return d.Snapshot().MotionDistanceCM }
func (d *Driver) MotionSpeed() float64        { return d.Snapshot().MotionSpeedMPS }
func (d *Driver) StaticThreshold() uint8      { return d.Snapshot().StaticThreshold }
func (d *Driver) MotionThreshold() uint8      { return d.Snapshot().MotionThreshold }
func (d *Driver) StaticBoundaryCM() int       { return d.Snapshot().StaticBoundaryCM }
func (d *Driver) MotionBoundaryCM() int       { return d.Snapshot().MotionBoundaryCM }
func (d *Driver) AbsenceTriggerMS() uint32    { return d.Snapshot().AbsenceTriggerMS }
func (d *Driver) MotionTriggerMS() uint32     { return d.Snapshot().MotionTriggerMS }
func (d *Driver) MotionToStillMS() uint32     { return d.Snapshot().MotionToStillMS }
func (d *Driver) CustomMode() uint8           { return d.Snapshot().CustomMode }
func (d *Driver) InitializationStatus() uint8 { return d.Snapshot().InitializationStatus }
func (d *Driver) Scene() Scene                { return d.Snapshot().Scene }
func (d *Driver) Sensitivity() uint8          { return d.Snapshot().Sensitivity }
func (d *Driver) AbsenceTime() AbsenceTime    { return d.Snapshot().AbsenceTime }
func (d *Driver) Product() ProductInfo        { return d.Snapshot().Product }
