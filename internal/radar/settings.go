package radar

// SetMode switches the sensor between Simple and Advanced output and records
// the new mode immediately; the sensor's echo confirms it later.
func (d *Driver) SetMode(m Mode) error {
	if err := d.Send(ModeCommand(m)); err != nil {
		return err
	}
	d.mode.Set(m)
	return nil
}

// Reset restarts the sensor.
func (d *Driver) Reset() error {
	return d.Send(ResetCommand())
}

func (d *Driver) SetScene(s Scene) error {
	cmd, err := SceneCommand(d.Mode(), s)
	if err != nil {
		return err
	}
	return d.Send(cmd)
}

func (d *Driver) SetSensitivity(level uint8) error {
	cmd, err := SensitivityCommand(d.Mode(), level)
	if err != nil {
		return err
	}
	return d.Send(cmd)
}

func (d *Driver) SetAbsenceTime(a AbsenceTime) error {
	cmd, err := AbsenceTimeCommand(d.Mode(), a)
	if err != nil {
		return err
	}
	return d.Send(cmd)
}

// sendSession writes setting inside a custom mode session as one
// uninterrupted sequence.
func (d *Driver) sendSession(setting Command, err error) error {
	if err != nil {
		return err
	}
	cmds, err := Session(d.customMode, setting)
	if err != nil {
		return err
	}
	return d.SendAll(cmds...)
}

func (d *Driver) SetStaticThreshold(v uint8) error {
	return d.sendSession(ThresholdCommand(d.Mode(), false, v))
}

func (d *Driver) SetMotionThreshold(v uint8) error {
	return d.sendSession(ThresholdCommand(d.Mode(), true, v))
}

// SetStaticBoundary sets the static detection range in centimetres.
func (d *Driver) SetStaticBoundary(cm int) error {
	return d.sendSession(BoundaryCommand(d.Mode(), false, cm))
}

// SetMotionBoundary sets the motion detection range in centimetres.
func (d *Driver) SetMotionBoundary(cm int) error {
	return d.sendSession(BoundaryCommand(d.Mode(), true, cm))
}

func (d *Driver) SetMotionTrigger(ms uint32) error {
	return d.sendSession(MotionTriggerCommand(d.Mode(), ms))
}

func (d *Driver) SetMotionToStill(ms uint32) error {
	return d.sendSession(MotionToStillCommand(d.Mode(), ms))
}

func (d *Driver) SetAbsenceTrigger(ms uint32) error {
	return d.sendSession(AbsenceTriggerCommand(d.Mode(), ms))
}
