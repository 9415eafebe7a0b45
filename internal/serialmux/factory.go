package serialmux

import (
	"time"

	"go.bug.st/serial"
)

// readTimeout bounds each blocking read of a stream's background reader.
const readTimeout = 100 * time.Millisecond

// OpenPort opens the serial port at path using the provided serial options.
func OpenPort(path string, opts PortOptions) (serial.Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	return serial.Open(path, mode)
}

// RealSerialPortFactory opens hardware ports through go.bug.st/serial.
type RealSerialPortFactory struct{}

// NewRealSerialPortFactory creates a factory for real serial ports.
func NewRealSerialPortFactory() *RealSerialPortFactory {
	return &RealSerialPortFactory{}
}

// Open implements SerialPortFactory.
func (RealSerialPortFactory) Open(path string, opts PortOptions) (SerialPorter, error) {
	return OpenPort(path, opts)
}

// ListPorts returns the serial port names present on the host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// OpenStream opens path through factory and starts a PortStream on it.
// Ports that support read timeouts get one so the stream's reader notices
// Close promptly.
func OpenStream(factory SerialPortFactory, path string, opts PortOptions) (*PortStream, error) {
	port, err := factory.Open(path, opts)
	if err != nil {
		return nil, err
	}
	if tp, ok := port.(TimeoutSerialPorter); ok {
		if err := tp.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}
	return NewPortStream(port), nil
}
