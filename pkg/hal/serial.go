package hal

import (
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// SerialConfig configures a UART link.
type SerialConfig struct {
	Port     string
	BaudRate int
	// ResetPulse is how long RTS is held low to reset the controller.
	ResetPulse time.Duration
}

// DefaultSerialConfig returns the settings of the reference board.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{Port: port, BaudRate: 115200, ResetPulse: 10 * time.Millisecond}
}

// NewSerial creates a Transport over a UART.
func NewSerial(cfg SerialConfig) *Stream {
	return NewStream("serial:"+cfg.Port, func() (io.ReadWriteCloser, error) {
		port, err := serial.Open(cfg.Port, &serial.Mode{
			BaudRate: cfg.BaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, err
		}
		if err := port.ResetInputBuffer(); err != nil {
			glog.Warningf("serial %s: reset input buffer: %v", cfg.Port, err)
		}
		return &serialPort{Port: port, cfg: cfg}, nil
	})
}

type serialPort struct {
	serial.Port
	cfg SerialConfig
}

// Ioctl implements Controller. The controller reset line is wired to RTS.
func (p *serialPort) Ioctl(op IoctlOp, data []byte) ([]byte, error) {
	switch op {
	case IoctlDeviceReset:
		if err := p.SetRTS(false); err != nil {
			return nil, err
		}
		time.Sleep(p.cfg.ResetPulse)
		if err := p.SetRTS(true); err != nil {
			return nil, err
		}
		return nil, p.ResetInputBuffer()
	}
	return nil, ErrUnsupported
}
