package hal

import (
	"fmt"
	"strings"
)

// Variant captures what differs between controller families: the packet
// bound and how reset paths reach the chip.
type Variant interface {
	Name() string
	// MaxPacketSize bounds a logical packet, header included.
	MaxPacketSize() int
	// Reset performs a hardware reset of the controller.
	Reset(t Transport) error
	// ResetSE resets the embedded secure element.
	ResetSE(t Transport) error
}

// SR1xx is the SR100T/SR150 family with extended length packets and an
// embedded secure element.
type SR1xx struct{}

// Name implements Variant.
func (SR1xx) Name() string { return "sr1xx" }

// MaxPacketSize implements Variant.
func (SR1xx) MaxPacketSize() int { return 2176 }

// Reset implements Variant.
func (SR1xx) Reset(t Transport) error {
	_, err := t.Ioctl(IoctlDeviceReset, nil)
	return err
}

// ResetSE implements Variant.
func (SR1xx) ResetSE(t Transport) error {
	_, err := t.Ioctl(IoctlSEReset, nil)
	return err
}

// SR040 is the low power family limited to standard length packets and
// without secure element. Its reset needs the board configuration
// reapplied.
type SR040 struct {
	BoardConfig []byte
}

// Name implements Variant.
func (SR040) Name() string { return "sr040" }

// MaxPacketSize implements Variant.
func (SR040) MaxPacketSize() int { return 4 + 255 }

// Reset implements Variant.
func (v SR040) Reset(t Transport) error {
	if _, err := t.Ioctl(IoctlDeviceReset, nil); err != nil {
		return err
	}
	if len(v.BoardConfig) == 0 {
		return nil
	}
	_, err := t.Ioctl(IoctlBoardConfig, v.BoardConfig)
	return err
}

// ResetSE implements Variant.
func (SR040) ResetSE(Transport) error {
	return fmt.Errorf("sr040 secure element reset: %w", ErrUnsupported)
}

// VariantByName looks up a Variant.
func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(name) {
	case "", "sr1xx", "sr100t", "sr150":
		return SR1xx{}, nil
	case "sr040":
		return SR040{}, nil
	}
	return nil, fmt.Errorf("unknown variant %q", name)
}
