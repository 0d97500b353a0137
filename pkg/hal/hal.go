// Package hal defines the transport boundary between the UCI engine and
// the UWB controller, and provides transports over common links.
package hal

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported indicates the operation isn't available on the transport.
	ErrUnsupported = errors.New("unsupported")
	// ErrNotOpen indicates the transport isn't open.
	ErrNotOpen = errors.New("not open")
	// ErrAlreadyOpen indicates Open is called on an open transport.
	ErrAlreadyOpen = errors.New("already open")
)

// Event is reported asynchronously by a transport.
type Event int

// Transport events.
const (
	EventOpenComplete Event = iota
	EventCloseComplete
	EventError
)

func (e Event) String() string {
	switch e {
	case EventOpenComplete:
		return "open-complete"
	case EventCloseComplete:
		return "close-complete"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// EventFunc receives transport events. err is set with EventError.
type EventFunc func(ev Event, err error)

// DataFunc receives raw bytes. A chunk may hold several packets or only
// a part of one. The callee owns data.
type DataFunc func(data []byte)

// IoctlOp selects a control operation.
type IoctlOp int

// Control operations.
const (
	IoctlDeviceReset IoctlOp = iota
	IoctlBoardConfig
	IoctlLogDump
	IoctlSEReset
)

func (op IoctlOp) String() string {
	switch op {
	case IoctlDeviceReset:
		return "device-reset"
	case IoctlBoardConfig:
		return "board-config"
	case IoctlLogDump:
		return "log-dump"
	case IoctlSEReset:
		return "se-reset"
	}
	return fmt.Sprintf("ioctl(%d)", int(op))
}

// Transport is the link to the controller.
//
// Open starts opening and returns immediately; completion is reported by
// EventOpenComplete or EventError. Close reports EventCloseComplete.
// Callbacks are never invoked from within Open, Close or Write, and are
// not invoked concurrently with each other.
type Transport interface {
	Open(onEvent EventFunc, onData DataFunc) error
	Close() error
	Write(data []byte) error
	Ioctl(op IoctlOp, data []byte) ([]byte, error)
}

// Controller is implemented by links supporting control operations.
type Controller interface {
	Ioctl(op IoctlOp, data []byte) ([]byte, error)
}
