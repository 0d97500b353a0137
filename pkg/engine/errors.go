package engine

import (
	"errors"
	"fmt"

	"github.com/robotalks/uci.go/pkg/uci"
)

var (
	// ErrUnexpectedResponse indicates a response which doesn't match the
	// pending command.
	ErrUnexpectedResponse = errors.New("unexpected response")
	// ErrCommandTimeout indicates no response after all retransmissions.
	ErrCommandTimeout = errors.New("command timeout")
	// ErrUnknownGroupOrOpcode indicates a packet with an unrecognized
	// group or opcode.
	ErrUnknownGroupOrOpcode = errors.New("unknown group or opcode")
	// ErrDeviceNotResponding is the recovery cause after command timeouts.
	ErrDeviceNotResponding = errors.New("device not responding")
	// ErrThermalRunaway is reported by the controller when overheating.
	ErrThermalRunaway = errors.New("thermal runaway")
	// ErrClosed indicates the engine stopped or the device was disabled.
	ErrClosed = errors.New("closed")
	// ErrNotEnabled indicates the device isn't enabled.
	ErrNotEnabled = errors.New("device not enabled")
	// ErrBusy indicates a conflicting lifecycle operation is in progress.
	ErrBusy = errors.New("busy")
	// ErrRecoveryInProgress rejects commands while recovering.
	ErrRecoveryInProgress = errors.New("recovery in progress")
	// ErrRecoveryFailed indicates the controller didn't come back after a
	// recovery reset.
	ErrRecoveryFailed = errors.New("recovery failed")
	// ErrQueueFull indicates the command queue reached its depth.
	ErrQueueFull = errors.New("command queue full")
	// ErrNoPendingCommand indicates nothing is waiting for a response.
	ErrNoPendingCommand = errors.New("no pending command")
	// ErrRetryExhausted indicates retransmissions requested by the
	// controller exceeded the bound.
	ErrRetryExhausted = errors.New("retry exhausted")
)

// TransportError wraps a failure reported by the transport.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the transport failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DeviceError is a fault reported by the controller.
type DeviceError struct {
	DeviceStatus uci.DeviceStatus
	Status       uci.Status
	Err          error
}

// Error implements error.
func (e *DeviceError) Error() string {
	if e.Status != uci.StatusOK {
		return fmt.Sprintf("device error: %s", e.Status)
	}
	return fmt.Sprintf("device error: status %s", e.DeviceStatus)
}

// Unwrap returns the classified cause if any.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// SessionFault is a session state change not requested by the host.
type SessionFault struct {
	SessionID uint32
	State     uci.SessionState
	Reason    uci.ReasonCode
}

// Error implements error.
func (e *SessionFault) Error() string {
	return fmt.Sprintf("session %d %s: %s", e.SessionID, e.State, e.Reason)
}

// CommandError is a response with a non-OK status.
type CommandError struct {
	GroupID  uci.GroupID
	OpcodeID uci.OpcodeID
	Status   uci.Status
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %s", uci.Name(uci.MessageTypeCommand, e.GroupID, e.OpcodeID), e.Status)
}
