package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/robotalks/uci.go/pkg/uci"
)

// Result is the terminal outcome of a command or a lifecycle operation.
type Result struct {
	Status       uci.Status
	Response     *uci.Packet
	Notification *uci.Packet
	Err          error
}

// OK indicates success.
func (r Result) OK() bool {
	return r.Err == nil
}

// Future resolves exactly once.
type Future struct {
	resultCh  chan Result
	once      sync.Once
	onResolve func(Result)
}

func newFuture() *Future {
	return &Future{resultCh: make(chan Result, 1)}
}

// ResultChan returns the chan to retrieve the result.
func (f *Future) ResultChan() <-chan Result {
	return f.resultCh
}

// Wait waits for the result or ctx. The returned error is the error of the
// result or of ctx.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-f.resultCh:
		return r, r.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (f *Future) resolve(r Result) {
	f.once.Do(func() {
		f.resultCh <- r
		if f.onResolve != nil {
			f.onResolve(r)
		}
	})
}

// Awaiter decides whether a notification completes a command after its
// successful response. It returns done for the awaited notification, and
// err when the notification reports a failure.
type Awaiter func(ntf *uci.Packet) (done bool, err error)

// RawCallback receives the response of a raw command.
type RawCallback func(rsp *uci.Packet)

// Command is a UCI command submitted to the engine.
type Command struct {
	*Future

	packet      *uci.Packet
	frames      [][]byte
	raw         bool
	rawCallback RawCallback
	await       Awaiter
	internal    bool
	response    *uci.Packet
}

// NewCommand creates a command from a packet.
func NewCommand(pkt *uci.Packet) *Command {
	return &Command{Future: newFuture(), packet: pkt}
}

// NewRawCommand creates a command sent verbatim. Its response, whatever
// group it belongs to, is delivered to cb and to the result.
func NewRawCommand(data []byte, cb RawCallback) (*Command, error) {
	h, err := uci.DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if h.MessageType != uci.MessageTypeCommand {
		return nil, fmt.Errorf("%w: raw %s is not a command", uci.ErrMalformedHeader, h.MessageType)
	}
	if len(data) != h.Size() {
		return nil, fmt.Errorf("%w: declared %d payload bytes, got %d", uci.ErrMalformedHeader, h.Length, len(data)-uci.HeaderSize)
	}
	b := append([]byte(nil), data...)
	return &Command{
		Future: newFuture(),
		packet: &uci.Packet{
			MessageType: h.MessageType,
			PBF:         h.PBF,
			GroupID:     h.GroupID,
			OpcodeID:    h.OpcodeID,
			Payload:     b[uci.HeaderSize:],
		},
		frames:      [][]byte{b},
		raw:         true,
		rawCallback: cb,
	}, nil
}

// Await sets the notification completing the command.
func (c *Command) Await(fn Awaiter) *Command {
	c.await = fn
	return c
}

// Packet returns the command packet.
func (c *Command) Packet() *uci.Packet {
	return c.packet
}

// IsRaw indicates the command is sent verbatim.
func (c *Command) IsRaw() bool {
	return c.raw
}

func (c *Command) String() string {
	if c.raw {
		return fmt.Sprintf("raw %s", c.packet.Name())
	}
	return c.packet.Name()
}

func (c *Command) encode() error {
	if c.frames != nil {
		return nil
	}
	frames, err := c.packet.Segments(uci.MaxPayloadSize)
	if err != nil {
		return err
	}
	c.frames = frames
	return nil
}

// matches checks the response against the command. A raw command takes
// any response.
func (c *Command) matches(rsp *uci.Packet) bool {
	if rsp.MessageType != uci.MessageTypeResponse {
		return false
	}
	return c.raw || (rsp.GroupID == c.packet.GroupID && rsp.OpcodeID == c.packet.OpcodeID)
}

// AwaitSessionState completes when the session reaches want. A state
// change of the session with a controller initiated reason fails it.
func AwaitSessionState(id uint32, want uci.SessionState) Awaiter {
	return func(ntf *uci.Packet) (bool, error) {
		if !ntf.Is(uci.MessageTypeNotification, uci.GroupSession, uci.OpcodeSessionStatus) {
			return false, nil
		}
		st, err := uci.ParseSessionStatus(ntf)
		if err != nil || st.SessionID != id {
			return false, nil
		}
		if st.State == want {
			return true, nil
		}
		if st.State == uci.SessionStateError || !st.Reason.IsRequested() {
			return true, &SessionFault{SessionID: id, State: st.State, Reason: st.Reason}
		}
		return false, nil
	}
}

// AwaitDeviceStatus completes when the device reports want.
func AwaitDeviceStatus(want uci.DeviceStatus) Awaiter {
	return func(ntf *uci.Packet) (bool, error) {
		if !ntf.Is(uci.MessageTypeNotification, uci.GroupCore, uci.OpcodeCoreDeviceStatus) {
			return false, nil
		}
		st, err := uci.ParseDeviceStatus(ntf)
		if err != nil {
			return false, nil
		}
		if st == want {
			return true, nil
		}
		if st == uci.DeviceStatusError {
			return true, &DeviceError{DeviceStatus: st}
		}
		return false, nil
	}
}

// AwaitDataTransfer completes on the transfer status of the data packet.
func AwaitDataTransfer(id uint32, seq uint16) Awaiter {
	return func(ntf *uci.Packet) (bool, error) {
		if !ntf.Is(uci.MessageTypeNotification, uci.GroupData, uci.OpcodeDataTransferStatus) {
			return false, nil
		}
		st, err := uci.ParseDataTransferStatus(ntf)
		if err != nil || st.SessionID != id || st.Sequence != seq {
			return false, nil
		}
		if st.Status != uci.StatusOK {
			return true, &CommandError{GroupID: uci.GroupData, OpcodeID: uci.OpcodeDataSend, Status: st.Status}
		}
		return true, nil
	}
}
