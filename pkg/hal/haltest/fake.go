// Package haltest provides a scriptable Transport for tests.
package haltest

import (
	"sync"
	"time"

	"github.com/robotalks/uci.go/pkg/hal"
	"github.com/robotalks/uci.go/pkg/uci"
)

// Responder produces the bytes the controller sends back for a write.
type Responder func(data []byte) [][]byte

// Fake is an in-memory Transport. Writes are captured in a channel and
// received bytes are injected by the test.
type Fake struct {
	// OpenErr is returned by Open.
	OpenErr error
	// OpenFailure is reported as EventError instead of completing Open.
	OpenFailure error
	// WriteErr is returned by Write.
	WriteErr error
	// IoctlErr is returned by Ioctl.
	IoctlErr error
	// Responder, when set, answers every write.
	Responder Responder

	lock    sync.Mutex
	onEvent hal.EventFunc
	onData  hal.DataFunc
	opens   int
	ioctls  []hal.IoctlOp
	writeCh chan []byte
}

// New creates a Fake.
func New() *Fake {
	return &Fake{writeCh: make(chan []byte, 256)}
}

// Open implements hal.Transport.
func (f *Fake) Open(onEvent hal.EventFunc, onData hal.DataFunc) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.OpenErr != nil {
		return f.OpenErr
	}
	f.onEvent, f.onData = onEvent, onData
	f.opens++
	failure := f.OpenFailure
	go func() {
		if failure != nil {
			onEvent(hal.EventError, failure)
		} else {
			onEvent(hal.EventOpenComplete, nil)
		}
	}()
	return nil
}

// Close implements hal.Transport.
func (f *Fake) Close() error {
	f.lock.Lock()
	onEvent := f.onEvent
	f.lock.Unlock()
	if onEvent == nil {
		return hal.ErrNotOpen
	}
	go onEvent(hal.EventCloseComplete, nil)
	return nil
}

// Write implements hal.Transport.
func (f *Fake) Write(data []byte) error {
	f.lock.Lock()
	err, responder := f.WriteErr, f.Responder
	f.lock.Unlock()
	if err != nil {
		return err
	}
	b := append([]byte(nil), data...)
	f.writeCh <- b
	if responder != nil {
		if replies := responder(b); len(replies) > 0 {
			go func() {
				for _, reply := range replies {
					f.Inject(reply)
				}
			}()
		}
	}
	return nil
}

// Ioctl implements hal.Transport.
func (f *Fake) Ioctl(op hal.IoctlOp, data []byte) ([]byte, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.ioctls = append(f.ioctls, op)
	return nil, f.IoctlErr
}

// SetWriteErr changes WriteErr safely while the engine runs.
func (f *Fake) SetWriteErr(err error) {
	f.lock.Lock()
	f.WriteErr = err
	f.lock.Unlock()
}

// SetResponder changes Responder safely while the engine runs.
func (f *Fake) SetResponder(r Responder) {
	f.lock.Lock()
	f.Responder = r
	f.lock.Unlock()
}

// Inject delivers received bytes.
func (f *Fake) Inject(data []byte) {
	f.lock.Lock()
	onData := f.onData
	f.lock.Unlock()
	if onData != nil {
		onData(append([]byte(nil), data...))
	}
}

// InjectPacket encodes and delivers a packet.
func (f *Fake) InjectPacket(pkt *uci.Packet) {
	b, err := pkt.Bytes()
	if err != nil {
		panic(err)
	}
	f.Inject(b)
}

// Fail reports a transport error.
func (f *Fake) Fail(err error) {
	f.lock.Lock()
	onEvent := f.onEvent
	f.lock.Unlock()
	if onEvent != nil {
		onEvent(hal.EventError, err)
	}
}

// Writes returns the chan of written bytes.
func (f *Fake) Writes() <-chan []byte {
	return f.writeCh
}

// NextWrite waits for the next write.
func (f *Fake) NextWrite(timeout time.Duration) ([]byte, bool) {
	select {
	case b := <-f.writeCh:
		return b, true
	case <-time.After(timeout):
		return nil, false
	}
}

// Opens returns how many times Open was called successfully.
func (f *Fake) Opens() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.opens
}

// Ioctls returns the control operations issued so far.
func (f *Fake) Ioctls() []hal.IoctlOp {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]hal.IoctlOp(nil), f.ioctls...)
}
