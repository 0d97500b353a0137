package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/robotalks/uci.go/pkg/hal"
	"github.com/robotalks/uci.go/pkg/uci"
)

// Engine owns the protocol state of one controller. All state is mutated
// by the goroutine running Run; other goroutines interact by posting
// messages.
type Engine struct {
	config    Config
	transport hal.Transport
	handler   EventHandler

	mailbox *mailbox
	running atomic.Bool
	doneCh  chan struct{}
	stats   counters

	// Owned by the loop.
	device        *device
	queue         *CommandQueue
	parser        *uci.Parser
	reasm         *uci.Reassembler
	sessions      sessionTable
	waiters       []*Command
	respTimer     <-chan time.Time
	reasmTimer    <-chan time.Time
	recoveryTimer <-chan time.Time
	recovering    bool
	reopens       int
	enabling      *Future
	disabling     *Future
	quiet         bool
}

// New creates an Engine over the transport. Events are delivered to
// handler from the loop goroutine.
func New(t hal.Transport, handler EventHandler, config Config) (*Engine, error) {
	if err := config.Valid(); err != nil {
		return nil, err
	}
	e := &Engine{
		config:    config,
		transport: t,
		handler:   handler,
		mailbox:   newMailbox(),
		doneCh:    make(chan struct{}),
		parser:    uci.NewParser(config.MaxPacketSize),
		reasm:     uci.NewReassembler(config.MaxPacketSize),
		sessions:  make(sessionTable),
	}
	e.device = newDevice(e.deviceStateChanged)
	e.queue = NewCommandQueue(e.write)
	e.queue.MaxRetry = config.retries()
	e.queue.MaxDepth = config.MaxQueueDepth
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Run runs the loop until ctx is done. On exit, everything outstanding
// resolves with ErrClosed and no more events are delivered.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.shutdown()
	glog.V(4).Infof("engine loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.mailbox.wakeUpCh:
			lst := e.mailbox.take()
			for item := lst.head; item != nil; item = item.next {
				e.process(item.msg)
			}
		case <-e.respTimer:
			e.respTimer = nil
			e.responseTimeout()
		case <-e.reasmTimer:
			e.reasmTimer = nil
			e.reassemblyTimeout()
		case <-e.recoveryTimer:
			e.recoveryTimer = nil
			e.recoveryTimeout()
		}
	}
}

// Done is closed when Run exits.
func (e *Engine) Done() <-chan struct{} {
	return e.doneCh
}

// Enable opens the transport and brings the controller to Idle.
func (e *Engine) Enable() *Future {
	f := newFuture()
	if !e.mailbox.post(enableMessage{future: f}) {
		f.resolve(Result{Err: ErrClosed})
	}
	return f
}

// Disable flushes everything outstanding and closes the transport.
func (e *Engine) Disable() *Future {
	f := newFuture()
	if !e.mailbox.post(disableMessage{future: f}) {
		f.resolve(Result{Err: ErrClosed})
	}
	return f
}

// Submit posts a command. It fails only when the engine is stopped; any
// later failure resolves the command.
func (e *Engine) Submit(cmd *Command) error {
	if !e.mailbox.post(submitMessage{cmd: cmd}) {
		cmd.resolve(Result{Err: ErrClosed})
		return ErrClosed
	}
	return nil
}

// Cancel stops waiting for a command not yet transmitted or waiting for
// its notification, and resolves it with err. A transmitted command is
// left to complete as only one response can be outstanding.
func (e *Engine) Cancel(cmd *Command, err error) bool {
	var cancelled bool
	e.call(func() {
		if e.queue.Remove(cmd) || e.removeWaiter(cmd) {
			cancelled = true
			cmd.resolve(Result{Err: err})
		}
	})
	return cancelled
}

// DeviceState returns the current device state.
func (e *Engine) DeviceState() DeviceState {
	state := DeviceUninit
	e.call(func() { state = e.device.State() })
	return state
}

// Session returns the tracked state of a session.
func (e *Engine) Session(id uint32) (info SessionInfo, ok bool) {
	e.call(func() { info, ok = e.sessions.get(id) })
	return
}

// Sessions returns the tracked sessions ordered by id.
func (e *Engine) Sessions() (infos []SessionInfo) {
	e.call(func() { infos = e.sessions.list() })
	return
}

// Stats returns the counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// call runs fn on the loop and waits for it.
func (e *Engine) call(fn func()) error {
	done := make(chan struct{})
	if !e.mailbox.post(callMessage{fn: fn, done: done}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-e.doneCh:
		return ErrClosed
	}
}

func (e *Engine) process(msg message) {
	switch m := msg.(type) {
	case dataMessage:
		e.receive(m)
	case transportMessage:
		e.transportEvent(m.event, m.err)
	case submitMessage:
		e.submit(m.cmd)
	case enableMessage:
		e.enable(m.future)
	case disableMessage:
		e.disable(m.future)
	case callMessage:
		m.fn()
		close(m.done)
	default:
		glog.Errorf("unknown message %T", msg)
	}
}

func (e *Engine) onTransportEvent(ev hal.Event, err error) {
	e.mailbox.post(transportMessage{event: ev, err: err})
}

func (e *Engine) onTransportData(data []byte) {
	e.mailbox.post(dataMessage(data))
}

func (e *Engine) write(frames [][]byte) error {
	for _, frame := range frames {
		if glog.V(2) {
			glog.Infof("TX %x", frame)
		}
		if err := e.transport.Write(frame); err != nil {
			return err
		}
		e.stats.tx.Inc()
	}
	return nil
}

func (e *Engine) emit(ev Event) {
	if e.quiet || e.handler == nil {
		return
	}
	glog.V(4).Infof("event %s", ev)
	e.handler.HandleEvent(ev)
}

func (e *Engine) deviceStateChanged(from, to DeviceState) {
	e.emit(Event{Kind: EventDeviceState, DeviceState: to})
}

func (e *Engine) setTimer(action TimerAction) {
	switch action {
	case TimerRestart:
		e.respTimer = e.config.Clock.After(e.config.ResponseTimeout)
	case TimerRetry:
		e.respTimer = e.config.Clock.After(e.config.RetryTimeout)
	case TimerStop:
		e.respTimer = nil
	}
}

func (e *Engine) submit(cmd *Command) {
	if !cmd.internal {
		if e.recovering {
			cmd.resolve(Result{Err: ErrRecoveryInProgress})
			return
		}
		if !e.device.State().IsEnabled() {
			cmd.resolve(Result{Err: ErrNotEnabled})
			return
		}
	}
	action, err := e.queue.Submit(cmd)
	if err != nil {
		glog.Errorf("submit %s: %v", cmd, err)
		cmd.resolve(Result{Err: err})
		return
	}
	e.setTimer(action)
}

func (e *Engine) resetCommand() *Command {
	cmd := NewCommand(uci.DeviceReset()).Await(AwaitDeviceStatus(uci.DeviceStatusReady))
	cmd.internal = true
	return cmd
}

func (e *Engine) responseTimeout() {
	expired, action := e.queue.OnTimeout()
	e.setTimer(action)
	if expired == nil {
		if action == TimerRetry {
			e.stats.retx.Inc()
		}
		return
	}
	e.stats.timeouts.Inc()
	glog.Errorf("%s: no response after %d retries", expired, e.config.retries())
	expired.resolve(Result{Err: fmt.Errorf("%w: %s", ErrCommandTimeout, expired)})
	if e.recovering {
		e.flush(ErrRecoveryFailed)
		e.endRecovery(fmt.Errorf("%w: %s timeout", ErrRecoveryFailed, expired))
		return
	}
	e.recover(ErrDeviceNotResponding, reinitReset)
}

func (e *Engine) reassemblyTimeout() {
	if !e.reasm.InProgress() {
		return
	}
	glog.Warningf("reassembly timeout after %s, discarded", e.config.ReassemblyTimeout)
	e.reasm.Reset()
	e.stats.dropped.Inc()
}

func (e *Engine) flush(cause error) {
	e.respTimer = nil
	for _, cmd := range e.queue.Flush() {
		cmd.resolve(Result{Err: cause})
	}
	for _, cmd := range e.waiters {
		cmd.resolve(Result{Status: uci.StatusOK, Response: cmd.response, Err: cause})
	}
	e.waiters = nil
}

func (e *Engine) removeWaiter(cmd *Command) bool {
	for n, c := range e.waiters {
		if c == cmd {
			e.waiters = append(e.waiters[:n], e.waiters[n+1:]...)
			return true
		}
	}
	return false
}

func (e *Engine) enable(f *Future) {
	switch state := e.device.State(); {
	case state.IsEnabled():
		f.resolve(Result{})
		return
	case state != DeviceUninit:
		f.resolve(Result{Err: fmt.Errorf("%w: device %s", ErrBusy, state)})
		return
	}
	e.device.Fire(evEnable)
	if err := e.transport.Open(e.onTransportEvent, e.onTransportData); err != nil {
		e.device.Fire(evOpenFailed)
		f.resolve(Result{Err: &TransportError{Op: "open", Err: err}})
		return
	}
	e.enabling = f
}

func (e *Engine) disable(f *Future) {
	switch state := e.device.State(); {
	case state == DeviceUninit:
		f.resolve(Result{})
		return
	case state == DeviceAwaitingTransportOpen && e.recovering:
		glog.Warningf("disable aborts transport reopen")
		e.recovering, e.recoveryTimer = false, nil
		e.device.Fire(evOpenFailed)
		e.closeTransport()
		f.resolve(Result{})
		return
	case !state.IsEnabled():
		f.resolve(Result{Err: fmt.Errorf("%w: device %s", ErrBusy, state)})
		return
	}
	e.recovering, e.recoveryTimer = false, nil
	e.device.Fire(evDisable)
	e.flush(ErrClosed)
	e.sessions.clear()
	e.reasm.Reset()
	e.reasmTimer = nil
	e.device.Fire(evClose)
	if err := e.transport.Close(); err != nil {
		glog.Errorf("close transport: %v", err)
		e.device.Fire(evTransportClosed)
		f.resolve(Result{Err: &TransportError{Op: "close", Err: err}})
		return
	}
	e.disabling = f
}

func (e *Engine) closeTransport() {
	if err := e.transport.Close(); err != nil {
		glog.V(4).Infof("close transport: %v", err)
	}
}

func (e *Engine) transportEvent(ev hal.Event, err error) {
	glog.V(4).Infof("transport %s: %v", ev, err)
	switch ev {
	case hal.EventOpenComplete:
		e.transportOpened()
	case hal.EventCloseComplete:
		e.transportClosed()
	case hal.EventError:
		e.transportFailed(err)
	}
}

func (e *Engine) transportOpened() {
	if e.device.State() != DeviceAwaitingTransportOpen {
		glog.Warningf("transport opened in state %s, ignored", e.device.State())
		return
	}
	e.parser.Reset()
	e.reasm.Reset()
	e.device.Fire(evTransportReady)
	if e.recovering {
		e.submit(e.resetCommand())
		return
	}
	f := e.enabling
	e.enabling = nil
	if f == nil {
		return
	}
	if e.config.SkipReset {
		f.resolve(Result{})
		return
	}
	cmd := e.resetCommand()
	cmd.onResolve = f.resolve
	e.submit(cmd)
}

func (e *Engine) transportClosed() {
	switch e.device.State() {
	case DeviceClosing, DeviceAwaitingTransportClose:
		e.device.Fire(evTransportClosed)
		if f := e.disabling; f != nil {
			e.disabling = nil
			f.resolve(Result{})
		}
	default:
		glog.V(4).Infof("transport closed in state %s", e.device.State())
	}
}

func (e *Engine) transportFailed(err error) {
	cause := &TransportError{Op: "io", Err: err}
	switch state := e.device.State(); {
	case state == DeviceAwaitingTransportOpen && e.recovering:
		e.reopen(cause)
	case state == DeviceAwaitingTransportOpen:
		glog.Errorf("open transport: %v", err)
		e.device.Fire(evOpenFailed)
		if f := e.enabling; f != nil {
			e.enabling = nil
			f.resolve(Result{Err: &TransportError{Op: "open", Err: err}})
		}
	case state.IsEnabled():
		e.device.Fire(evTransportError)
		e.recover(cause, reinitReopen)
	case state == DeviceClosing || state == DeviceAwaitingTransportClose:
		glog.Warningf("transport error while closing: %v", err)
		e.transportClosed()
	default:
		glog.Warningf("transport error in state %s: %v", state, err)
	}
}

func (e *Engine) shutdown() {
	e.quiet = true
	lst := e.mailbox.close()
	for item := lst.head; item != nil; item = item.next {
		switch m := item.msg.(type) {
		case submitMessage:
			m.cmd.resolve(Result{Err: ErrClosed})
		case enableMessage:
			m.future.resolve(Result{Err: ErrClosed})
		case disableMessage:
			m.future.resolve(Result{Err: ErrClosed})
		}
	}
	e.flush(ErrClosed)
	e.reasmTimer, e.recoveryTimer = nil, nil
	for _, f := range []*Future{e.enabling, e.disabling} {
		if f != nil {
			f.resolve(Result{Err: ErrClosed})
		}
	}
	e.enabling, e.disabling = nil, nil
	if e.device.State() != DeviceUninit {
		e.closeTransport()
	}
	close(e.doneCh)
	glog.V(4).Infof("engine loop stopped")
}
