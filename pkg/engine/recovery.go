package engine

import (
	"fmt"

	"github.com/golang/glog"
)

type reinitMode int

const (
	// reinitNone only notifies, the controller state is left to the
	// application.
	reinitNone reinitMode = iota
	// reinitReset resets the controller through the variant.
	reinitReset
	// reinitReopen reopens the transport then resets the controller with
	// DEVICE_RESET.
	reinitReopen
)

// recover runs a recovery pass: stop the timers, flush, notify, then
// bring the controller back according to mode. Triggers while a pass is
// in progress are ignored.
func (e *Engine) recover(cause error, mode reinitMode) {
	if e.recovering {
		glog.Warningf("recovery in progress, ignore: %v", cause)
		return
	}
	e.recovering = true
	e.stats.recoveries.Inc()
	glog.Errorf("recovery: %v", cause)

	e.respTimer, e.reasmTimer = nil, nil
	e.reasm.Reset()
	e.flush(cause)
	e.emit(Event{Kind: EventFatal, Err: cause})

	switch mode {
	case reinitNone:
		e.recovering = false
	case reinitReset:
		e.sessions.clear()
		e.device.Fire(evReset)
		e.recoveryTimer = e.config.Clock.After(e.config.RecoveryTimeout)
		if err := e.config.Variant.Reset(e.transport); err != nil {
			glog.Errorf("%s reset: %v", e.config.Variant.Name(), err)
			e.endRecovery(fmt.Errorf("%w: %v", ErrRecoveryFailed, err))
		}
	case reinitReopen:
		e.sessions.clear()
		e.parser.Reset()
		e.reopens = 0
		e.recoveryTimer = e.config.Clock.After(e.config.RecoveryTimeout)
		e.reopen(cause)
	}
}

// reopen opens the transport again, up to MaxReopen times per recovery.
func (e *Engine) reopen(cause error) {
	for {
		if e.reopens >= e.config.reopens() {
			e.device.Fire(evOpenFailed)
			e.endRecovery(fmt.Errorf("%w: %v", ErrRecoveryFailed, cause))
			return
		}
		e.reopens++
		glog.Warningf("reopen transport %d/%d", e.reopens, e.config.reopens())
		err := e.transport.Open(e.onTransportEvent, e.onTransportData)
		if err == nil {
			return
		}
		cause = &TransportError{Op: "open", Err: err}
	}
}

// endRecovery finishes the recovery pass. A nil err reports the
// controller is back.
func (e *Engine) endRecovery(err error) {
	if !e.recovering {
		return
	}
	e.recovering, e.recoveryTimer = false, nil
	if err != nil {
		glog.Errorf("recovery failed: %v", err)
		e.emit(Event{Kind: EventFatal, Err: err})
		return
	}
	glog.Infof("recovered")
	e.emit(Event{Kind: EventRecovered})
}

func (e *Engine) recoveryTimeout() {
	if !e.recovering {
		return
	}
	e.flush(ErrRecoveryFailed)
	if e.device.State() == DeviceAwaitingTransportOpen {
		e.closeTransport()
		e.device.Fire(evOpenFailed)
	}
	e.endRecovery(fmt.Errorf("%w: no device status within %s", ErrRecoveryFailed, e.config.RecoveryTimeout))
}
