package engine

import (
	"context"
	"errors"

	"github.com/golang/glog"
	"github.com/looplab/fsm"
)

// DeviceState is the lifecycle state of the controller.
type DeviceState int

// Device states.
const (
	DeviceUninit DeviceState = iota
	DeviceAwaitingTransportOpen
	DeviceIdle
	DeviceActive
	DeviceClosing
	DeviceAwaitingTransportClose
)

var deviceStateNames = []string{
	"uninit",
	"awaiting-transport-open",
	"idle",
	"active",
	"closing",
	"awaiting-transport-close",
}

func (s DeviceState) String() string {
	if int(s) < len(deviceStateNames) {
		return deviceStateNames[s]
	}
	return "invalid"
}

// IsEnabled indicates commands can be exchanged with the controller.
func (s DeviceState) IsEnabled() bool {
	return s == DeviceIdle || s == DeviceActive
}

func parseDeviceState(name string) DeviceState {
	for n, s := range deviceStateNames {
		if s == name {
			return DeviceState(n)
		}
	}
	return DeviceUninit
}

const (
	evEnable          = "enable"
	evTransportReady  = "transport-ready"
	evOpenFailed      = "open-failed"
	evActivate        = "activate"
	evDeactivate      = "deactivate"
	evDisable         = "disable"
	evClose           = "close"
	evTransportClosed = "transport-closed"
	evTransportError  = "transport-error"
	evReset           = "reset"
)

// device drives DeviceState transitions. It's owned by the engine loop.
type device struct {
	fsm *fsm.FSM
}

func newDevice(onChange func(from, to DeviceState)) *device {
	s := func(states ...DeviceState) []string {
		names := make([]string, len(states))
		for n, st := range states {
			names[n] = st.String()
		}
		return names
	}
	return &device{
		fsm: fsm.NewFSM(
			DeviceUninit.String(),
			fsm.Events{
				{Name: evEnable, Src: s(DeviceUninit), Dst: DeviceAwaitingTransportOpen.String()},
				{Name: evTransportReady, Src: s(DeviceAwaitingTransportOpen), Dst: DeviceIdle.String()},
				{Name: evOpenFailed, Src: s(DeviceAwaitingTransportOpen), Dst: DeviceUninit.String()},
				{Name: evActivate, Src: s(DeviceIdle), Dst: DeviceActive.String()},
				{Name: evDeactivate, Src: s(DeviceActive), Dst: DeviceIdle.String()},
				{Name: evDisable, Src: s(DeviceIdle, DeviceActive), Dst: DeviceClosing.String()},
				{Name: evClose, Src: s(DeviceClosing), Dst: DeviceAwaitingTransportClose.String()},
				{Name: evTransportClosed, Src: s(DeviceClosing, DeviceAwaitingTransportClose), Dst: DeviceUninit.String()},
				{Name: evTransportError, Src: s(DeviceIdle, DeviceActive), Dst: DeviceAwaitingTransportOpen.String()},
				{Name: evReset, Src: s(DeviceIdle, DeviceActive), Dst: DeviceIdle.String()},
			},
			fsm.Callbacks{
				"enter_state": func(_ context.Context, e *fsm.Event) {
					from, to := parseDeviceState(e.Src), parseDeviceState(e.Dst)
					glog.Infof("device %s -> %s (%s)", from, to, e.Event)
					if onChange != nil {
						onChange(from, to)
					}
				},
			},
		),
	}
}

// State returns the current state.
func (d *device) State() DeviceState {
	return parseDeviceState(d.fsm.Current())
}

// Can checks if the event is allowed in the current state.
func (d *device) Can(event string) bool {
	return d.fsm.Can(event)
}

// Fire triggers a transition. A transition to the current state is not
// an error.
func (d *device) Fire(event string) error {
	err := d.fsm.Event(context.Background(), event)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
