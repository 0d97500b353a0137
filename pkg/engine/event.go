package engine

import (
	"fmt"

	"github.com/robotalks/uci.go/pkg/uci"
)

// EventKind classifies events delivered to the application.
type EventKind int

// Event kinds.
const (
	EventDeviceStatus EventKind = iota
	EventDeviceState
	EventGenericError
	EventSessionStatus
	EventMulticastList
	EventRangeData
	EventDataReceived
	EventDataTransferStatus
	EventDataCredit
	EventTest
	EventVendor
	EventSEError
	EventUnknown
	EventFatal
	EventRecovered
)

var eventKindNames = map[EventKind]string{
	EventDeviceStatus:       "device-status",
	EventDeviceState:        "device-state",
	EventGenericError:       "generic-error",
	EventSessionStatus:      "session-status",
	EventMulticastList:      "multicast-list",
	EventRangeData:          "range-data",
	EventDataReceived:       "data-received",
	EventDataTransferStatus: "data-transfer-status",
	EventDataCredit:         "data-credit",
	EventTest:               "test",
	EventVendor:             "vendor",
	EventSEError:            "se-error",
	EventUnknown:            "unknown",
	EventFatal:              "fatal",
	EventRecovered:          "recovered",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a normalized notification for the application. Only the
// fields relevant to Kind are set.
type Event struct {
	Kind         EventKind
	Packet       *uci.Packet
	SessionID    uint32
	SessionState uci.SessionState
	Reason       uci.ReasonCode
	Status       uci.Status
	DeviceStatus uci.DeviceStatus
	DeviceState  DeviceState
	Err          error
}

func (e Event) String() string {
	switch e.Kind {
	case EventSessionStatus:
		return fmt.Sprintf("%s session=%d state=%s reason=%s", e.Kind, e.SessionID, e.SessionState, e.Reason)
	case EventDeviceStatus:
		return fmt.Sprintf("%s %s", e.Kind, e.DeviceStatus)
	case EventDeviceState:
		return fmt.Sprintf("%s %s", e.Kind, e.DeviceState)
	case EventGenericError:
		return fmt.Sprintf("%s %s", e.Kind, e.Status)
	case EventFatal, EventUnknown, EventSEError:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Packet != nil {
		return fmt.Sprintf("%s session=%d %s", e.Kind, e.SessionID, e.Packet)
	}
	return e.Kind.String()
}

// EventHandler receives events from the engine loop. It must not block.
type EventHandler interface {
	HandleEvent(Event)
}

// HandleEventFunc is func type of EventHandler.
type HandleEventFunc func(Event)

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(ev Event) {
	f(ev)
}

// HandlerMux dispatches events to multiple handlers.
type HandlerMux []EventHandler

// Add adds handlers.
func (m *HandlerMux) Add(handlers ...EventHandler) *HandlerMux {
	*m = append(*m, handlers...)
	return m
}

// HandleEvent implements EventHandler.
func (m HandlerMux) HandleEvent(ev Event) {
	for _, h := range m {
		h.HandleEvent(ev)
	}
}
