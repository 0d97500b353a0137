package engine

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/uci.go/pkg/uci"
)

type notificationHandler func(e *Engine, ntf *uci.Packet)

var notificationHandlers = map[uci.GroupID]map[uci.OpcodeID]notificationHandler{
	uci.GroupCore: {
		uci.OpcodeCoreDeviceStatus: (*Engine).onDeviceStatus,
		uci.OpcodeCoreGenericError: (*Engine).onGenericError,
	},
	uci.GroupSession: {
		uci.OpcodeSessionStatus:              (*Engine).onSessionStatus,
		uci.OpcodeSessionUpdateMulticastList: (*Engine).onMulticastList,
	},
	uci.GroupRange: {
		uci.OpcodeRangeData: (*Engine).onRangeData,
	},
	uci.GroupData: {
		uci.OpcodeDataReceive:        (*Engine).onDataReceive,
		uci.OpcodeDataTransferStatus: (*Engine).onDataTransferStatus,
		uci.OpcodeDataCredit:         (*Engine).onDataCredit,
	},
	uci.GroupTest: {
		uci.OpcodeTestPeriodicTx: (*Engine).onTest,
		uci.OpcodeTestPerRx:      (*Engine).onTest,
		uci.OpcodeTestRx:         (*Engine).onTest,
		uci.OpcodeTestLoopback:   (*Engine).onTest,
	},
}

func (e *Engine) receive(data []byte) {
	if glog.V(2) {
		glog.Infof("RX %x", data)
	}
	frags, err := e.parser.Parse(data)
	for _, frag := range frags {
		e.stats.rx.Inc()
		e.fragment(frag)
	}
	if err != nil {
		glog.Warningf("drop received bytes: %v", err)
		e.stats.dropped.Inc()
	}
}

func (e *Engine) fragment(frag *uci.Packet) {
	pkt, err := e.reasm.Push(frag)
	switch {
	case !e.reasm.InProgress():
		e.reasmTimer = nil
	case err == nil && frag.PBF:
		e.reasmTimer = e.config.Clock.After(e.config.ReassemblyTimeout)
	}
	if err != nil {
		glog.Warningf("drop fragment: %v", err)
		e.stats.dropped.Inc()
		return
	}
	if pkt != nil {
		e.route(pkt)
	}
}

func (e *Engine) route(pkt *uci.Packet) {
	switch pkt.MessageType {
	case uci.MessageTypeResponse:
		e.response(pkt)
	case uci.MessageTypeNotification:
		e.notification(pkt)
	case uci.MessageTypeData:
		e.dataMessage(pkt)
	default:
		glog.Warningf("drop %s from controller", pkt.Name())
		e.stats.dropped.Inc()
	}
}

func (e *Engine) unknown(pkt *uci.Packet) {
	glog.Warningf("unknown %s", pkt)
	e.emit(Event{Kind: EventUnknown, Packet: pkt, Err: fmt.Errorf("%w: %s", ErrUnknownGroupOrOpcode, pkt.Name())})
}

func (e *Engine) response(rsp *uci.Packet) {
	cmd, action, err := e.queue.OnResponse(rsp)
	if err != nil {
		glog.Warningf("drop response: %v", err)
		e.stats.dropped.Inc()
		return
	}
	e.setTimer(action)

	if cmd.raw {
		status, _ := rsp.Status()
		if cmd.rawCallback != nil {
			cmd.rawCallback(rsp)
		}
		cmd.resolve(Result{Status: status, Response: rsp})
		return
	}
	if !uci.Known(rsp.MessageType, rsp.GroupID, rsp.OpcodeID) {
		e.unknown(rsp)
	}
	status, err := rsp.Status()
	if status == uci.StatusOK && rsp.GroupID == uci.GroupCore && rsp.OpcodeID == uci.OpcodeCoreDeviceReset {
		e.sessions.clear()
		if e.device.Can(evDeactivate) {
			e.device.Fire(evDeactivate)
		}
	}
	switch {
	case err != nil:
		cmd.resolve(Result{Response: rsp, Err: err})
	case status != uci.StatusOK:
		cmd.resolve(Result{Status: status, Response: rsp, Err: &CommandError{
			GroupID:  rsp.GroupID,
			OpcodeID: rsp.OpcodeID,
			Status:   status,
		}})
	case cmd.await != nil:
		cmd.response = rsp
		e.waiters = append(e.waiters, cmd)
	default:
		cmd.resolve(Result{Status: status, Response: rsp})
	}
}

func (e *Engine) notification(ntf *uci.Packet) {
	var handler notificationHandler
	if ntf.GroupID == uci.GroupProprietary {
		handler = (*Engine).onVendor
	} else if handlers := notificationHandlers[ntf.GroupID]; handlers != nil {
		handler = handlers[ntf.OpcodeID]
	}
	if handler == nil {
		e.unknown(ntf)
		return
	}
	handler(e, ntf)
	e.resolveWaiters(ntf)
}

func (e *Engine) resolveWaiters(ntf *uci.Packet) {
	if len(e.waiters) == 0 {
		return
	}
	kept := e.waiters[:0]
	for _, cmd := range e.waiters {
		done, err := cmd.await(ntf)
		if !done {
			kept = append(kept, cmd)
			continue
		}
		cmd.resolve(Result{Status: uci.StatusOK, Response: cmd.response, Notification: ntf, Err: err})
	}
	for n := len(kept); n < len(e.waiters); n++ {
		e.waiters[n] = nil
	}
	e.waiters = kept
}

func (e *Engine) malformed(pkt *uci.Packet, err error) {
	glog.Warningf("drop %s: %v", pkt.Name(), err)
	e.stats.dropped.Inc()
}

func (e *Engine) onDeviceStatus(ntf *uci.Packet) {
	status, err := uci.ParseDeviceStatus(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	e.emit(Event{Kind: EventDeviceStatus, Packet: ntf, DeviceStatus: status})
	switch status {
	case uci.DeviceStatusError:
		e.recover(&DeviceError{DeviceStatus: status}, reinitNone)
	case uci.DeviceStatusReady:
		if e.recovering && e.recoveryTimer != nil {
			e.endRecovery(nil)
		}
	}
}

func (e *Engine) onGenericError(ntf *uci.Packet) {
	status, err := uci.ParseGenericError(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	switch status {
	case uci.StatusCommandRetry:
		action, err := e.queue.Retransmit()
		if err != nil {
			glog.Warningf("retransmit requested: %v", err)
			return
		}
		glog.Warningf("retransmit %s on request", e.queue.Pending())
		e.stats.retx.Inc()
		e.setTimer(action)
	case uci.StatusThermalRunaway:
		e.recover(&DeviceError{Status: status, Err: ErrThermalRunaway}, reinitNone)
	default:
		e.emit(Event{Kind: EventGenericError, Packet: ntf, Status: status})
	}
}

func (e *Engine) onSessionStatus(ntf *uci.Packet) {
	st, err := uci.ParseSessionStatus(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	ev := Event{
		Kind:         EventSessionStatus,
		Packet:       ntf,
		SessionID:    st.SessionID,
		SessionState: st.State,
		Reason:       st.Reason,
	}
	if fault := e.sessions.update(st); fault != nil {
		ev.Err = fault
	}
	e.emit(ev)

	active := e.sessions.anyActive()
	if active && e.device.Can(evActivate) {
		e.device.Fire(evActivate)
	} else if !active && e.device.Can(evDeactivate) {
		e.device.Fire(evDeactivate)
	}
}

func (e *Engine) onMulticastList(ntf *uci.Packet) {
	ml, err := uci.ParseMulticastListNtf(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	e.emit(Event{Kind: EventMulticastList, Packet: ntf, SessionID: ml.SessionID})
}

func (e *Engine) onRangeData(ntf *uci.Packet) {
	h, err := uci.ParseRangeDataHeader(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	e.emit(Event{Kind: EventRangeData, Packet: ntf, SessionID: h.SessionID})
}

func (e *Engine) onDataReceive(ntf *uci.Packet) {
	rcv, err := uci.ParseDataReceive(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	e.emit(Event{Kind: EventDataReceived, Packet: ntf, SessionID: rcv.SessionID, Status: rcv.Status})
}

func (e *Engine) onDataTransferStatus(ntf *uci.Packet) {
	st, err := uci.ParseDataTransferStatus(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	e.emit(Event{Kind: EventDataTransferStatus, Packet: ntf, SessionID: st.SessionID, Status: st.Status})
}

func (e *Engine) onDataCredit(ntf *uci.Packet) {
	credit, err := uci.ParseDataCredit(ntf)
	if err != nil {
		e.malformed(ntf, err)
		return
	}
	e.emit(Event{Kind: EventDataCredit, Packet: ntf, SessionID: credit.SessionID})
}

func (e *Engine) onTest(ntf *uci.Packet) {
	e.emit(Event{Kind: EventTest, Packet: ntf})
}

func (e *Engine) onVendor(ntf *uci.Packet) {
	if ntf.OpcodeID != uci.OpcodeVendorSEComError {
		e.emit(Event{Kind: EventVendor, Packet: ntf})
		return
	}
	status, _ := ntf.Status()
	glog.Errorf("secure element communication error: %s", status)
	ev := Event{Kind: EventSEError, Packet: ntf, Status: status}
	if err := e.config.Variant.ResetSE(e.transport); err != nil {
		glog.Errorf("reset secure element: %v", err)
		ev.Err = err
	}
	e.emit(ev)
}

// dataMessage handles packets with the DATA message type, carrying
// application data received in a session.
func (e *Engine) dataMessage(pkt *uci.Packet) {
	if pkt.GroupID != uci.GroupData {
		e.unknown(pkt)
		return
	}
	ev := Event{Kind: EventDataReceived, Packet: pkt}
	if id, err := uci.SessionID(pkt.Payload); err == nil {
		ev.SessionID = id
	}
	e.emit(ev)
}
