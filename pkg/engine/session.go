package engine

import (
	"sort"

	"github.com/golang/glog"
	"github.com/robotalks/uci.go/pkg/uci"
)

// SessionInfo is a snapshot of a tracked session.
type SessionInfo struct {
	ID     uint32
	State  uci.SessionState
	Reason uci.ReasonCode
}

// IsActive indicates the session is ranging.
func (s SessionInfo) IsActive() bool {
	return s.State == uci.SessionStateActive
}

type sessionTable map[uint32]*SessionInfo

// update applies a session status notification. It returns a
// SessionFault when the change wasn't requested by the host.
func (t sessionTable) update(ntf uci.SessionStatusNtf) *SessionFault {
	if ntf.State == uci.SessionStateDeinit {
		delete(t, ntf.SessionID)
	} else {
		info := t[ntf.SessionID]
		if info == nil {
			info = &SessionInfo{ID: ntf.SessionID}
			t[ntf.SessionID] = info
		}
		info.State, info.Reason = ntf.State, ntf.Reason
		if ntf.Reason.IsConfigError() {
			info.State = uci.SessionStateError
		}
	}
	if ntf.Reason.IsRequested() && ntf.State != uci.SessionStateError {
		return nil
	}
	fault := &SessionFault{SessionID: ntf.SessionID, State: ntf.State, Reason: ntf.Reason}
	if info := t[ntf.SessionID]; info != nil {
		fault.State = info.State
	}
	glog.Warningf("session %d: %s", ntf.SessionID, fault)
	return fault
}

func (t sessionTable) anyActive() bool {
	for _, info := range t {
		if info.IsActive() {
			return true
		}
	}
	return false
}

func (t sessionTable) get(id uint32) (SessionInfo, bool) {
	if info := t[id]; info != nil {
		return *info, true
	}
	return SessionInfo{}, false
}

func (t sessionTable) list() []SessionInfo {
	infos := make([]SessionInfo, 0, len(t))
	for _, info := range t {
		infos = append(infos, *info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (t sessionTable) clear() {
	for id := range t {
		delete(t, id)
	}
}
