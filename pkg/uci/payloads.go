package uci

import "encoding/binary"

// SessionID reads the session id leading a session scoped payload.
func SessionID(payload []byte) (uint32, error) {
	if len(payload) < sessionIDSize {
		return 0, malformed("session id needs %d bytes, got %d", sessionIDSize, len(payload))
	}
	return binary.LittleEndian.Uint32(payload), nil
}

// ParseDeviceStatus parses CORE_DEVICE_STATUS_NTF.
func ParseDeviceStatus(p *Packet) (DeviceStatus, error) {
	if len(p.Payload) < 1 {
		return DeviceStatusError, malformed("empty device status")
	}
	return DeviceStatus(p.Payload[0]), nil
}

// ParseGenericError parses CORE_GENERIC_ERROR_NTF.
func ParseGenericError(p *Packet) (Status, error) {
	return p.Status()
}

// SessionStatusNtf is the content of SESSION_STATUS_NTF.
type SessionStatusNtf struct {
	SessionID uint32
	State     SessionState
	Reason    ReasonCode
}

// ParseSessionStatus parses SESSION_STATUS_NTF.
func ParseSessionStatus(p *Packet) (ntf SessionStatusNtf, err error) {
	if len(p.Payload) < sessionIDSize+2 {
		return ntf, malformed("session status of %d bytes", len(p.Payload))
	}
	ntf.SessionID = binary.LittleEndian.Uint32(p.Payload)
	ntf.State = SessionState(p.Payload[4])
	ntf.Reason = ReasonCode(p.Payload[5])
	return ntf, nil
}

// ControleeStatus is one entry of the multicast list notification.
type ControleeStatus struct {
	ShortAddress uint16
	SubSessionID uint32
	Status       Status
}

// MulticastListNtf is the content of
// SESSION_UPDATE_CONTROLLER_MULTICAST_LIST_NTF.
type MulticastListNtf struct {
	SessionID  uint32
	Remaining  int
	Controlees []ControleeStatus
}

const controleeStatusSize = 7

// ParseMulticastListNtf parses the multicast list notification. The
// entry count is validated against the received length.
func ParseMulticastListNtf(p *Packet) (ntf MulticastListNtf, err error) {
	b := p.Payload
	if len(b) < sessionIDSize+2 {
		return ntf, malformed("multicast list notification of %d bytes", len(b))
	}
	ntf.SessionID = binary.LittleEndian.Uint32(b)
	ntf.Remaining = int(b[4])
	count := int(b[5])
	b = b[6:]
	if count*controleeStatusSize > len(b) {
		return ntf, malformed("%d controlees need %d bytes, got %d", count, count*controleeStatusSize, len(b))
	}
	ntf.Controlees = make([]ControleeStatus, count)
	for n := range ntf.Controlees {
		e := b[n*controleeStatusSize:]
		ntf.Controlees[n] = ControleeStatus{
			ShortAddress: binary.LittleEndian.Uint16(e),
			SubSessionID: binary.LittleEndian.Uint32(e[2:]),
			Status:       Status(e[6]),
		}
	}
	return ntf, nil
}

// RangeDataHeader is the leading part of RANGE_DATA_NTF. Measurements
// following it are carried opaquely.
type RangeDataHeader struct {
	Sequence  uint32
	SessionID uint32
}

// ParseRangeDataHeader parses the leading part of RANGE_DATA_NTF.
func ParseRangeDataHeader(p *Packet) (h RangeDataHeader, err error) {
	if len(p.Payload) < 8 {
		return h, malformed("range data of %d bytes", len(p.Payload))
	}
	h.Sequence = binary.LittleEndian.Uint32(p.Payload)
	h.SessionID = binary.LittleEndian.Uint32(p.Payload[4:])
	return h, nil
}

// DataCreditNtf is the content of DATA_CREDIT_NTF.
type DataCreditNtf struct {
	SessionID uint32
	Available bool
}

// ParseDataCredit parses DATA_CREDIT_NTF.
func ParseDataCredit(p *Packet) (ntf DataCreditNtf, err error) {
	if len(p.Payload) < sessionIDSize+1 {
		return ntf, malformed("data credit of %d bytes", len(p.Payload))
	}
	ntf.SessionID = binary.LittleEndian.Uint32(p.Payload)
	ntf.Available = p.Payload[4] != 0
	return ntf, nil
}

// DataTransferStatusNtf is the content of DATA_TRANSFER_STATUS_NTF.
type DataTransferStatusNtf struct {
	SessionID uint32
	Sequence  uint16
	Status    Status
}

// ParseDataTransferStatus parses DATA_TRANSFER_STATUS_NTF.
func ParseDataTransferStatus(p *Packet) (ntf DataTransferStatusNtf, err error) {
	if len(p.Payload) < sessionIDSize+3 {
		return ntf, malformed("data transfer status of %d bytes", len(p.Payload))
	}
	ntf.SessionID = binary.LittleEndian.Uint32(p.Payload)
	ntf.Sequence = binary.LittleEndian.Uint16(p.Payload[4:])
	ntf.Status = Status(p.Payload[6])
	return ntf, nil
}

// DataReceiveNtf is the content of DATA_RECEIVE_NTF.
type DataReceiveNtf struct {
	SessionID uint32
	Status    Status
	Source    uint64
	Sequence  uint16
	Data      []byte
}

// ParseDataReceive parses DATA_RECEIVE_NTF.
func ParseDataReceive(p *Packet) (ntf DataReceiveNtf, err error) {
	b := p.Payload
	if len(b) < 17 {
		return ntf, malformed("data receive of %d bytes", len(b))
	}
	ntf.SessionID = binary.LittleEndian.Uint32(b)
	ntf.Status = Status(b[4])
	ntf.Source = binary.LittleEndian.Uint64(b[5:])
	ntf.Sequence = binary.LittleEndian.Uint16(b[13:])
	l := int(binary.LittleEndian.Uint16(b[15:]))
	if len(b)-17 < l {
		return ntf, malformed("data receive declares %d bytes, got %d", l, len(b)-17)
	}
	ntf.Data = append([]byte(nil), b[17:17+l]...)
	return ntf, nil
}

// DeviceInfo is the content of CORE_GET_DEVICE_INFO_RSP.
type DeviceInfo struct {
	UCIVersion     uint16
	MACVersion     uint16
	PHYVersion     uint16
	UCITestVersion uint16
	VendorInfo     []byte
}

// ParseDeviceInfo parses CORE_GET_DEVICE_INFO_RSP.
func ParseDeviceInfo(p *Packet) (info DeviceInfo, err error) {
	b := p.Payload
	if len(b) < 10 {
		return info, malformed("device info of %d bytes", len(b))
	}
	info.UCIVersion = binary.LittleEndian.Uint16(b[1:])
	info.MACVersion = binary.LittleEndian.Uint16(b[3:])
	info.PHYVersion = binary.LittleEndian.Uint16(b[5:])
	info.UCITestVersion = binary.LittleEndian.Uint16(b[7:])
	l := int(b[9])
	if len(b)-10 < l {
		return info, malformed("vendor info declares %d bytes, got %d", l, len(b)-10)
	}
	info.VendorInfo = append([]byte(nil), b[10:10+l]...)
	return info, nil
}

// ConfigStatus is the status of one rejected configuration parameter.
type ConfigStatus struct {
	Tag    byte
	Status Status
}

// ParseSetConfigResponse parses the response of CORE_SET_CONFIG,
// SESSION_SET_APP_CONFIG and TEST_CONFIG_SET.
func ParseSetConfigResponse(p *Packet) (Status, []ConfigStatus, error) {
	b := p.Payload
	if len(b) < 2 {
		if len(b) == 1 {
			return Status(b[0]), nil, nil
		}
		return StatusFailed, nil, malformed("set config response of %d bytes", len(b))
	}
	count := int(b[1])
	if len(b)-2 < count*2 {
		return Status(b[0]), nil, malformed("%d config statuses need %d bytes, got %d", count, count*2, len(b)-2)
	}
	statuses := make([]ConfigStatus, count)
	for n := range statuses {
		statuses[n] = ConfigStatus{Tag: b[2+n*2], Status: Status(b[3+n*2])}
	}
	return Status(b[0]), statuses, nil
}

// ParseConfigResponse parses the response of CORE_GET_CONFIG,
// SESSION_GET_APP_CONFIG, TEST_CONFIG_GET and CORE_GET_CAPS_INFO.
func ParseConfigResponse(p *Packet) (Status, []TLV, error) {
	st, err := p.Status()
	if err != nil {
		return st, nil, err
	}
	if len(p.Payload) == 1 {
		return st, nil, nil
	}
	tlvs, _, err := DecodeTLVs(p.Payload[1:])
	return st, tlvs, err
}
