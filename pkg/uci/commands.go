package uci

import (
	"encoding/binary"
	"fmt"
)

const (
	// MaxControlees is the largest number of controlees in one multicast
	// list update.
	MaxControlees = 8

	sessionIDSize = 4
)

// DeviceReset builds CORE_DEVICE_RESET_CMD.
func DeviceReset() *Packet {
	return NewCommand(GroupCore, OpcodeCoreDeviceReset, []byte{0})
}

// GetDeviceInfo builds CORE_GET_DEVICE_INFO_CMD.
func GetDeviceInfo() *Packet {
	return NewCommand(GroupCore, OpcodeCoreDeviceInfo, nil)
}

// GetCapsInfo builds CORE_GET_CAPS_INFO_CMD.
func GetCapsInfo() *Packet {
	return NewCommand(GroupCore, OpcodeCoreCapsInfo, nil)
}

// SetCoreConfig builds CORE_SET_CONFIG_CMD.
func SetCoreConfig(tlvs []TLV) (*Packet, error) {
	b, err := EncodeTLVs(tlvs)
	if err != nil {
		return nil, err
	}
	return NewCommand(GroupCore, OpcodeCoreSetConfig, b), nil
}

// GetCoreConfig builds CORE_GET_CONFIG_CMD.
func GetCoreConfig(tags []byte) (*Packet, error) {
	b, err := encodeTags(tags)
	if err != nil {
		return nil, err
	}
	return NewCommand(GroupCore, OpcodeCoreGetConfig, b), nil
}

// SessionInit builds SESSION_INIT_CMD.
func SessionInit(id uint32, typ SessionType) *Packet {
	b := make([]byte, sessionIDSize+1)
	binary.LittleEndian.PutUint32(b, id)
	b[sessionIDSize] = byte(typ)
	return NewCommand(GroupSession, OpcodeSessionInit, b)
}

// SessionDeinit builds SESSION_DEINIT_CMD.
func SessionDeinit(id uint32) *Packet {
	return NewCommand(GroupSession, OpcodeSessionDeinit, sessionID(id))
}

// SessionGetState builds SESSION_GET_STATE_CMD.
func SessionGetState(id uint32) *Packet {
	return NewCommand(GroupSession, OpcodeSessionGetState, sessionID(id))
}

// SessionGetCount builds SESSION_GET_COUNT_CMD.
func SessionGetCount() *Packet {
	return NewCommand(GroupSession, OpcodeSessionGetCount, nil)
}

// SetAppConfig builds SESSION_SET_APP_CONFIG_CMD.
func SetAppConfig(id uint32, tlvs []TLV) (*Packet, error) {
	b, err := EncodeTLVs(tlvs)
	if err != nil {
		return nil, err
	}
	return NewCommand(GroupSession, OpcodeSessionSetAppConfig, append(sessionID(id), b...)), nil
}

// GetAppConfig builds SESSION_GET_APP_CONFIG_CMD. An empty tag list
// requests all parameters.
func GetAppConfig(id uint32, tags []byte) (*Packet, error) {
	b, err := encodeTags(tags)
	if err != nil {
		return nil, err
	}
	return NewCommand(GroupSession, OpcodeSessionGetAppConfig, append(sessionID(id), b...)), nil
}

// MulticastAction is the action of a multicast list update.
type MulticastAction byte

// Multicast list actions.
const (
	MulticastAdd    MulticastAction = 0x00
	MulticastDelete MulticastAction = 0x01
)

// Controlee identifies a controlee in a multicast list.
type Controlee struct {
	ShortAddress uint16
	SubSessionID uint32
}

const controleeSize = 6

// UpdateMulticastList builds SESSION_UPDATE_CONTROLLER_MULTICAST_LIST_CMD.
// The payload size is checked before anything is written.
func UpdateMulticastList(id uint32, action MulticastAction, controlees []Controlee) (*Packet, error) {
	if len(controlees) == 0 || len(controlees) > MaxControlees {
		return nil, fmt.Errorf("%w: %d controlees, want 1..%d", ErrInvalidParam, len(controlees), MaxControlees)
	}
	size := sessionIDSize + 2 + len(controlees)*controleeSize
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("%w: multicast update of %d bytes", ErrFrameTooLarge, size)
	}
	b := make([]byte, size)
	binary.LittleEndian.PutUint32(b, id)
	b[4], b[5] = byte(action), byte(len(controlees))
	off := 6
	for _, c := range controlees {
		binary.LittleEndian.PutUint16(b[off:], c.ShortAddress)
		binary.LittleEndian.PutUint32(b[off+2:], c.SubSessionID)
		off += controleeSize
	}
	return NewCommand(GroupSession, OpcodeSessionUpdateMulticastList, b), nil
}

// RangeStart builds RANGE_START_CMD.
func RangeStart(id uint32) *Packet {
	return NewCommand(GroupRange, OpcodeRangeStart, sessionID(id))
}

// RangeStop builds RANGE_STOP_CMD.
func RangeStop(id uint32) *Packet {
	return NewCommand(GroupRange, OpcodeRangeStop, sessionID(id))
}

// RangeGetCount builds RANGE_GET_RANGING_COUNT_CMD.
func RangeGetCount(id uint32) *Packet {
	return NewCommand(GroupRange, OpcodeRangeGetCount, sessionID(id))
}

// DataSend builds DATA_SEND_CMD carrying application data to a peer.
func DataSend(id uint32, dst uint64, seq uint16, data []byte) (*Packet, error) {
	if len(data) > 0xffff {
		return nil, fmt.Errorf("%w: %d bytes of application data", ErrFrameTooLarge, len(data))
	}
	b := make([]byte, sessionIDSize+8+2+2+len(data))
	binary.LittleEndian.PutUint32(b, id)
	binary.LittleEndian.PutUint64(b[4:], dst)
	binary.LittleEndian.PutUint16(b[12:], seq)
	binary.LittleEndian.PutUint16(b[14:], uint16(len(data)))
	copy(b[16:], data)
	return NewCommand(GroupData, OpcodeDataSend, b), nil
}

// TestConfigSet builds TEST_CONFIG_SET_CMD.
func TestConfigSet(id uint32, tlvs []TLV) (*Packet, error) {
	b, err := EncodeTLVs(tlvs)
	if err != nil {
		return nil, err
	}
	return NewCommand(GroupTest, OpcodeTestConfigSet, append(sessionID(id), b...)), nil
}

// TestConfigGet builds TEST_CONFIG_GET_CMD.
func TestConfigGet(id uint32, tags []byte) (*Packet, error) {
	b, err := encodeTags(tags)
	if err != nil {
		return nil, err
	}
	return NewCommand(GroupTest, OpcodeTestConfigGet, append(sessionID(id), b...)), nil
}

// TestPeriodicTx builds TEST_PERIODIC_TX_CMD sending psdu repeatedly.
func TestPeriodicTx(psdu []byte) *Packet {
	return NewCommand(GroupTest, OpcodeTestPeriodicTx, append([]byte(nil), psdu...))
}

// TestPerRx builds TEST_PER_RX_CMD.
func TestPerRx(psdu []byte) *Packet {
	return NewCommand(GroupTest, OpcodeTestPerRx, append([]byte(nil), psdu...))
}

// TestStopSession builds TEST_STOP_SESSION_CMD.
func TestStopSession() *Packet {
	return NewCommand(GroupTest, OpcodeTestStopSession, nil)
}

func sessionID(id uint32) []byte {
	b := make([]byte, sessionIDSize)
	binary.LittleEndian.PutUint32(b, id)
	return b
}

func encodeTags(tags []byte) ([]byte, error) {
	if len(tags) > 0xff {
		return nil, fmt.Errorf("%w: %d tags", ErrInvalidParam, len(tags))
	}
	return append([]byte{byte(len(tags))}, tags...), nil
}
