package uci

import "fmt"

// MessageType is the 3-bit MT field.
type MessageType byte

// Message types.
const (
	MessageTypeData         MessageType = 0
	MessageTypeCommand      MessageType = 1
	MessageTypeResponse     MessageType = 2
	MessageTypeNotification MessageType = 3
)

// IsValid checks if the message type is defined.
func (t MessageType) IsValid() bool {
	return t <= MessageTypeNotification
}

func (t MessageType) String() string {
	switch t {
	case MessageTypeData:
		return "DATA"
	case MessageTypeCommand:
		return "CMD"
	case MessageTypeResponse:
		return "RSP"
	case MessageTypeNotification:
		return "NTF"
	}
	return fmt.Sprintf("MT(%d)", byte(t))
}

// GroupID is the 4-bit GID field.
type GroupID byte

// Groups.
const (
	GroupCore        GroupID = 0x0
	GroupSession     GroupID = 0x1
	GroupRange       GroupID = 0x2
	GroupData        GroupID = 0x3
	GroupTest        GroupID = 0xD
	GroupProprietary GroupID = 0xE
)

func (g GroupID) String() string {
	switch g {
	case GroupCore:
		return "CORE"
	case GroupSession:
		return "SESSION"
	case GroupRange:
		return "RANGE"
	case GroupData:
		return "DATA"
	case GroupTest:
		return "TEST"
	case GroupProprietary:
		return "PROPRIETARY"
	}
	return fmt.Sprintf("GID(%#x)", byte(g))
}

// OpcodeID is the 6-bit OID field.
type OpcodeID byte

// CORE opcodes.
const (
	OpcodeCoreDeviceReset    OpcodeID = 0x00
	OpcodeCoreDeviceStatus   OpcodeID = 0x01
	OpcodeCoreDeviceInfo     OpcodeID = 0x02
	OpcodeCoreCapsInfo       OpcodeID = 0x03
	OpcodeCoreSetConfig      OpcodeID = 0x04
	OpcodeCoreGetConfig      OpcodeID = 0x05
	OpcodeCoreGenericError   OpcodeID = 0x07
	OpcodeCoreQueryTimestamp OpcodeID = 0x08
)

// SESSION opcodes.
const (
	OpcodeSessionInit                OpcodeID = 0x00
	OpcodeSessionDeinit              OpcodeID = 0x01
	OpcodeSessionStatus              OpcodeID = 0x02
	OpcodeSessionSetAppConfig        OpcodeID = 0x03
	OpcodeSessionGetAppConfig        OpcodeID = 0x04
	OpcodeSessionGetCount            OpcodeID = 0x05
	OpcodeSessionGetState            OpcodeID = 0x06
	OpcodeSessionUpdateMulticastList OpcodeID = 0x07
)

// RANGE opcodes. Range data notifications share the OID of RANGE_START.
const (
	OpcodeRangeStart          OpcodeID = 0x00
	OpcodeRangeData           OpcodeID = 0x00
	OpcodeRangeStop           OpcodeID = 0x01
	OpcodeRangeGetCount       OpcodeID = 0x03
	OpcodeRangeIntervalUpdate OpcodeID = 0x04
)

// DATA opcodes.
const (
	OpcodeDataSend           OpcodeID = 0x00
	OpcodeDataReceive        OpcodeID = 0x01
	OpcodeDataTransferStatus OpcodeID = 0x02
	OpcodeDataCredit         OpcodeID = 0x03
)

// TEST opcodes.
const (
	OpcodeTestConfigSet   OpcodeID = 0x00
	OpcodeTestConfigGet   OpcodeID = 0x01
	OpcodeTestPeriodicTx  OpcodeID = 0x02
	OpcodeTestPerRx       OpcodeID = 0x03
	OpcodeTestRx          OpcodeID = 0x05
	OpcodeTestLoopback    OpcodeID = 0x06
	OpcodeTestStopSession OpcodeID = 0x07
)

// PROPRIETARY opcodes of the reference firmware.
const (
	OpcodeVendorBindingStatus OpcodeID = 0x06
	OpcodeVendorSEComError    OpcodeID = 0x05
	OpcodeVendorDebugLog      OpcodeID = 0x01
)

type opcodeKey struct {
	gid GroupID
	oid OpcodeID
}

var (
	knownCommands = map[opcodeKey]string{
		{GroupCore, OpcodeCoreDeviceReset}:               "CORE_DEVICE_RESET",
		{GroupCore, OpcodeCoreDeviceInfo}:                "CORE_GET_DEVICE_INFO",
		{GroupCore, OpcodeCoreCapsInfo}:                  "CORE_GET_CAPS_INFO",
		{GroupCore, OpcodeCoreSetConfig}:                 "CORE_SET_CONFIG",
		{GroupCore, OpcodeCoreGetConfig}:                 "CORE_GET_CONFIG",
		{GroupCore, OpcodeCoreQueryTimestamp}:            "CORE_QUERY_UWBS_TIMESTAMP",
		{GroupSession, OpcodeSessionInit}:                "SESSION_INIT",
		{GroupSession, OpcodeSessionDeinit}:              "SESSION_DEINIT",
		{GroupSession, OpcodeSessionSetAppConfig}:        "SESSION_SET_APP_CONFIG",
		{GroupSession, OpcodeSessionGetAppConfig}:        "SESSION_GET_APP_CONFIG",
		{GroupSession, OpcodeSessionGetCount}:            "SESSION_GET_COUNT",
		{GroupSession, OpcodeSessionGetState}:            "SESSION_GET_STATE",
		{GroupSession, OpcodeSessionUpdateMulticastList}: "SESSION_UPDATE_CONTROLLER_MULTICAST_LIST",
		{GroupRange, OpcodeRangeStart}:                   "RANGE_START",
		{GroupRange, OpcodeRangeStop}:                    "RANGE_STOP",
		{GroupRange, OpcodeRangeGetCount}:                "RANGE_GET_RANGING_COUNT",
		{GroupRange, OpcodeRangeIntervalUpdate}:          "RANGE_INTERVAL_UPDATE",
		{GroupData, OpcodeDataSend}:                      "DATA_SEND",
		{GroupTest, OpcodeTestConfigSet}:                 "TEST_CONFIG_SET",
		{GroupTest, OpcodeTestConfigGet}:                 "TEST_CONFIG_GET",
		{GroupTest, OpcodeTestPeriodicTx}:                "TEST_PERIODIC_TX",
		{GroupTest, OpcodeTestPerRx}:                     "TEST_PER_RX",
		{GroupTest, OpcodeTestRx}:                        "TEST_RX",
		{GroupTest, OpcodeTestLoopback}:                  "TEST_LOOPBACK",
		{GroupTest, OpcodeTestStopSession}:               "TEST_STOP_SESSION",
	}

	knownNotifications = map[opcodeKey]string{
		{GroupCore, OpcodeCoreDeviceStatus}:              "CORE_DEVICE_STATUS_NTF",
		{GroupCore, OpcodeCoreGenericError}:              "CORE_GENERIC_ERROR_NTF",
		{GroupSession, OpcodeSessionStatus}:              "SESSION_STATUS_NTF",
		{GroupSession, OpcodeSessionUpdateMulticastList}: "SESSION_UPDATE_CONTROLLER_MULTICAST_LIST_NTF",
		{GroupRange, OpcodeRangeData}:                    "RANGE_DATA_NTF",
		{GroupData, OpcodeDataReceive}:                   "DATA_RECEIVE_NTF",
		{GroupData, OpcodeDataTransferStatus}:            "DATA_TRANSFER_STATUS_NTF",
		{GroupData, OpcodeDataCredit}:                    "DATA_CREDIT_NTF",
		{GroupTest, OpcodeTestPeriodicTx}:                "TEST_PERIODIC_TX_NTF",
		{GroupTest, OpcodeTestPerRx}:                     "TEST_PER_RX_NTF",
		{GroupTest, OpcodeTestRx}:                        "TEST_RX_NTF",
		{GroupTest, OpcodeTestLoopback}:                  "TEST_LOOPBACK_NTF",
		{GroupProprietary, OpcodeVendorDebugLog}:         "VENDOR_DEBUG_LOG_NTF",
		{GroupProprietary, OpcodeVendorSEComError}:       "VENDOR_SE_COM_ERROR_NTF",
		{GroupProprietary, OpcodeVendorBindingStatus}:    "VENDOR_BINDING_STATUS_NTF",
	}
)

// KnownGroup checks if the group is one of the groups routed by the host.
func KnownGroup(gid GroupID) bool {
	switch gid {
	case GroupCore, GroupSession, GroupRange, GroupData, GroupTest, GroupProprietary:
		return true
	}
	return false
}

// Known checks if (mt, gid, oid) names a defined message. Any opcode in
// the proprietary group is accepted as the vendor defines it.
func Known(mt MessageType, gid GroupID, oid OpcodeID) bool {
	if !KnownGroup(gid) {
		return false
	}
	if gid == GroupProprietary {
		return true
	}
	key := opcodeKey{gid, oid}
	switch mt {
	case MessageTypeCommand, MessageTypeResponse:
		_, ok := knownCommands[key]
		return ok
	case MessageTypeNotification:
		_, ok := knownNotifications[key]
		return ok
	case MessageTypeData:
		return gid == GroupData
	}
	return false
}

// Name returns a readable name of a message.
func Name(mt MessageType, gid GroupID, oid OpcodeID) string {
	key := opcodeKey{gid, oid}
	var name string
	var ok bool
	switch mt {
	case MessageTypeCommand, MessageTypeResponse:
		name, ok = knownCommands[key]
	case MessageTypeNotification:
		name, ok = knownNotifications[key]
	}
	if !ok {
		return fmt.Sprintf("%s/%s/OID(%#x)", mt, gid, byte(oid))
	}
	if mt == MessageTypeResponse {
		return name + "_RSP"
	}
	if mt == MessageTypeCommand {
		return name + "_CMD"
	}
	return name
}
