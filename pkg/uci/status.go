package uci

import "fmt"

// Status is the status code carried by responses and notifications.
type Status byte

// Generic status codes.
const (
	StatusOK                 Status = 0x00
	StatusRejected           Status = 0x01
	StatusFailed             Status = 0x02
	StatusSyntaxError        Status = 0x03
	StatusInvalidParam       Status = 0x04
	StatusInvalidRange       Status = 0x05
	StatusInvalidMessageSize Status = 0x06
	StatusUnknownGID         Status = 0x07
	StatusUnknownOID         Status = 0x08
	StatusReadOnly           Status = 0x09
	StatusCommandRetry       Status = 0x0A
	StatusUnknown            Status = 0x0B
)

// Session status codes.
const (
	StatusSessionNotExist        Status = 0x11
	StatusSessionDuplicate       Status = 0x12
	StatusSessionActive          Status = 0x13
	StatusMaxSessionsExceeded    Status = 0x14
	StatusSessionNotConfigured   Status = 0x15
	StatusActiveSessionsOngoing  Status = 0x16
	StatusMulticastListFull      Status = 0x17
	StatusAddressNotFound        Status = 0x18
	StatusAddressAlreadyPresent  Status = 0x19
	StatusRangingTxFailed        Status = 0x20
	StatusRangingRxTimeout       Status = 0x21
	StatusRangingRxPhyDecFailed  Status = 0x22
	StatusRangingRxPhyToaFailed  Status = 0x23
	StatusRangingRxPhyStsFailed  Status = 0x24
	StatusRangingRxMacDecFailed  Status = 0x25
	StatusRangingRxMacIeDecFail  Status = 0x26
	StatusRangingRxMacIeMissing  Status = 0x27
	StatusDataMaxTxApduSizeError Status = 0x31
	StatusDataRxCrcError         Status = 0x32
)

// Vendor status codes of the reference firmware.
const (
	StatusThermalRunaway Status = 0x54
	StatusLowVbat        Status = 0x55
)

var statusNames = map[Status]string{
	StatusOK:                    "OK",
	StatusRejected:              "REJECTED",
	StatusFailed:                "FAILED",
	StatusSyntaxError:           "SYNTAX_ERROR",
	StatusInvalidParam:          "INVALID_PARAM",
	StatusInvalidRange:          "INVALID_RANGE",
	StatusInvalidMessageSize:    "INVALID_MESSAGE_SIZE",
	StatusUnknownGID:            "UNKNOWN_GID",
	StatusUnknownOID:            "UNKNOWN_OID",
	StatusReadOnly:              "READ_ONLY",
	StatusCommandRetry:          "COMMAND_RETRY",
	StatusUnknown:               "UNKNOWN",
	StatusSessionNotExist:       "SESSION_NOT_EXIST",
	StatusSessionDuplicate:      "SESSION_DUPLICATE",
	StatusSessionActive:         "SESSION_ACTIVE",
	StatusMaxSessionsExceeded:   "MAX_SESSIONS_EXCEEDED",
	StatusSessionNotConfigured:  "SESSION_NOT_CONFIGURED",
	StatusActiveSessionsOngoing: "ACTIVE_SESSIONS_ONGOING",
	StatusMulticastListFull:     "MULTICAST_LIST_FULL",
	StatusAddressNotFound:       "ADDRESS_NOT_FOUND",
	StatusAddressAlreadyPresent: "ADDRESS_ALREADY_PRESENT",
	StatusRangingTxFailed:       "RANGING_TX_FAILED",
	StatusRangingRxTimeout:      "RANGING_RX_TIMEOUT",
	StatusThermalRunaway:        "THERMAL_RUNAWAY",
	StatusLowVbat:               "LOW_VBAT",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(%#02x)", byte(s))
}

// DeviceStatus is reported by CORE_DEVICE_STATUS_NTF.
type DeviceStatus byte

// Device status values.
const (
	DeviceStatusInit      DeviceStatus = 0x00
	DeviceStatusReady     DeviceStatus = 0x01
	DeviceStatusActive    DeviceStatus = 0x02
	DeviceStatusHDPWakeup DeviceStatus = 0xFC
	DeviceStatusError     DeviceStatus = 0xFF
)

func (s DeviceStatus) String() string {
	switch s {
	case DeviceStatusInit:
		return "INIT"
	case DeviceStatusReady:
		return "READY"
	case DeviceStatusActive:
		return "ACTIVE"
	case DeviceStatusHDPWakeup:
		return "HDP_WAKEUP"
	case DeviceStatusError:
		return "ERROR"
	}
	return fmt.Sprintf("DEVICE_STATUS(%#02x)", byte(s))
}

// SessionState is reported by SESSION_STATUS_NTF.
type SessionState byte

// Session states.
const (
	SessionStateInit   SessionState = 0x00
	SessionStateDeinit SessionState = 0x01
	SessionStateActive SessionState = 0x02
	SessionStateIdle   SessionState = 0x03
	SessionStateError  SessionState = 0xFF
)

func (s SessionState) String() string {
	switch s {
	case SessionStateInit:
		return "INITIALIZED"
	case SessionStateDeinit:
		return "DEINITIALIZED"
	case SessionStateActive:
		return "ACTIVE"
	case SessionStateIdle:
		return "IDLE"
	case SessionStateError:
		return "ERROR"
	}
	return fmt.Sprintf("SESSION_STATE(%#02x)", byte(s))
}

// SessionType is the type argument of SESSION_INIT.
type SessionType byte

// Session types.
const (
	SessionTypeRanging              SessionType = 0x00
	SessionTypeRangingAndInBandData SessionType = 0x01
	SessionTypeDataTransfer         SessionType = 0x02
	SessionTypeRangingOnlyPhase     SessionType = 0x03
	SessionTypeInBandDataPhase      SessionType = 0x04
	SessionTypeRangingWithDataPhase SessionType = 0x05
	SessionTypeDeviceTest           SessionType = 0xD0
)

// ReasonCode explains a session state change.
type ReasonCode byte

// Reason codes.
const (
	ReasonStateChangeWithSessionMgmtCmds ReasonCode = 0x00
	ReasonMaxRangingRoundRetryReached    ReasonCode = 0x01
	ReasonMaxNumberOfMeasurementsReached ReasonCode = 0x02
	ReasonSessionSuspendedInBand         ReasonCode = 0x03
	ReasonSessionResumedInBand           ReasonCode = 0x04
	ReasonSessionStoppedInBand           ReasonCode = 0x05
	ReasonErrorInvalidULTDoARandomWindow ReasonCode = 0x1D
	ReasonErrorMinRframesNotSupported    ReasonCode = 0x1E
	ReasonErrorTxDelayNotSupported       ReasonCode = 0x1F
	ReasonErrorSlotLengthNotSupported    ReasonCode = 0x20
	ReasonErrorInsufficientSlotsPerRR    ReasonCode = 0x21
	ReasonErrorMacAddressModeUnsupported ReasonCode = 0x22
	ReasonErrorInvalidRangingDuration    ReasonCode = 0x23
	ReasonErrorInvalidStsConfig          ReasonCode = 0x24
	ReasonErrorInvalidRframeConfig       ReasonCode = 0x25
	ReasonErrorHusNotEnoughSlots         ReasonCode = 0x26
	ReasonErrorHusCfpPhaseTooShort       ReasonCode = 0x27
	ReasonErrorHusCapPhaseTooShort       ReasonCode = 0x28
	ReasonErrorHusOthers                 ReasonCode = 0x29
	ReasonErrorStsKeyNotFound            ReasonCode = 0x2A
	ReasonErrorSessionKeyNotFound        ReasonCode = 0x2B
)

var reasonNames = map[ReasonCode]string{
	ReasonStateChangeWithSessionMgmtCmds: "STATE_CHANGE_WITH_SESSION_MANAGEMENT_COMMANDS",
	ReasonMaxRangingRoundRetryReached:    "MAX_RANGING_ROUND_RETRY_COUNT_REACHED",
	ReasonMaxNumberOfMeasurementsReached: "MAX_NUMBER_OF_MEASUREMENTS_REACHED",
	ReasonSessionSuspendedInBand:         "SESSION_SUSPENDED_DUE_TO_INBAND_SIGNAL",
	ReasonSessionResumedInBand:           "SESSION_RESUMED_DUE_TO_INBAND_SIGNAL",
	ReasonSessionStoppedInBand:           "SESSION_STOPPED_DUE_TO_INBAND_SIGNAL",
	ReasonErrorSlotLengthNotSupported:    "ERROR_SLOT_LENGTH_NOT_SUPPORTED",
	ReasonErrorInsufficientSlotsPerRR:    "ERROR_INSUFFICIENT_SLOTS_PER_RR",
	ReasonErrorMacAddressModeUnsupported: "ERROR_MAC_ADDRESS_MODE_NOT_SUPPORTED",
	ReasonErrorInvalidRangingDuration:    "ERROR_INVALID_RANGING_DURATION",
	ReasonErrorInvalidStsConfig:          "ERROR_INVALID_STS_CONFIG",
	ReasonErrorInvalidRframeConfig:       "ERROR_INVALID_RFRAME_CONFIG",
	ReasonErrorStsKeyNotFound:            "ERROR_STS_KEY_NOT_FOUND",
	ReasonErrorSessionKeyNotFound:        "ERROR_SESSION_KEY_NOT_FOUND",
}

func (r ReasonCode) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("REASON(%#02x)", byte(r))
}

// IsRequested reports whether the state change was caused by a session
// management command of the host rather than by the controller.
func (r ReasonCode) IsRequested() bool {
	return r == ReasonStateChangeWithSessionMgmtCmds || r == ReasonSessionResumedInBand
}

// IsConfigError reports whether the reason rejects the session
// configuration, leaving the session unable to range.
func (r ReasonCode) IsConfigError() bool {
	return r >= ReasonErrorInvalidULTDoARandomWindow
}
