package uci

import (
	"encoding/binary"
	"fmt"
)

// TLV is one configuration parameter.
type TLV struct {
	Tag   byte
	Value []byte
}

// Uint8TLV creates a TLV with a single byte value.
func Uint8TLV(tag byte, v uint8) TLV {
	return TLV{Tag: tag, Value: []byte{v}}
}

// Uint16TLV creates a TLV with a little-endian 16-bit value.
func Uint16TLV(tag byte, v uint16) TLV {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return TLV{Tag: tag, Value: b}
}

// Uint32TLV creates a TLV with a little-endian 32-bit value.
func Uint32TLV(tag byte, v uint32) TLV {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return TLV{Tag: tag, Value: b}
}

// Uint returns the little-endian value of up to 4 bytes.
func (t TLV) Uint() (uint32, error) {
	if len(t.Value) == 0 || len(t.Value) > 4 {
		return 0, malformed("tag %#02x has %d value bytes", t.Tag, len(t.Value))
	}
	var v uint32
	for n := len(t.Value) - 1; n >= 0; n-- {
		v = v<<8 | uint32(t.Value[n])
	}
	return v, nil
}

func (t TLV) String() string {
	return fmt.Sprintf("%#02x=[% X]", t.Tag, t.Value)
}

// EncodeTLVs encodes the count followed by tag, length, value of each.
func EncodeTLVs(tlvs []TLV) ([]byte, error) {
	if len(tlvs) > 0xff {
		return nil, fmt.Errorf("%w: %d parameters", ErrInvalidParam, len(tlvs))
	}
	size := 1
	for _, tlv := range tlvs {
		if len(tlv.Value) > 0xff {
			return nil, fmt.Errorf("%w: tag %#02x value of %d bytes", ErrInvalidParam, tlv.Tag, len(tlv.Value))
		}
		size += 2 + len(tlv.Value)
	}
	b := make([]byte, 0, size)
	b = append(b, byte(len(tlvs)))
	for _, tlv := range tlvs {
		b = append(b, tlv.Tag, byte(len(tlv.Value)))
		b = append(b, tlv.Value...)
	}
	return b, nil
}

// DecodeTLVs decodes a count prefixed TLV list and returns the bytes
// following the list.
func DecodeTLVs(b []byte) ([]TLV, []byte, error) {
	if len(b) < 1 {
		return nil, nil, malformed("missing TLV count")
	}
	count := int(b[0])
	b = b[1:]
	tlvs := make([]TLV, 0, count)
	for n := 0; n < count; n++ {
		if len(b) < 2 {
			return nil, nil, malformed("TLV %d/%d truncated", n+1, count)
		}
		tag, l := b[0], int(b[1])
		if len(b) < 2+l {
			return nil, nil, malformed("TLV %#02x declares %d bytes, %d left", tag, l, len(b)-2)
		}
		value := make([]byte, l)
		copy(value, b[2:2+l])
		tlvs = append(tlvs, TLV{Tag: tag, Value: value})
		b = b[2+l:]
	}
	return tlvs, b, nil
}

// FindTLV returns the first TLV with the tag.
func FindTLV(tlvs []TLV, tag byte) (TLV, bool) {
	for _, tlv := range tlvs {
		if tlv.Tag == tag {
			return tlv, true
		}
	}
	return TLV{}, false
}

// Device configuration parameters (CORE_SET_CONFIG).
const (
	DeviceConfigState          byte = 0x00
	DeviceConfigLowPowerMode   byte = 0x01
	DeviceConfigChannelNumber  byte = 0xA0
	DeviceConfigLowPowerIdleTO byte = 0xA2
)

// Application configuration parameters (SESSION_SET_APP_CONFIG).
const (
	AppConfigDeviceType            byte = 0x00
	AppConfigRangingRoundUsage     byte = 0x01
	AppConfigStsConfig             byte = 0x02
	AppConfigMultiNodeMode         byte = 0x03
	AppConfigChannelNumber         byte = 0x04
	AppConfigNumberOfControlees    byte = 0x05
	AppConfigDeviceMacAddress      byte = 0x06
	AppConfigDstMacAddress         byte = 0x07
	AppConfigSlotDuration          byte = 0x08
	AppConfigRangingDuration       byte = 0x09
	AppConfigStsIndex              byte = 0x0A
	AppConfigMacFcsType            byte = 0x0B
	AppConfigRangingRoundControl   byte = 0x0C
	AppConfigAoaResultReq          byte = 0x0D
	AppConfigRangeDataNtfConfig    byte = 0x0E
	AppConfigDeviceRole            byte = 0x11
	AppConfigRframeConfig          byte = 0x12
	AppConfigPreambleCodeIndex     byte = 0x14
	AppConfigSfdID                 byte = 0x15
	AppConfigSlotsPerRR            byte = 0x1B
	AppConfigVendorID              byte = 0x27
	AppConfigStaticStsIV           byte = 0x28
	AppConfigMaxRangingRoundRetry  byte = 0x2A
	AppConfigMaxNumberMeasurements byte = 0x32
)
