package uci

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTLVs(t *testing.T) {
	tlvs := []TLV{
		Uint8TLV(AppConfigDeviceType, 1),
		Uint16TLV(AppConfigDeviceMacAddress, 0x1234),
		Uint32TLV(AppConfigRangingDuration, 200),
		{Tag: AppConfigStaticStsIV, Value: []byte{}},
	}
	b, err := EncodeTLVs(tlvs)
	require.NoError(t, err)
	require.Equal(t, []byte{
		4,
		0x00, 1, 1,
		0x06, 2, 0x34, 0x12,
		0x09, 4, 200, 0, 0, 0,
		0x28, 0,
	}, b)

	decoded, rest, err := DecodeTLVs(append(b, 0xee))
	require.NoError(t, err)
	require.Equal(t, []byte{0xee}, rest)
	require.Len(t, decoded, 4)
	v, err := decoded[2].Uint()
	require.NoError(t, err)
	require.Equal(t, uint32(200), v)
	v, err = decoded[1].Uint()
	require.NoError(t, err)
	require.Equal(t, uint32(0x1234), v)
	_, err = decoded[3].Uint()
	require.ErrorIs(t, err, ErrMalformedPayload)

	tlv, ok := FindTLV(decoded, AppConfigDeviceMacAddress)
	require.True(t, ok)
	require.Equal(t, []byte{0x34, 0x12}, tlv.Value)
	_, ok = FindTLV(decoded, AppConfigSlotDuration)
	require.False(t, ok)
}

func TestTLVErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"missing tag", []byte{1}},
		{"missing length", []byte{1, 0x00}},
		{"short value", []byte{1, 0x00, 3, 1, 2}},
		{"count beyond data", []byte{2, 0x00, 1, 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeTLVs(tc.data)
			require.ErrorIs(t, err, ErrMalformedPayload)
		})
	}

	_, err := EncodeTLVs([]TLV{{Tag: 1, Value: make([]byte, 256)}})
	require.ErrorIs(t, err, ErrInvalidParam)
	_, err = EncodeTLVs(make([]TLV, 256))
	require.ErrorIs(t, err, ErrInvalidParam)
}
