package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uci.go/pkg/uci"
)

func TestParseTLVs(t *testing.T) {
	tlvs, err := parseTLVs([]string{"0x01=0a0b", "4=00:11", "0xe3="})
	require.NoError(t, err)
	require.Equal(t, []uci.TLV{
		{Tag: 0x01, Value: []byte{0x0a, 0x0b}},
		{Tag: 0x04, Value: []byte{0x00, 0x11}},
		{Tag: 0xe3, Value: []byte{}},
	}, tlvs)
	require.Equal(t, "0x01=0a0b 0x04=0011 0xe3=", formatTLVs(tlvs))

	for _, args := range [][]string{
		nil,
		{"0x01"},
		{"0x100=00"},
		{"1=xyz"},
	} {
		_, err := parseTLVs(args)
		require.Error(t, err, "%v", args)
	}
}

func TestParseControlees(t *testing.T) {
	controlees, err := parseControlees([]string{"0x1234", "0xabcd:7"})
	require.NoError(t, err)
	require.Equal(t, []uci.Controlee{
		{ShortAddress: 0x1234},
		{ShortAddress: 0xabcd, SubSessionID: 7},
	}, controlees)

	_, err = parseControlees([]string{"0x10000"})
	require.Error(t, err)
}

func TestParseSessionType(t *testing.T) {
	typ, err := parseSessionType("test")
	require.NoError(t, err)
	require.Equal(t, uci.SessionTypeDeviceTest, typ)
	typ, err = parseSessionType("0x05")
	require.NoError(t, err)
	require.Equal(t, uci.SessionTypeRangingWithDataPhase, typ)
	_, err = parseSessionType("mesh")
	require.Error(t, err)
}

func TestParseHex(t *testing.T) {
	b, err := parseHex("0x2E:01:00:00")
	require.NoError(t, err)
	require.Equal(t, []byte{0x2e, 0x01, 0x00, 0x00}, b)
	_, err = parseHex("abc")
	require.Error(t, err)
}

func TestFormatVersion(t *testing.T) {
	require.Equal(t, "2.0.0", formatVersion(0x0002))
	require.Equal(t, "1.1.3", formatVersion(0x1301))
}
