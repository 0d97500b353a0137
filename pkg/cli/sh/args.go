package sh

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/uci.go/pkg/uci"
)

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseSessionID(s string) (uint32, error) {
	v, err := parseUint(s, 32)
	return uint32(v), err
}

// parseHex accepts hex digits optionally separated by spaces, colons or
// with a 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	s = strings.NewReplacer(":", "", " ", "", "-", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	return b, nil
}

// parseTLVs parses TAG=HEX arguments.
func parseTLVs(args []string) ([]uci.TLV, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("TAG=VALUE expected")
	}
	tlvs := make([]uci.TLV, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid parameter %q, TAG=VALUE expected", arg)
		}
		tag, err := parseUint(parts[0], 8)
		if err != nil {
			return nil, err
		}
		value, err := parseHex(parts[1])
		if err != nil {
			return nil, err
		}
		tlvs = append(tlvs, uci.TLV{Tag: byte(tag), Value: value})
	}
	return tlvs, nil
}

func parseTags(args []string) ([]byte, error) {
	tags := make([]byte, 0, len(args))
	for _, arg := range args {
		tag, err := parseUint(arg, 8)
		if err != nil {
			return nil, err
		}
		tags = append(tags, byte(tag))
	}
	return tags, nil
}

// parseControlees parses ADDR[:SUB-SESSION] arguments.
func parseControlees(args []string) ([]uci.Controlee, error) {
	controlees := make([]uci.Controlee, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 2)
		addr, err := parseUint(parts[0], 16)
		if err != nil {
			return nil, err
		}
		c := uci.Controlee{ShortAddress: uint16(addr)}
		if len(parts) == 2 {
			sub, err := parseUint(parts[1], 32)
			if err != nil {
				return nil, err
			}
			c.SubSessionID = uint32(sub)
		}
		controlees = append(controlees, c)
	}
	return controlees, nil
}

var sessionTypes = map[string]uci.SessionType{
	"ranging":      uci.SessionTypeRanging,
	"ranging-data": uci.SessionTypeRangingAndInBandData,
	"data":         uci.SessionTypeDataTransfer,
	"test":         uci.SessionTypeDeviceTest,
}

func parseSessionType(s string) (uci.SessionType, error) {
	if typ, ok := sessionTypes[strings.ToLower(s)]; ok {
		return typ, nil
	}
	v, err := parseUint(s, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown session type %q", s)
	}
	return uci.SessionType(v), nil
}

func formatVersion(v uint16) string {
	return fmt.Sprintf("%d.%d.%d", v&0xff, v>>12, (v>>8)&0xf)
}

func formatTLVs(tlvs []uci.TLV) string {
	items := make([]string, len(tlvs))
	for n, tlv := range tlvs {
		items[n] = fmt.Sprintf("0x%02x=%x", tlv.Tag, tlv.Value)
	}
	return strings.Join(items, " ")
}
