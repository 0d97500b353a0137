package uci

import "fmt"

const (
	// HeaderSize is the size of a UCI packet header.
	HeaderSize = 4
	// MaxPayloadSize is the largest payload of a packet without
	// the extended length encoding.
	MaxPayloadSize = 255
	// MaxExtendedPayloadSize is the largest payload the 16-bit extended
	// length can describe.
	MaxExtendedPayloadSize = 0xffff
	// DefaultMaxPacketSize bounds a logical packet (header included) as
	// configured in the reference firmware.
	DefaultMaxPacketSize = 2176
)

const (
	pbfBit      = 0x10
	extendedBit = 0x80
	oidMask     = 0x3f
	gidMask     = 0x0f
)

// Header is the decoded 4-byte packet header.
type Header struct {
	MessageType MessageType
	PBF         bool
	GroupID     GroupID
	OpcodeID    OpcodeID
	Extended    bool
	Length      int
}

// EncodeHeader encodes the header fields. The extended length encoding is
// used when requested or when length doesn't fit a single byte.
func EncodeHeader(mt MessageType, pbf bool, gid GroupID, oid OpcodeID, length int) ([HeaderSize]byte, error) {
	h := Header{MessageType: mt, PBF: pbf, GroupID: gid, OpcodeID: oid, Length: length}
	return h.Encode()
}

// Encode encodes the header into 4 bytes.
func (h Header) Encode() (b [HeaderSize]byte, err error) {
	if !h.MessageType.IsValid() || byte(h.GroupID) > gidMask || byte(h.OpcodeID) > oidMask {
		return b, fmt.Errorf("%w: mt=%d gid=%#x oid=%#x", ErrMalformedHeader, h.MessageType, h.GroupID, h.OpcodeID)
	}
	if h.Length < 0 || h.Length > MaxExtendedPayloadSize {
		return b, fmt.Errorf("%w: payload length %d", ErrFrameTooLarge, h.Length)
	}
	b[0] = byte(h.MessageType)<<5 | byte(h.GroupID)
	if h.PBF {
		b[0] |= pbfBit
	}
	b[1] = byte(h.OpcodeID)
	if h.Extended || h.Length > MaxPayloadSize {
		b[1] |= extendedBit
		b[2], b[3] = byte(h.Length), byte(h.Length>>8)
	} else {
		b[3] = byte(h.Length)
	}
	return b, nil
}

// DecodeHeader decodes the header from the first 4 bytes of b.
func DecodeHeader(b []byte) (h Header, err error) {
	if len(b) < HeaderSize {
		return h, fmt.Errorf("%w: %d bytes", ErrMalformedHeader, len(b))
	}
	h.MessageType = MessageType(b[0] >> 5)
	if !h.MessageType.IsValid() {
		return h, fmt.Errorf("%w: message type %d", ErrMalformedHeader, h.MessageType)
	}
	h.PBF = b[0]&pbfBit != 0
	h.GroupID = GroupID(b[0] & gidMask)
	h.OpcodeID = OpcodeID(b[1] & oidMask)
	if b[1]&extendedBit != 0 {
		h.Extended = true
		h.Length = int(b[3])<<8 | int(b[2])
	} else {
		h.Length = int(b[3])
	}
	return h, nil
}

// Size returns the size of the fragment described by the header.
func (h Header) Size() int {
	return HeaderSize + h.Length
}

func (h Header) String() string {
	return fmt.Sprintf("%s pbf=%v len=%d", Name(h.MessageType, h.GroupID, h.OpcodeID), h.PBF, h.Length)
}
