package uci

import (
	"fmt"
	"io"
)

// Packet is one logical UCI packet: a command, a response, a
// notification or a data packet, after reassembly.
type Packet struct {
	MessageType MessageType
	PBF         bool
	GroupID     GroupID
	OpcodeID    OpcodeID
	Payload     []byte
}

// NewCommand creates a command packet.
func NewCommand(gid GroupID, oid OpcodeID, payload []byte) *Packet {
	return &Packet{MessageType: MessageTypeCommand, GroupID: gid, OpcodeID: oid, Payload: payload}
}

// NewResponse creates a response packet.
func NewResponse(gid GroupID, oid OpcodeID, payload []byte) *Packet {
	return &Packet{MessageType: MessageTypeResponse, GroupID: gid, OpcodeID: oid, Payload: payload}
}

// NewNotification creates a notification packet.
func NewNotification(gid GroupID, oid OpcodeID, payload []byte) *Packet {
	return &Packet{MessageType: MessageTypeNotification, GroupID: gid, OpcodeID: oid, Payload: payload}
}

// Decode decodes a single fragment. b must contain exactly the header and
// the declared payload.
func Decode(b []byte) (*Packet, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}
	if len(b) != h.Size() {
		return nil, fmt.Errorf("%w: declared %d payload bytes, got %d", ErrMalformedHeader, h.Length, len(b)-HeaderSize)
	}
	p := &Packet{
		MessageType: h.MessageType,
		PBF:         h.PBF,
		GroupID:     h.GroupID,
		OpcodeID:    h.OpcodeID,
		Payload:     make([]byte, h.Length),
	}
	copy(p.Payload, b[HeaderSize:])
	return p, nil
}

// Header builds the header of the packet.
func (p *Packet) Header() Header {
	return Header{
		MessageType: p.MessageType,
		PBF:         p.PBF,
		GroupID:     p.GroupID,
		OpcodeID:    p.OpcodeID,
		Length:      len(p.Payload),
	}
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() ([]byte, error) {
	head, err := p.Header().Encode()
	if err != nil {
		return nil, err
	}
	b := make([]byte, HeaderSize+len(p.Payload))
	copy(b, head[:])
	copy(b[HeaderSize:], p.Payload)
	return b, nil
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (n int64, err error) {
	head, err := p.Header().Encode()
	if err != nil {
		return 0, err
	}
	n1, err := w.Write(head[:])
	if n = int64(n1); err != nil || len(p.Payload) == 0 {
		return
	}
	n1, err = w.Write(p.Payload)
	n += int64(n1)
	return
}

// Segments splits the packet into fragments carrying at most maxPayload
// bytes each. All fragments but the last have PBF set. A packet which
// fits is returned as the only fragment.
func (p *Packet) Segments(maxPayload int) ([][]byte, error) {
	if maxPayload <= 0 || maxPayload > MaxPayloadSize {
		maxPayload = MaxPayloadSize
	}
	if len(p.Payload) <= maxPayload {
		b, err := p.Bytes()
		if err != nil {
			return nil, err
		}
		return [][]byte{b}, nil
	}
	var frags [][]byte
	for off := 0; off < len(p.Payload); off += maxPayload {
		end := off + maxPayload
		if end > len(p.Payload) {
			end = len(p.Payload)
		}
		frag := &Packet{
			MessageType: p.MessageType,
			PBF:         end < len(p.Payload),
			GroupID:     p.GroupID,
			OpcodeID:    p.OpcodeID,
			Payload:     p.Payload[off:end],
		}
		b, err := frag.Bytes()
		if err != nil {
			return nil, err
		}
		frags = append(frags, b)
	}
	return frags, nil
}

// Is checks the routing keys of the packet.
func (p *Packet) Is(mt MessageType, gid GroupID, oid OpcodeID) bool {
	return p.MessageType == mt && p.GroupID == gid && p.OpcodeID == oid
}

// Status returns the status carried as the first payload byte of
// responses and of most notifications.
func (p *Packet) Status() (Status, error) {
	if len(p.Payload) == 0 {
		return StatusFailed, malformed("%s has no status", p.Name())
	}
	return Status(p.Payload[0]), nil
}

// Name returns the readable name.
func (p *Packet) Name() string {
	return Name(p.MessageType, p.GroupID, p.OpcodeID)
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s [% X]", p.Name(), p.Payload)
}
