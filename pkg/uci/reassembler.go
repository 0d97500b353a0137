package uci

import "fmt"

// Reassembler merges PBF fragments into logical packets. Only one
// reassembly is in progress at a time.
type Reassembler struct {
	buf  *Buffer
	open bool
	mt   MessageType
	gid  GroupID
	oid  OpcodeID
}

// NewReassembler creates a Reassembler producing packets of at most
// maxPacketSize bytes, header included.
func NewReassembler(maxPacketSize int) *Reassembler {
	return &Reassembler{buf: NewBuffer(maxPacketSize)}
}

// InProgress indicates a reassembly is waiting for more fragments.
func (r *Reassembler) InProgress() bool {
	return r.open
}

// Reset discards the reassembly in progress.
func (r *Reassembler) Reset() {
	r.open = false
	r.buf.Reset()
}

// Push consumes one fragment and returns a packet when complete.
//
// A fragment with PBF set opens a reassembly or continues the open one.
// A continuation whose (MT, GID, OID) differs from the open reassembly is
// dropped with ErrFragmentMismatch and the open reassembly is kept.
// A fragment without PBF completes the matching reassembly, or otherwise
// is a complete packet by itself and the open reassembly is untouched.
// Exceeding the bound discards the reassembly with ErrFrameTooLarge.
func (r *Reassembler) Push(frag *Packet) (*Packet, error) {
	matched := r.open && r.matches(frag)
	if frag.PBF {
		switch {
		case !r.open:
			r.open, r.mt, r.gid, r.oid = true, frag.MessageType, frag.GroupID, frag.OpcodeID
			r.buf.Reset()
			head, err := frag.Header().Encode()
			if err == nil {
				err = r.buf.Append(head[:])
			}
			if err == nil {
				err = r.buf.Append(frag.Payload)
			}
			if err != nil {
				r.Reset()
				return nil, err
			}
		case !matched:
			return nil, fmt.Errorf("%w: got %s while reassembling %s", ErrFragmentMismatch,
				frag.Name(), Name(r.mt, r.gid, r.oid))
		default:
			if err := r.buf.Append(frag.Payload); err != nil {
				r.Reset()
				return nil, err
			}
		}
		return nil, nil
	}
	if !matched {
		return frag, nil
	}
	defer r.Reset()
	if err := r.buf.Append(frag.Payload); err != nil {
		return nil, err
	}
	head, err := EncodeHeader(r.mt, false, r.gid, r.oid, r.buf.Len()-HeaderSize)
	if err != nil {
		return nil, err
	}
	if err := r.buf.WriteAt(0, head[:]); err != nil {
		return nil, err
	}
	return Decode(r.buf.Bytes())
}

func (r *Reassembler) matches(frag *Packet) bool {
	return frag.MessageType == r.mt && frag.GroupID == r.gid && frag.OpcodeID == r.oid
}
