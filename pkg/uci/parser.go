package uci

import (
	"errors"
	"fmt"
)

// Parser splits a received byte stream into packet fragments. Bytes may
// arrive in chunks of any size: a chunk can carry several fragments or
// only a part of one.
type Parser struct {
	buf *Buffer
	max int
	// skip counts the bytes of a rejected oversized fragment still to be
	// discarded from the stream.
	skip int
}

// NewParser creates a Parser accepting fragments up to maxPacketSize
// bytes, header included.
func NewParser(maxPacketSize int) *Parser {
	if maxPacketSize < HeaderSize+MaxPayloadSize {
		maxPacketSize = HeaderSize + MaxPayloadSize
	}
	return &Parser{buf: NewBuffer(maxPacketSize), max: maxPacketSize}
}

// Buffered returns the number of bytes waiting for the rest of a fragment.
func (p *Parser) Buffered() int {
	return p.buf.Len()
}

// Discarding returns the number of bytes of a rejected fragment the parser
// still expects and will drop.
func (p *Parser) Discarding() int {
	return p.skip
}

// Reset drops buffered bytes and forgets a rejected fragment.
func (p *Parser) Reset() {
	p.buf.Reset()
	p.skip = 0
}

// Parse consumes data and returns the complete fragments found.
//
// A fragment declaring more bytes than the bound is rejected with
// ErrFrameTooLarge and its declared bytes are discarded, including the
// ones arriving with later calls, before parsing resumes. A malformed
// header leaves no way to find the next fragment, so the buffered bytes
// and the rest of data are dropped. In both cases the fragments decoded
// are returned along with the first error.
func (p *Parser) Parse(data []byte) (frags []*Packet, err error) {
	for len(data) > 0 {
		if p.skip > 0 {
			n := p.skip
			if n > len(data) {
				n = len(data)
			}
			p.skip -= n
			data = data[n:]
			continue
		}
		n := p.buf.Cap() - p.buf.Len()
		if n > len(data) {
			n = len(data)
		}
		if aerr := p.buf.Append(data[:n]); aerr != nil {
			p.Reset()
			if err == nil {
				err = aerr
			}
			return
		}
		data = data[n:]
		for {
			frag, ferr := p.next()
			if ferr != nil {
				if err == nil {
					err = ferr
				}
				if errors.Is(ferr, ErrFrameTooLarge) {
					break
				}
				p.Reset()
				return
			}
			if frag == nil {
				break
			}
			frags = append(frags, frag)
		}
	}
	return
}

func (p *Parser) next() (*Packet, error) {
	if p.buf.Len() < HeaderSize {
		return nil, nil
	}
	h, err := DecodeHeader(p.buf.Bytes())
	if err != nil {
		return nil, err
	}
	if h.Size() > p.max {
		// the buffer never holds more than the bound, so all of it
		// belongs to the rejected fragment.
		p.skip = h.Size() - p.buf.Len()
		p.buf.Reset()
		return nil, fmt.Errorf("%w: %s declares %d bytes, bound %d", ErrFrameTooLarge, h, h.Size(), p.max)
	}
	if p.buf.Len() < h.Size() {
		return nil, nil
	}
	frag, err := Decode(p.buf.Bytes()[:h.Size()])
	if err != nil {
		return nil, err
	}
	p.buf.Consume(h.Size())
	return frag, nil
}
