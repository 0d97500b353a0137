package uci

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustBytes(t *testing.T, pkt *Packet) []byte {
	b, err := pkt.Bytes()
	require.NoError(t, err)
	return b
}

func TestParserChunks(t *testing.T) {
	rsp := NewResponse(GroupSession, OpcodeSessionInit, []byte{0})
	ntf := NewNotification(GroupSession, OpcodeSessionStatus, []byte{7, 0, 0, 0, 0, 0})
	stream := append(mustBytes(t, rsp), mustBytes(t, ntf)...)

	for split := 0; split <= len(stream); split++ {
		p := NewParser(DefaultMaxPacketSize)
		frags, err := p.Parse(stream[:split])
		require.NoError(t, err)
		more, err := p.Parse(stream[split:])
		require.NoError(t, err)
		frags = append(frags, more...)
		require.Equal(t, []*Packet{rsp, ntf}, frags, "split at %d", split)
		require.Zero(t, p.Buffered())
	}
}

func TestParserByteByByte(t *testing.T) {
	pkt := NewNotification(GroupRange, OpcodeRangeData, make([]byte, 300))
	b := mustBytes(t, pkt)
	p := NewParser(DefaultMaxPacketSize)
	var frags []*Packet
	for _, c := range b {
		out, err := p.Parse([]byte{c})
		require.NoError(t, err)
		frags = append(frags, out...)
	}
	require.Equal(t, []*Packet{pkt}, frags)
}

func TestParserLargeChunk(t *testing.T) {
	var stream []byte
	var expect []*Packet
	for n := 0; n < 20; n++ {
		pkt := NewNotification(GroupRange, OpcodeRangeData, make([]byte, 200))
		pkt.Payload[0] = byte(n)
		expect = append(expect, pkt)
		stream = append(stream, mustBytes(t, pkt)...)
	}
	p := NewParser(DefaultMaxPacketSize)
	frags, err := p.Parse(stream)
	require.NoError(t, err)
	require.Equal(t, expect, frags)
}

func TestParserRejectsOversized(t *testing.T) {
	p := NewParser(HeaderSize + MaxPayloadSize)
	ok := NewResponse(GroupCore, OpcodeCoreDeviceReset, []byte{0})
	// 512 bytes of payload declared, 2 of them in this chunk.
	stream := append(mustBytes(t, ok), 0x62, 0x80, 0x00, 0x02, 0xaa, 0xbb)
	frags, err := p.Parse(stream)
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Equal(t, []*Packet{ok}, frags)
	require.Zero(t, p.Buffered())
	require.Equal(t, 510, p.Discarding())

	frags, err = p.Parse(append(make([]byte, 510), mustBytes(t, ok)...))
	require.NoError(t, err)
	require.Equal(t, []*Packet{ok}, frags)
	require.Zero(t, p.Discarding())
}

func TestParserDiscardsOversizedAcrossChunks(t *testing.T) {
	p := NewParser(DefaultMaxPacketSize)
	// NTF declaring 3000 bytes of payload.
	head := append([]byte{0x6e, 0xa1, 0xb8, 0x0b}, make([]byte, 100)...)
	frags, err := p.Parse(head)
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Empty(t, frags)
	require.Equal(t, 2900, p.Discarding())

	// the rest of the payload looks like a response but is never decoded.
	lookalike := mustBytes(t, NewResponse(GroupCore, OpcodeCoreDeviceReset, []byte{0}))
	frags, err = p.Parse(lookalike)
	require.NoError(t, err)
	require.Empty(t, frags)
	for n := 0; n < 2900-len(lookalike)-1; n += 64 {
		size := 64
		if rest := 2900 - len(lookalike) - 1 - n; rest < size {
			size = rest
		}
		frags, err = p.Parse(bytes.Repeat([]byte{0x40}, size))
		require.NoError(t, err)
		require.Empty(t, frags)
	}
	require.Equal(t, 1, p.Discarding())

	ntf := NewNotification(GroupSession, OpcodeSessionStatus, []byte{7, 0, 0, 0, 0, 0})
	frags, err = p.Parse(append([]byte{0x40}, mustBytes(t, ntf)...))
	require.NoError(t, err)
	require.Equal(t, []*Packet{ntf}, frags)
	require.Zero(t, p.Discarding())
	require.Zero(t, p.Buffered())
}

func TestParserResumesAfterOversizedInSameChunk(t *testing.T) {
	p := NewParser(HeaderSize + MaxPayloadSize)
	ok := NewResponse(GroupCore, OpcodeCoreDeviceReset, []byte{0})
	stream := append([]byte{0x62, 0x80, 0x04, 0x01}, make([]byte, 260)...)
	stream = append(stream, mustBytes(t, ok)...)
	frags, err := p.Parse(stream)
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Equal(t, []*Packet{ok}, frags)
	require.Zero(t, p.Discarding())
	require.Zero(t, p.Buffered())
}

func TestParserResetForgetsDiscarding(t *testing.T) {
	p := NewParser(DefaultMaxPacketSize)
	_, err := p.Parse([]byte{0x6e, 0xa1, 0xb8, 0x0b})
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Equal(t, 3000, p.Discarding())
	p.Reset()
	require.Zero(t, p.Discarding())

	ok := NewResponse(GroupCore, OpcodeCoreDeviceReset, []byte{0})
	frags, err := p.Parse(mustBytes(t, ok))
	require.NoError(t, err)
	require.Equal(t, []*Packet{ok}, frags)
}

func TestParserRejectsMalformed(t *testing.T) {
	p := NewParser(DefaultMaxPacketSize)
	frags, err := p.Parse([]byte{0xe0, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrMalformedHeader)
	require.Empty(t, frags)
	require.Zero(t, p.Buffered())
}
