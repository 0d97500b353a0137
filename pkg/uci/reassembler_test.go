package uci

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fragment(mt MessageType, pbf bool, gid GroupID, oid OpcodeID, payload ...byte) *Packet {
	return &Packet{MessageType: mt, PBF: pbf, GroupID: gid, OpcodeID: oid, Payload: payload}
}

func rangeFrag(pbf bool, payload ...byte) *Packet {
	return fragment(MessageTypeNotification, pbf, GroupRange, OpcodeRangeData, payload...)
}

func TestReassemblerConcatenates(t *testing.T) {
	testCases := []struct {
		name  string
		frags [][]byte
	}{
		{"single", [][]byte{{1, 2, 3}}},
		{"two", [][]byte{{1, 2}, {3}}},
		{"many", [][]byte{{1}, {2, 3}, {}, {4, 5, 6}, {7}}},
		{"empty last", [][]byte{{1, 2}, {}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReassembler(DefaultMaxPacketSize)
			var expect []byte
			for n, payload := range tc.frags {
				expect = append(expect, payload...)
				last := n == len(tc.frags)-1
				pkt, err := r.Push(rangeFrag(!last, payload...))
				require.NoError(t, err)
				if !last {
					require.Nil(t, pkt)
					require.True(t, r.InProgress())
					continue
				}
				require.NotNil(t, pkt)
				require.False(t, r.InProgress())
				require.False(t, pkt.PBF)
				require.Equal(t, len(expect), len(pkt.Payload))
				require.Equal(t, len(expect), pkt.Header().Length)
				if len(expect) == 0 {
					require.Empty(t, pkt.Payload)
				} else {
					require.Equal(t, expect, pkt.Payload)
				}
			}
		})
	}
}

func TestReassemblerLargePacket(t *testing.T) {
	r := NewReassembler(DefaultMaxPacketSize)
	chunk := make([]byte, MaxPayloadSize)
	for n := 0; n < 8; n++ {
		pkt, err := r.Push(rangeFrag(true, chunk...))
		require.NoError(t, err)
		require.Nil(t, pkt)
	}
	pkt, err := r.Push(rangeFrag(false, 1, 2, 3))
	require.NoError(t, err)
	require.Len(t, pkt.Payload, 8*MaxPayloadSize+3)
	b, err := pkt.Bytes()
	require.NoError(t, err)
	h, err := DecodeHeader(b)
	require.NoError(t, err)
	require.True(t, h.Extended)
	require.Equal(t, 8*MaxPayloadSize+3, h.Length)
}

func TestReassemblerMismatchedContinuation(t *testing.T) {
	r := NewReassembler(DefaultMaxPacketSize)
	_, err := r.Push(rangeFrag(true, 1, 2))
	require.NoError(t, err)

	// a continuation of another stream is dropped
	pkt, err := r.Push(fragment(MessageTypeNotification, true, GroupSession, OpcodeSessionStatus, 9, 9))
	require.ErrorIs(t, err, ErrFragmentMismatch)
	require.Nil(t, pkt)
	require.True(t, r.InProgress())

	// an unrelated complete packet passes through
	pkt, err = r.Push(fragment(MessageTypeResponse, false, GroupCore, OpcodeCoreDeviceInfo, 0))
	require.NoError(t, err)
	require.Equal(t, GroupCore, pkt.GroupID)
	require.Equal(t, []byte{0}, pkt.Payload)
	require.True(t, r.InProgress())

	// same GID/OID but another message type doesn't merge
	_, err = r.Push(fragment(MessageTypeResponse, true, GroupRange, OpcodeRangeData, 8))
	require.ErrorIs(t, err, ErrFragmentMismatch)

	pkt, err = r.Push(rangeFrag(false, 3))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt.Payload)
	require.False(t, r.InProgress())
}

func TestReassemblerBound(t *testing.T) {
	r := NewReassembler(HeaderSize + 10)
	_, err := r.Push(rangeFrag(true, make([]byte, 6)...))
	require.NoError(t, err)
	_, err = r.Push(rangeFrag(true, make([]byte, 5)...))
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.False(t, r.InProgress())

	_, err = r.Push(rangeFrag(true, make([]byte, 6)...))
	require.NoError(t, err)
	_, err = r.Push(rangeFrag(false, make([]byte, 5)...))
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.False(t, r.InProgress())

	_, err = r.Push(rangeFrag(true, make([]byte, 11)...))
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.False(t, r.InProgress())

	pkt, err := r.Push(rangeFrag(true, 1))
	require.NoError(t, err)
	require.Nil(t, pkt)
	r.Reset()
	pkt, err = r.Push(rangeFrag(false, 2))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, pkt.Payload)
}
