package uci

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer(8)
	require.NoError(t, b.Append([]byte{1, 2, 3}))
	require.NoError(t, b.WriteAt(1, []byte{4, 5, 6, 7}))
	require.Equal(t, []byte{1, 4, 5, 6, 7}, b.Bytes())

	err := b.Append([]byte{8, 9, 10, 11})
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Equal(t, []byte{1, 4, 5, 6, 7}, b.Bytes())

	require.Error(t, b.WriteAt(6, []byte{1}))
	require.Error(t, b.WriteAt(-1, []byte{1}))

	b.Consume(2)
	require.Equal(t, []byte{5, 6, 7}, b.Bytes())
	b.Consume(10)
	require.Zero(t, b.Len())
	require.NoError(t, b.Append(make([]byte, 8)))
	require.Equal(t, 8, b.Len())
	b.Reset()
	require.Zero(t, b.Len())
}
