package hal

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestCharDev(t *testing.T) (*charDev, int) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	t.Cleanup(func() { unix.Close(fds[1]) })
	d, err := newCharDev(fds[0])
	require.NoError(t, err)
	return d, fds[1]
}

func TestCharDevReadWrite(t *testing.T) {
	d, peer := newTestCharDev(t)
	defer d.Close()

	n, err := d.Write([]byte{0x20, 0x02, 0x00, 0x00})
	require.NoError(t, err)
	require.Equal(t, 4, n)
	buf := make([]byte, 16)
	n, err = unix.Read(peer, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x20, 0x02, 0x00, 0x00}, buf[:n])

	_, err = unix.Write(peer, []byte{0x40, 0x02, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	n, err = d.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x40, 0x02, 0x00, 0x01, 0x00}, buf[:n])
}

func TestCharDevCloseWakesReader(t *testing.T) {
	d, _ := newTestCharDev(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := d.Read(make([]byte, 16))
		errCh <- err
	}()
	// let the reader block in poll.
	time.Sleep(20 * time.Millisecond)
	select {
	case err := <-errCh:
		t.Fatalf("read returned before close: %v", err)
	default:
	}

	closed := make(chan error, 1)
	go func() { closed <- d.Close() }()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, os.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("reader not woken by close")
	}
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("close blocked")
	}

	_, err := d.Read(make([]byte, 16))
	require.ErrorIs(t, err, os.ErrClosed)
	_, err = d.Write([]byte{0})
	require.ErrorIs(t, err, os.ErrClosed)
	_, err = d.Ioctl(IoctlDeviceReset, nil)
	require.ErrorIs(t, err, os.ErrClosed)
	require.NoError(t, d.Close())
}
