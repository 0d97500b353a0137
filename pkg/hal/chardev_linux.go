package hal

import (
	"io"
	"os"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

// ioctl requests of the SR1xx kernel driver.
var (
	sr1xxSetPower = iow(0xEA, 0x01, 8)
	sr1xxESEReset = iow(0xEA, 0x03, 8)
)

const (
	sr1xxPowerDisable = 0
	sr1xxPowerEnable  = 1
)

func iow(magic, nr, size uint) uint {
	return 1<<30 | size<<16 | magic<<8 | nr
}

// NewCharDev creates a Transport over the character device exposed by the
// controller kernel driver (e.g. /dev/srxxx). Each read returns at most one
// packet.
func NewCharDev(path string) *Stream {
	return NewStream("chardev:"+path, func() (io.ReadWriteCloser, error) {
		fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			return nil, &os.PathError{Op: "open", Path: path, Err: err}
		}
		d, err := newCharDev(fd)
		if err != nil {
			unix.Close(fd)
			return nil, &os.PathError{Op: "eventfd", Path: path, Err: err}
		}
		return d, nil
	})
}

// charDev polls the device together with an eventfd, so Close can wake a
// blocked reader. The descriptors are only closed once no call uses them.
type charDev struct {
	fd     int
	wakeFd int
	closed atomic.Bool
	lock   sync.RWMutex
}

func newCharDev(fd int) (*charDev, error) {
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &charDev{fd: fd, wakeFd: wakeFd}, nil
}

// wait blocks until fd is ready for events or the device is closed.
func (d *charDev) wait(events int16) error {
	for {
		if d.closed.Load() {
			return os.ErrClosed
		}
		fds := []unix.PollFd{
			{Fd: int32(d.fd), Events: events},
			{Fd: int32(d.wakeFd), Events: unix.POLLIN},
		}
		n, err := unix.Poll(fds, -1)
		if err == unix.EINTR || (err == nil && n == 0) {
			continue
		}
		if err != nil {
			return err
		}
		if fds[1].Revents != 0 {
			return os.ErrClosed
		}
		if fds[0].Revents != 0 {
			return nil
		}
	}
}

func (d *charDev) Read(p []byte) (int, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for {
		if err := d.wait(unix.POLLIN); err != nil {
			return 0, err
		}
		r, err := unix.Read(d.fd, p)
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil {
			return 0, err
		}
		if r == 0 {
			return 0, io.EOF
		}
		return r, nil
	}
}

func (d *charDev) Write(p []byte) (int, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for {
		if d.closed.Load() {
			return 0, os.ErrClosed
		}
		n, err := unix.Write(d.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			if err = d.wait(unix.POLLOUT); err != nil {
				return 0, err
			}
			continue
		}
		return n, err
	}
}

// Close wakes pending calls, waits for them to return, then closes the
// descriptors.
func (d *charDev) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	var one [8]byte
	one[0] = 1
	unix.Write(d.wakeFd, one[:])
	d.lock.Lock()
	defer d.lock.Unlock()
	err := unix.Close(d.fd)
	unix.Close(d.wakeFd)
	return err
}

// Ioctl implements Controller.
func (d *charDev) Ioctl(op IoctlOp, data []byte) ([]byte, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.closed.Load() {
		return nil, os.ErrClosed
	}
	switch op {
	case IoctlDeviceReset:
		if err := unix.IoctlSetInt(d.fd, sr1xxSetPower, sr1xxPowerDisable); err != nil {
			return nil, err
		}
		return nil, unix.IoctlSetInt(d.fd, sr1xxSetPower, sr1xxPowerEnable)
	case IoctlSEReset:
		return nil, unix.IoctlSetInt(d.fd, sr1xxESEReset, 0)
	}
	return nil, ErrUnsupported
}
