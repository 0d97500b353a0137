//go:build !linux

package hal

import "io"

// NewCharDev is only available on Linux.
func NewCharDev(path string) *Stream {
	return NewStream("chardev:"+path, func() (io.ReadWriteCloser, error) {
		return nil, ErrUnsupported
	})
}
