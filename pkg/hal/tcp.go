package hal

import (
	"io"
	"net"
	"time"
)

// NewTCP creates a Transport over a TCP connection, e.g. to a serial
// server in front of the controller.
func NewTCP(addr string, timeout time.Duration) *Stream {
	return NewStream("tcp:"+addr, func() (io.ReadWriteCloser, error) {
		return net.DialTimeout("tcp", addr, timeout)
	})
}
