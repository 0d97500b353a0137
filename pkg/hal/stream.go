package hal

import (
	"io"
	"sync"

	"github.com/golang/glog"
)

// DefaultReadSize is the read chunk size of a Stream.
const DefaultReadSize = 2048

// Opener opens the underlying link of a Stream.
type Opener func() (io.ReadWriteCloser, error)

// Stream is a Transport over a byte stream link. The link is opened in
// background and read by a dedicated goroutine until closed.
type Stream struct {
	Name     string
	ReadSize int

	opener  Opener
	lock    sync.Mutex
	rwc     io.ReadWriteCloser
	onEvent EventFunc
	closing bool
}

// NewStream creates a Stream.
func NewStream(name string, opener Opener) *Stream {
	return &Stream{Name: name, ReadSize: DefaultReadSize, opener: opener}
}

// Open implements Transport.
func (s *Stream) Open(onEvent EventFunc, onData DataFunc) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.onEvent != nil {
		return ErrAlreadyOpen
	}
	s.onEvent, s.closing = onEvent, false
	go s.run(onEvent, onData)
	return nil
}

// Close implements Transport.
func (s *Stream) Close() error {
	s.lock.Lock()
	if s.onEvent == nil {
		s.lock.Unlock()
		return ErrNotOpen
	}
	s.closing = true
	rwc := s.rwc
	s.lock.Unlock()
	if rwc != nil {
		return rwc.Close()
	}
	return nil
}

// Write implements Transport.
func (s *Stream) Write(data []byte) error {
	s.lock.Lock()
	rwc := s.rwc
	s.lock.Unlock()
	if rwc == nil {
		return ErrNotOpen
	}
	for len(data) > 0 {
		n, err := rwc.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Ioctl implements Transport.
func (s *Stream) Ioctl(op IoctlOp, data []byte) ([]byte, error) {
	s.lock.Lock()
	rwc := s.rwc
	s.lock.Unlock()
	if rwc == nil {
		return nil, ErrNotOpen
	}
	if ctl, ok := rwc.(Controller); ok {
		return ctl.Ioctl(op, data)
	}
	return nil, ErrUnsupported
}

func (s *Stream) run(onEvent EventFunc, onData DataFunc) {
	rwc, err := s.opener()
	if err != nil {
		glog.Errorf("%s: open failed: %v", s.Name, err)
		s.finish()
		onEvent(EventError, err)
		return
	}
	s.lock.Lock()
	if s.closing {
		s.lock.Unlock()
		rwc.Close()
		s.finish()
		onEvent(EventCloseComplete, nil)
		return
	}
	s.rwc = rwc
	s.lock.Unlock()
	glog.Infof("%s: opened", s.Name)
	onEvent(EventOpenComplete, nil)

	size := s.ReadSize
	if size <= 0 {
		size = DefaultReadSize
	}
	buf := make([]byte, size)
	for {
		n, err := rwc.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			onData(data)
		}
		if err == nil {
			continue
		}
		s.lock.Lock()
		closing := s.closing
		s.lock.Unlock()
		s.finish()
		if closing {
			glog.Infof("%s: closed", s.Name)
			onEvent(EventCloseComplete, nil)
		} else {
			glog.Errorf("%s: read failed: %v", s.Name, err)
			rwc.Close()
			onEvent(EventError, err)
		}
		return
	}
}

func (s *Stream) finish() {
	s.lock.Lock()
	s.rwc, s.onEvent, s.closing = nil, nil, false
	s.lock.Unlock()
}
