package uci

import "fmt"

// Buffer is a byte buffer which grows up to a fixed capacity. Writes that
// would exceed the capacity fail and leave the buffer unchanged.
type Buffer struct {
	buf []byte
	max int
}

// NewBuffer creates a Buffer bounded to max bytes.
func NewBuffer(max int) *Buffer {
	return &Buffer{max: max}
}

// Cap returns the bound of the buffer.
func (b *Buffer) Cap() int {
	return b.max
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Bytes returns the content. The slice is only valid until the next
// modification.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// WriteAt writes p at off, extending the content when needed. off must
// not be beyond the current length.
func (b *Buffer) WriteAt(off int, p []byte) error {
	if off < 0 || off > len(b.buf) {
		return fmt.Errorf("write at %d beyond length %d", off, len(b.buf))
	}
	end := off + len(p)
	if end > b.max {
		return fmt.Errorf("%w: %d bytes exceed bound %d", ErrFrameTooLarge, end, b.max)
	}
	if end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	copy(b.buf[off:end], p)
	return nil
}

// Append appends p at the end.
func (b *Buffer) Append(p []byte) error {
	return b.WriteAt(len(b.buf), p)
}

// Consume drops the first n bytes.
func (b *Buffer) Consume(n int) {
	if n >= len(b.buf) {
		b.buf = b.buf[:0]
		return
	}
	b.buf = append(b.buf[:0], b.buf[n:]...)
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}
