package hal

import (
	"io"

	"golang.org/x/net/websocket"
)

// NewWebSocket creates a Transport to a remote controller served over
// websocket. Each binary message carries raw UCI bytes.
func NewWebSocket(url, origin string) *Stream {
	return NewStream("ws:"+url, func() (io.ReadWriteCloser, error) {
		conn, err := websocket.Dial(url, "", origin)
		if err != nil {
			return nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return &wsConn{conn: conn}, nil
	})
}

type wsConn struct {
	conn    *websocket.Conn
	pending []byte
}

func (c *wsConn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		if err := websocket.Message.Receive(c.conn, &c.pending); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(c.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
