package main

import (
	"bufio"
	"net"
	"strings"

	"go.uber.org/zap"
)

const (
	delim = '\x00'
	sep   = "`"

	// Inbound frames are capped at 2048 bytes, way more than any client
	// message needs.
	maxFrame = 2048

	outboxCap = 64
)

// conner is the outbound half of a client connection. The dispatcher only
// ever sends and closes; reading happens in the goroutine that owns the
// connection. Tests substitute their own implementation.
type conner interface {
	send(msg string)
	close() error
}

type gameConn struct {
	id     uint32
	conn   net.Conn
	r      *bufio.Reader
	out    chan []byte
	closed bool
	log    *zap.Logger
}

func newGameConn(id uint32, conn net.Conn, log *zap.Logger) *gameConn {
	c := &gameConn{
		id:   id,
		conn: conn,
		r:    bufio.NewReaderSize(conn, maxFrame),
		out:  make(chan []byte, outboxCap),
		log:  log.With(zap.Uint32("conn", id)),
	}
	go c.writeLoop()
	return c
}

// read returns the next NUL-delimited message without the delimiter. A frame
// that exceeds maxFrame bytes without a delimiter surfaces as
// bufio.ErrBufferFull and tears the connection down like any other read
// error.
func (c *gameConn) read() (string, error) {
	b, err := c.r.ReadSlice(delim)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(b), string(delim)), nil
}

// send queues one frame, best effort. A slow client whose outbox has filled
// loses the frame rather than stalling the state loop.
func (c *gameConn) send(msg string) {
	if c.closed {
		return
	}
	frame := append([]byte(msg), delim)
	select {
	case c.out <- frame:
	default:
		c.log.Warn("outbox full, dropping frame", zap.String("frame", msg))
	}
}

// close, like send, is only ever called from the state loop.
func (c *gameConn) close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.out)
	return c.conn.Close()
}

func (c *gameConn) writeLoop() {
	for frame := range c.out {
		if _, err := c.conn.Write(frame); err != nil {
			c.log.Debug("write failed", zap.Error(err))
			c.conn.Close()
			return
		}
	}
}
