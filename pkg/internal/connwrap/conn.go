// Package connwrap wraps accepted connections with traffic accounting.
package connwrap

import (
	"net"

	"go.uber.org/atomic"
)

// Conn is a net.Conn counting the bytes transferred in each direction.
type Conn struct {
	net.Conn // underlying connection

	read    atomic.Int64
	written atomic.Int64
	closed  atomic.Bool
}

// New wraps c.
func New(c net.Conn) *Conn { return &Conn{Conn: c} }

func (c *Conn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	c.read.Add(int64(n))
	return n, err
}

func (c *Conn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	c.written.Add(int64(n))
	return n, err
}

func (c *Conn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool { return c.closed.Load() }

// BytesRead returns the number of bytes read so far.
func (c *Conn) BytesRead() int64 { return c.read.Load() }

// BytesWritten returns the number of bytes written so far.
func (c *Conn) BytesWritten() int64 { return c.written.Load() }
