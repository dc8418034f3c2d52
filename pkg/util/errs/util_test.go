package errs

import (
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConnClosedErr(t *testing.T) {
	assert.False(t, IsConnClosedErr(nil))
	assert.False(t, IsConnClosedErr(io.ErrUnexpectedEOF))
	assert.True(t, IsConnClosedErr(net.ErrClosed))
	assert.True(t, IsConnClosedErr(fmt.Errorf("read: %w", io.EOF)))
	assert.True(t, IsConnClosedErr(&net.OpError{Op: "read", Err: net.ErrClosed}))
}

func TestSilent(t *testing.T) {
	err := NewSilentErr("bad packet %d", 1)
	assert.True(t, IsSilent(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsSilent(io.EOF))
	assert.Nil(t, WrapSilent(nil))
	assert.ErrorIs(t, WrapSilent(io.EOF), io.EOF)
}
