package addrquota

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcpAddr(s string) net.Addr {
	return net.TCPAddrFromAddrPort(netip.MustParseAddrPort(s))
}

func TestBlock(t *testing.T) {
	tests := []struct {
		addr net.Addr
		want string
	}{
		{tcpAddr("1.2.3.4:25565"), "1.2.3.0/24"},
		{tcpAddr("[::ffff:1.2.3.4]:1"), "1.2.3.0/24"},
		{tcpAddr("[2001:db8:1:2:3:4:5:6]:1"), "2001:db8:1:2::/64"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p, ok := Block(tt.addr)
			require.True(t, ok)
			assert.Equal(t, tt.want, p.String())
		})
	}

	_, ok := Block(pipeAddr{})
	assert.False(t, ok)
}

func TestQuota_Allow(t *testing.T) {
	q := New(0.0001, 2, 10)
	a := tcpAddr("10.0.0.1:1000")
	b := tcpAddr("10.0.0.2:2000") // same block
	c := tcpAddr("10.0.1.1:1000")

	assert.True(t, q.Allow(a))
	assert.True(t, q.Allow(b))
	assert.True(t, q.Blocked(a))
	assert.True(t, q.Allow(c))
	assert.True(t, q.Allow(pipeAddr{}))
	assert.Equal(t, 2, q.Len())
}

func TestQuota_MaxEntries(t *testing.T) {
	q := New(0.0001, 1, 1)
	a := tcpAddr("10.0.0.1:1")
	require.True(t, q.Allow(a))
	require.False(t, q.Allow(a))
	// Evicts the block of a, which starts over with a full bucket.
	require.True(t, q.Allow(tcpAddr("10.9.0.1:1")))
	require.True(t, q.Allow(a))
	assert.Equal(t, 1, q.Len())
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }
