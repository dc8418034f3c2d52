// Package addrquota rate limits events per client address block.
package addrquota

import (
	"net"
	"net/netip"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/time/rate"
)

// Block sizes addresses are grouped by.
const (
	IPv4PrefixLen = 24
	IPv6PrefixLen = 64
)

// Quota is an address block based rate limiter.
// Every block gets its own token bucket of eventsPerSecond and burst,
// only the maxEntries most recently seen blocks are remembered.
type Quota struct {
	limit rate.Limit
	burst int

	mu     sync.Mutex // protects blocks
	blocks *lru.Cache
}

// New returns a new Quota.
func New(eventsPerSecond float32, burst, maxEntries int) *Quota {
	return &Quota{
		limit:  rate.Limit(eventsPerSecond),
		burst:  burst,
		blocks: lru.New(maxEntries),
	}
}

// Allow reports whether another event from addr is within the quota and
// takes a token if so. Addresses that are not IP addresses are always allowed.
func (q *Quota) Allow(addr net.Addr) bool {
	block, ok := Block(addr)
	if !ok {
		return true
	}
	q.mu.Lock()
	var limiter *rate.Limiter
	if v, found := q.blocks.Get(block); found {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(q.limit, q.burst)
		q.blocks.Add(block, limiter)
	}
	q.mu.Unlock()
	return limiter.Allow()
}

// Blocked is the inverse of Allow.
func (q *Quota) Blocked(addr net.Addr) bool { return !q.Allow(addr) }

// Len returns the number of remembered blocks.
func (q *Quota) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.blocks.Len()
}

// Block returns the address block addr belongs to.
func Block(addr net.Addr) (netip.Prefix, bool) {
	var ip netip.Addr
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip = a.AddrPort().Addr()
	case *net.UDPAddr:
		ip = a.AddrPort().Addr()
	default:
		if addr == nil {
			return netip.Prefix{}, false
		}
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			host = addr.String()
		}
		if ip, err = netip.ParseAddr(host); err != nil {
			return netip.Prefix{}, false
		}
	}
	if !ip.IsValid() {
		return netip.Prefix{}, false
	}
	ip = ip.Unmap()
	bits := IPv6PrefixLen
	if ip.Is4() {
		bits = IPv4PrefixLen
	}
	p, err := ip.WithZone("").Prefix(bits)
	return p, err == nil
}
