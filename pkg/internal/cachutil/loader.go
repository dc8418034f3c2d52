// Package cachutil contains ttlcache helpers.
package cachutil

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// LoadFunc computes the value of key.
type LoadFunc[K comparable, V any] func(key K) (V, error)

// Loader is a ttlcache.Loader computing missing values with a LoadFunc.
// Concurrent loads of the same key share one LoadFunc call.
// Values whose LoadFunc failed are not cached.
type Loader[K comparable, V any] struct {
	load  LoadFunc[K, V]
	ttl   time.Duration
	group singleflight.Group
}

var _ ttlcache.Loader[string, any] = (*Loader[string, any])(nil)

// NewLoader returns a new Loader caching loaded values for ttl.
func NewLoader[K comparable, V any](ttl time.Duration, load LoadFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{load: load, ttl: ttl}
}

// Load implements ttlcache.Loader.
func (l *Loader[K, V]) Load(c *ttlcache.Cache[K, V], key K) *ttlcache.Item[K, V] {
	res, _, _ := l.group.Do(fmt.Sprint(key), func() (any, error) {
		v, err := l.load(key)
		if err != nil {
			return nil, err
		}
		return c.Set(key, v, l.ttl), nil
	})
	item, _ := res.(*ttlcache.Item[K, V])
	return item
}

// Get returns the value of key from c and falls back to calling load
// directly if c could not load it, returning load's error.
func Get[K comparable, V any](c *ttlcache.Cache[K, V], key K, load LoadFunc[K, V]) (V, error) {
	if item := c.Get(key); item != nil {
		return item.Value(), nil
	}
	return load(key)
}
