package cachutil

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestLoader_SharesConcurrentLoads(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(key int) (string, error) {
		calls.Inc()
		<-release
		return "v", nil
	}
	c := ttlcache.New[int, string](ttlcache.WithLoader[int, string](NewLoader(time.Minute, load)))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := c.Get(1)
			if assert.NotNil(t, item) {
				assert.Equal(t, "v", item.Value())
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	require.EqualValues(t, 1, calls.Load())

	v, err := Get(c, 1, load)
	require.NoError(t, err)
	require.Equal(t, "v", v)
	require.EqualValues(t, 1, calls.Load(), "served from cache")
}

func TestLoader_ErrorNotCached(t *testing.T) {
	var calls atomic.Int32
	load := func(key int) (string, error) {
		calls.Inc()
		return "", errors.New("unavailable")
	}
	c := ttlcache.New[int, string](ttlcache.WithLoader[int, string](NewLoader(time.Minute, load)))

	_, err := Get(c, 1, load)
	require.EqualError(t, err, "unavailable")
	require.Equal(t, 0, c.Len())
	require.EqualValues(t, 2, calls.Load())
}
