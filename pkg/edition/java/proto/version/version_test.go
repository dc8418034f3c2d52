package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	v, ok := Lookup(756)
	require.True(t, ok)
	assert.Same(t, Minecraft_1_17_1, v)
	assert.Equal(t, "1.17.1", v.String())

	_, ok = Lookup(47)
	assert.False(t, ok)

	assert.Equal(t, "1.17-1.17.1", SupportedVersionsString)
}
