package configutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1m30s","b":2}`), &v))
	require.Equal(t, 90*time.Second, v.A.Std())
	require.Equal(t, 2*time.Second, v.B.Std())

	require.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
	require.Error(t, json.Unmarshal([]byte(`{"a":"soon"}`), &v))
}

func TestDuration_Text(t *testing.T) {
	d := Duration(20 * time.Second)
	b, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "20s", string(b))

	var got Duration
	require.NoError(t, got.UnmarshalText(b))
	require.Equal(t, d, got)
}
