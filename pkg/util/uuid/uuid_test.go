package uuid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOfflinePlayerUUID(t *testing.T) {
	require.Equal(t, OfflinePlayerUUID("bob"), OfflinePlayerUUID("bob"))
	require.NotEqual(t, OfflinePlayerUUID("bob"), OfflinePlayerUUID("Bob"))
	require.Equal(t, "b50ad385-829d-3141-a216-7e7d7539ba7f", OfflinePlayerUUID("Notch").String())
}

func TestUUID_JSON(t *testing.T) {
	id := OfflinePlayerUUID("bob")
	b, err := json.Marshal(id)
	require.NoError(t, err)
	require.Equal(t, `"`+id.String()+`"`, string(b))

	var got UUID
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, id, got)

	require.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &got))
}
