package item

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"go.minekube.com/cubes/pkg/edition/java/proto/util"
)

func TestSlot_RoundTrip(t *testing.T) {
	withTag, err := New(1, 64, util.NBT{"Damage": int32(5)})
	require.NoError(t, err)
	noTag, err := New(276, 1, nil)
	require.NoError(t, err)

	for _, s := range []*Slot{nil, noTag, withTag} {
		t.Run(s.String(), func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, Write(buf, s))
			buf.WriteByte(0xAA)

			got, err := Read(buf)
			require.NoError(t, err)
			require.Equal(t, s, got)
			require.Equal(t, []byte{0xAA}, buf.Bytes())
		})
	}
}

func TestSlot_Wire(t *testing.T) {
	s, err := New(1, 2, nil)
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, s))
	require.Equal(t, []byte{0x01, 0x01, 0x02, 0x00}, buf.Bytes())

	buf.Reset()
	require.NoError(t, Write(buf, nil))
	require.Equal(t, []byte{0x00}, buf.Bytes())

	s, err = New(1, 2, util.NBT{})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, Write(buf, s))
	require.Equal(t, []byte{0x01, 0x01, 0x02, 0x0A, 0x00, 0x00, 0x00}, buf.Bytes())
}

func TestSlot_Validation(t *testing.T) {
	for _, tc := range []struct{ id, count int }{
		{0, 1}, {-1, 1}, {1, 0}, {1, 65}, {1, -3},
	} {
		_, err := New(tc.id, tc.count, nil)
		var de *util.DomainError
		require.ErrorAs(t, err, &de, "id=%d count=%d", tc.id, tc.count)
	}

	// Count 0 on the wire is not a valid stack.
	_, err := Read(bytes.NewReader([]byte{0x01, 0x01, 0x00, 0x00}))
	var de *util.DecodeError
	require.ErrorAs(t, err, &de)
}

func TestSlot_Immutable(t *testing.T) {
	tag := util.NBT{"a": int32(1)}
	s, err := New(5, 10, tag)
	require.NoError(t, err)
	tag["a"] = int32(2)
	s.Tag()["a"] = int32(3)
	v, _ := s.Tag().Int32("a")
	require.Equal(t, int32(1), v)

	more, err := s.WithCount(20)
	require.NoError(t, err)
	require.Equal(t, 10, s.Count())
	require.Equal(t, 20, more.Count())

	_, err = s.WithCount(65)
	require.Error(t, err)

	bare, err := s.WithTag(nil)
	require.NoError(t, err)
	require.False(t, bare.HasTag())
	require.True(t, s.HasTag())
}

func TestSlot_Truncated(t *testing.T) {
	buf := new(bytes.Buffer)
	s, err := New(3, 3, util.NBT{"k": "v"})
	require.NoError(t, err)
	require.NoError(t, Write(buf, s))
	_, err = Read(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	require.Error(t, err)

	_, err = Read(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}
