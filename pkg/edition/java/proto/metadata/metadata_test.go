package metadata

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"go.minekube.com/cubes/pkg/edition/java/proto/item"
	"go.minekube.com/cubes/pkg/edition/java/proto/particle"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/util/uuid"
)

func TestMetadata_RoundTrip(t *testing.T) {
	slot, err := item.New(42, 3, nil)
	require.NoError(t, err)
	dust, err := particle.NewDust(1, 0, 0, 1)
	require.NoError(t, err)
	flame, err := particle.NewBare(particle.FlameID)
	require.NoError(t, err)

	values := []Value{
		Byte(-1),
		VarInt(1 << 20),
		Float(0.5),
		String("Grumm"),
		Chat(`{"text":"hi"}`),
		OptChat{Chat: Ptr(`{"text":"named"}`)},
		OptChat{},
		Slot{Item: slot},
		Slot{},
		Boolean(true),
		Rotation{X: 1, Y: -2, Z: 3.5},
		Position{X: -30_000_000, Y: 2047, Z: 30_000_000},
		OptPosition{Position: &util.Position{X: 1, Y: 2, Z: 3}},
		OptPosition{},
		East,
		OptUUID{UUID: Ptr(uuid.OfflinePlayerUUID("Notch"))},
		OptUUID{},
		OptBlockID{ID: Ptr(int32(0))},
		OptBlockID{},
		NBT{"Name": "minecraft:stone"},
		Particle{Particle: dust},
		Particle{Particle: flame},
		VillagerData{Kind: Taiga, Profession: Librarian, Level: MaxVillagerLevel},
		OptVarInt{Value: Ptr(int32(5))},
		OptVarInt{},
		Dying,
	}

	var m Metadata
	seen := map[FieldType]bool{}
	for i, v := range values {
		m = append(m, Entry{Index: uint8(i), Value: v})
		seen[v.Type()] = true
	}
	for ft := FieldType(0); ft.Valid(); ft++ {
		require.True(t, seen[ft], "missing %s", ft)
	}

	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, m))
	require.Equal(t, byte(EndIndex), buf.Bytes()[buf.Len()-1])
	got, err := Read(buf)
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Zero(t, buf.Len())
}

func TestMetadata_OffByOne(t *testing.T) {
	tests := []struct {
		value Value
		wire  []byte
	}{
		{OptVarInt{}, []byte{0x00, byte(OptVarIntType), 0x00, EndIndex}},
		{OptVarInt{Value: Ptr(int32(5))}, []byte{0x00, byte(OptVarIntType), 0x06, EndIndex}},
		{OptBlockID{}, []byte{0x00, byte(OptBlockIDType), 0x00, EndIndex}},
		{OptBlockID{ID: Ptr(int32(0))}, []byte{0x00, byte(OptBlockIDType), 0x01, EndIndex}},
	}
	for _, tt := range tests {
		buf := new(bytes.Buffer)
		require.NoError(t, Write(buf, Metadata{{Index: 0, Value: tt.value}}))
		require.Equal(t, tt.wire, buf.Bytes())

		got, err := Read(bytes.NewReader(tt.wire))
		require.NoError(t, err)
		require.Equal(t, Metadata{{Index: 0, Value: tt.value}}, got)
	}

	require.Error(t, Write(new(bytes.Buffer), Metadata{{Value: OptVarInt{Value: Ptr(int32(-1))}}}))
}

func TestMetadata_OptionalFlags(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, Metadata{
		{Index: 1, Value: OptChat{}},
		{Index: 2, Value: OptPosition{}},
		{Index: 3, Value: OptUUID{}},
		{Index: 4, Value: Slot{}},
	}))
	require.Equal(t, []byte{
		1, byte(OptChatType), 0x00,
		2, byte(OptPositionType), 0x00,
		3, byte(OptUUIDType), 0x00,
		4, byte(SlotType), 0x00,
		EndIndex,
	}, buf.Bytes())
}

func TestMetadata_Empty(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, nil))
	require.Equal(t, []byte{EndIndex}, buf.Bytes())
	got, err := Read(buf)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMetadata_Invalid(t *testing.T) {
	var de *util.DomainError
	require.ErrorAs(t, Write(new(bytes.Buffer), Metadata{{Index: EndIndex, Value: Byte(0)}}), &de)
	require.ErrorAs(t, Write(new(bytes.Buffer), Metadata{{Index: 0, Value: VillagerData{Level: 6}}}), &de)
	require.ErrorAs(t, Write(new(bytes.Buffer), Metadata{{Index: 0, Value: Pose(8)}}), &de)
	require.ErrorAs(t, Write(new(bytes.Buffer), Metadata{{Index: 0, Value: Direction(6)}}), &de)
	require.ErrorAs(t, Write(new(bytes.Buffer), Metadata{{Index: 0, Value: Chat("not json")}}), &de)
	require.ErrorAs(t, Write(new(bytes.Buffer), Metadata{{Index: 0, Value: Position{X: 30_000_001}}}), &de)
	require.ErrorAs(t, Write(new(bytes.Buffer), Metadata{{Index: 0}}), &de)
}

func TestRead_Malformed(t *testing.T) {
	tests := map[string][]byte{
		"unknown type":     {0x00, 19, 0x00, EndIndex},
		"missing end":      {0x00, byte(BooleanType), 0x01},
		"villager level 6": {0x00, byte(VillagerDataType), 0x00, 0x00, 0x06, EndIndex},
		"unknown pose":     {0x00, byte(PoseType), 0x08, EndIndex},
	}
	for name, wire := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(wire))
			var de *util.DecodeError
			require.ErrorAs(t, err, &de)
		})
	}
}

func TestMetadata_Get(t *testing.T) {
	m := Metadata{{Index: 6, Value: Sneaking}}
	v, ok := m.Get(6)
	require.True(t, ok)
	require.Equal(t, Sneaking, v)
	require.Equal(t, Pose(5), Sneaking)
	require.Equal(t, Pose(6), LongJumping)
	_, ok = m.Get(0)
	require.False(t, ok)
}
