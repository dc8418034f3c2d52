package particle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"go.minekube.com/cubes/pkg/edition/java/proto/item"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
)

func TestParticle_RoundTrip(t *testing.T) {
	slot, err := item.New(1, 5, util.NBT{"CustomModelData": int32(7)})
	require.NoError(t, err)

	var all []Particle
	for id := ID(0); id.Valid(); id++ {
		if !id.HasPayload() {
			p, err := NewBare(id)
			require.NoError(t, err)
			all = append(all, p)
		}
	}
	all = append(all,
		Block{BlockState: 9},
		FallingDust{BlockState: 0},
		Dust{Red: 1, Green: 0.5, Blue: 0, Scale: 4},
		DustColorTransition{FromRed: 0, FromGreen: 0.25, FromBlue: 1, Scale: 0.01, ToRed: 1, ToGreen: 1, ToBlue: 0},
		Item{Item: slot},
		Item{},
		Vibration{OriginX: 1.5, OriginY: -64, OriginZ: 3, DestX: 4, DestY: 5, DestZ: -6.25, Ticks: 20},
	)
	require.Len(t, all, 89+1)

	for _, p := range all {
		t.Run(p.ID().String(), func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, Write(buf, p))
			got, err := Read(buf)
			require.NoError(t, err)
			require.Equal(t, p, got)
			require.Zero(t, buf.Len())
		})
	}
}

func TestDustColorTransition_WireOrder(t *testing.T) {
	p, err := NewDustColorTransition(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 2)
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, p))

	r := bytes.NewReader(buf.Bytes())
	id, err := util.ReadVarInt(r)
	require.NoError(t, err)
	require.Equal(t, int(DustColorTransitionID), id)
	var floats []float32
	for r.Len() > 0 {
		f, err := util.ReadFloat32(r)
		require.NoError(t, err)
		floats = append(floats, f)
	}
	require.Equal(t, []float32{0.1, 0.2, 0.3, 2, 0.4, 0.5, 0.6}, floats)
}

func TestParticle_Validation(t *testing.T) {
	_, err := NewBare(BlockID)
	require.Error(t, err, "payload id as bare particle")
	_, err = NewBare(ID(89))
	require.Error(t, err)
	require.Error(t, Write(new(bytes.Buffer), Bare{id: VibrationID}))
	require.Error(t, Validate(nil))

	_, err = NewBlock(10)
	require.Error(t, err)
	_, err = NewFallingDust(-1)
	require.Error(t, err)
	_, err = NewDust(1.1, 0, 0, 1)
	require.Error(t, err)
	_, err = NewDust(0, 0, 0, 0.001)
	require.Error(t, err)
	_, err = NewDustColorTransition(0, 0, 0, 0, 0, -0.1, 1)
	require.Error(t, err)
	_, err = NewVibration(0, 0, 0, 0, 0, 0, 0)
	require.Error(t, err)

	var de *util.DomainError
	require.ErrorAs(t, Write(new(bytes.Buffer), Dust{Scale: 5}), &de)
}

func TestRead_UnknownID(t *testing.T) {
	b, err := util.VarIntBytes(89)
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(b))
	var de *util.DecodeError
	require.ErrorAs(t, err, &de)

	// Out of domain payload on the wire.
	_, err = Read(bytes.NewReader([]byte{byte(BlockID), 10}))
	require.ErrorAs(t, err, &de)
}

func TestID_Identifier(t *testing.T) {
	require.Equal(t, "minecraft:flame", FlameID.Identifier())
	require.Equal(t, "minecraft:dust_color_transition", DustColorTransitionID.Identifier())
	require.Equal(t, ID(88), ScrapeID)
	require.Equal(t, ID(37), VibrationID)
}
