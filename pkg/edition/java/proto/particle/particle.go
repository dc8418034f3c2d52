// Package particle contains the particle effect wire types.
//
// A Particle is one of Bare, Block, Dust, DustColorTransition,
// FallingDust, Item and Vibration. Values are validated on construction,
// on Write and on Read.
package particle

import (
	"bytes"
	"fmt"
	"io"

	"go.minekube.com/cubes/pkg/edition/java/proto/item"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
)

// Payload domains.
const (
	MaxBlockState = 9 // composter has the most states
	MinScale      = 0.01
	MaxScale      = 4
)

// Particle is a particle effect.
type Particle interface {
	ID() ID
	validate() error
	writePayload(w *util.PWriter)
}

type (
	// Bare is a particle without payload.
	Bare struct{ id ID }
	// Block is the block break particle.
	Block struct{ BlockState int }
	// FallingDust is the falling dust particle of a block.
	FallingDust struct{ BlockState int }
	// Dust is a colored redstone dust particle.
	Dust struct {
		Red, Green, Blue float32 // in [0, 1]
		Scale            float32 // in [0.01, 4]
	}
	// DustColorTransition is a dust particle fading between two colors.
	DustColorTransition struct {
		FromRed, FromGreen, FromBlue float32
		Scale                        float32
		ToRed, ToGreen, ToBlue       float32
	}
	// Item is the item break particle.
	Item struct{ Item *item.Slot }
	// Vibration travels from an origin to a destination within Ticks.
	Vibration struct {
		OriginX, OriginY, OriginZ float64
		DestX, DestY, DestZ       float64
		Ticks                     int32
	}
)

var (
	_ Particle = Bare{}
	_ Particle = Block{}
	_ Particle = FallingDust{}
	_ Particle = Dust{}
	_ Particle = DustColorTransition{}
	_ Particle = Item{}
	_ Particle = Vibration{}
)

// NewBare returns a particle without payload.
// Ids that require a payload must use their own type.
func NewBare(id ID) (Bare, error) {
	p := Bare{id: id}
	return p, p.validate()
}

func NewBlock(blockState int) (Block, error) {
	p := Block{BlockState: blockState}
	return p, p.validate()
}

func NewFallingDust(blockState int) (FallingDust, error) {
	p := FallingDust{BlockState: blockState}
	return p, p.validate()
}

func NewDust(red, green, blue, scale float32) (Dust, error) {
	p := Dust{Red: red, Green: green, Blue: blue, Scale: scale}
	return p, p.validate()
}

func NewDustColorTransition(fromRed, fromGreen, fromBlue, toRed, toGreen, toBlue, scale float32) (DustColorTransition, error) {
	p := DustColorTransition{
		FromRed: fromRed, FromGreen: fromGreen, FromBlue: fromBlue,
		Scale: scale,
		ToRed: toRed, ToGreen: toGreen, ToBlue: toBlue,
	}
	return p, p.validate()
}

// NewItem returns an item particle, the slot may be empty.
func NewItem(slot *item.Slot) (Item, error) {
	p := Item{Item: slot}
	return p, p.validate()
}

func NewVibration(originX, originY, originZ, destX, destY, destZ float64, ticks int32) (Vibration, error) {
	p := Vibration{
		OriginX: originX, OriginY: originY, OriginZ: originZ,
		DestX: destX, DestY: destY, DestZ: destZ,
		Ticks: ticks,
	}
	return p, p.validate()
}

func (p Bare) ID() ID              { return p.id }
func (Block) ID() ID               { return BlockID }
func (FallingDust) ID() ID         { return FallingDustID }
func (Dust) ID() ID                { return DustID }
func (DustColorTransition) ID() ID { return DustColorTransitionID }
func (Item) ID() ID                { return ItemID }
func (Vibration) ID() ID           { return VibrationID }

// Validate returns a *util.DomainError if p is not a valid particle.
func Validate(p Particle) error {
	if p == nil {
		return util.NewDomainError("Particle", p, "must not be nil")
	}
	return p.validate()
}

func (p Bare) validate() error {
	if !p.id.Valid() {
		return util.NewDomainError("Particle", p.id, "unknown particle id")
	}
	if p.id.HasPayload() {
		return util.NewDomainError("Particle", p.id, "%s requires a payload", p.id)
	}
	return nil
}

func (p Block) validate() error       { return validateBlockState(BlockID, p.BlockState) }
func (p FallingDust) validate() error { return validateBlockState(FallingDustID, p.BlockState) }

func validateBlockState(id ID, state int) error {
	if state < 0 || state > MaxBlockState {
		return util.NewDomainError("Particle", state, "%s block state must be in [0, %d]", id, MaxBlockState)
	}
	return nil
}

func (p Dust) validate() error {
	return validateDust(DustID, p.Scale, p.Red, p.Green, p.Blue)
}

func (p DustColorTransition) validate() error {
	return validateDust(DustColorTransitionID, p.Scale,
		p.FromRed, p.FromGreen, p.FromBlue, p.ToRed, p.ToGreen, p.ToBlue)
}

func validateDust(id ID, scale float32, colors ...float32) error {
	for _, c := range colors {
		if !(c >= 0 && c <= 1) {
			return util.NewDomainError("Particle", c, "%s color must be in [0, 1]", id)
		}
	}
	if !(scale >= MinScale && scale <= MaxScale) {
		return util.NewDomainError("Particle", scale, "%s scale must be in [%v, %v]", id, MinScale, MaxScale)
	}
	return nil
}

func (p Item) validate() error { return p.Item.Validate() }

func (p Vibration) validate() error {
	if p.Ticks <= 0 {
		return util.NewDomainError("Particle", p.Ticks, "vibration ticks must be positive")
	}
	return nil
}

func (Bare) writePayload(*util.PWriter) {}

func (p Block) writePayload(w *util.PWriter)       { w.VarInt(p.BlockState) }
func (p FallingDust) writePayload(w *util.PWriter) { w.VarInt(p.BlockState) }

func (p Dust) writePayload(w *util.PWriter) {
	w.Float32(p.Red)
	w.Float32(p.Green)
	w.Float32(p.Blue)
	w.Float32(p.Scale)
}

func (p DustColorTransition) writePayload(w *util.PWriter) {
	w.Float32(p.FromRed)
	w.Float32(p.FromGreen)
	w.Float32(p.FromBlue)
	w.Float32(p.Scale)
	w.Float32(p.ToRed)
	w.Float32(p.ToGreen)
	w.Float32(p.ToBlue)
}

func (p Item) writePayload(w *util.PWriter) {
	w.Func(func(wr io.Writer) error { return item.Write(wr, p.Item) })
}

func (p Vibration) writePayload(w *util.PWriter) {
	w.Float64(p.OriginX)
	w.Float64(p.OriginY)
	w.Float64(p.OriginZ)
	w.Float64(p.DestX)
	w.Float64(p.DestY)
	w.Float64(p.DestZ)
	w.Int32(p.Ticks)
}

// Write validates p and writes VarInt(id) followed by the id's payload.
func Write(wr io.Writer, p Particle) error {
	if err := Validate(p); err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	err := util.RecoverFunc(func() error {
		w := util.PanicWriter(buf)
		w.VarInt(int(p.ID()))
		p.writePayload(w)
		return nil
	})
	if err != nil {
		return err
	}
	_, err = wr.Write(buf.Bytes())
	return err
}

// Read reads a particle written by Write.
// An unknown id is a *util.DecodeError since the payload size cannot be known.
func Read(rd io.Reader) (p Particle, err error) {
	defer func() {
		if err != nil {
			p, err = nil, util.NewDecodeError("Particle", err)
		}
	}()
	defer util.Recover(&err)
	r := util.PanicReader(rd)

	var rawID int
	r.VarInt(&rawID)
	id := ID(rawID)
	switch {
	case id == BlockID:
		var v Block
		r.VarInt(&v.BlockState)
		p = v
	case id == FallingDustID:
		var v FallingDust
		r.VarInt(&v.BlockState)
		p = v
	case id == DustID:
		var v Dust
		r.Float32(&v.Red)
		r.Float32(&v.Green)
		r.Float32(&v.Blue)
		r.Float32(&v.Scale)
		p = v
	case id == DustColorTransitionID:
		var v DustColorTransition
		r.Float32(&v.FromRed)
		r.Float32(&v.FromGreen)
		r.Float32(&v.FromBlue)
		r.Float32(&v.Scale)
		r.Float32(&v.ToRed)
		r.Float32(&v.ToGreen)
		r.Float32(&v.ToBlue)
		p = v
	case id == ItemID:
		var v Item
		r.Func(func(rd io.Reader) (err error) {
			v.Item, err = item.Read(rd)
			return err
		})
		p = v
	case id == VibrationID:
		var v Vibration
		r.Float64(&v.OriginX)
		r.Float64(&v.OriginY)
		r.Float64(&v.OriginZ)
		r.Float64(&v.DestX)
		r.Float64(&v.DestY)
		r.Float64(&v.DestZ)
		r.Int32(&v.Ticks)
		p = v
	case id.Valid():
		p = Bare{id: id}
	default:
		return nil, fmt.Errorf("unknown particle id %d", rawID)
	}
	return p, p.validate()
}
