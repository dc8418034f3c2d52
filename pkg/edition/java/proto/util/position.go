package util

import (
	"fmt"
	"io"
)

// Position domain.
const (
	MaxPositionXZ = 30_000_000
	MinPositionY  = -2048
	MaxPositionY  = 2047
)

const (
	positionXZBits = 26
	positionYBits  = 12
)

// Position is a block position packed into one 64 bit word on the wire:
// x in the high 26 bits, z in the next 26 bits and y in the low 12 bits.
type Position struct {
	X, Y, Z int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Validate returns a *DomainError if p is outside the position domain.
func (p Position) Validate() error {
	switch {
	case p.X < -MaxPositionXZ || p.X > MaxPositionXZ:
		return NewDomainError("Position", p, "x out of range [%d, %d]", -MaxPositionXZ, MaxPositionXZ)
	case p.Z < -MaxPositionXZ || p.Z > MaxPositionXZ:
		return NewDomainError("Position", p, "z out of range [%d, %d]", -MaxPositionXZ, MaxPositionXZ)
	case p.Y < MinPositionY || p.Y > MaxPositionY:
		return NewDomainError("Position", p, "y out of range [%d, %d]", MinPositionY, MaxPositionY)
	}
	return nil
}

// Pack returns the wire word of p. p must be valid.
func (p Position) Pack() uint64 {
	return ToTwosComplement(int64(p.X), positionXZBits)<<38 |
		ToTwosComplement(int64(p.Z), positionXZBits)<<12 |
		ToTwosComplement(int64(p.Y), positionYBits)
}

// UnpackPosition is the inverse of Position.Pack.
func UnpackPosition(v uint64) Position {
	return Position{
		X: int(FromTwosComplement(v>>38, positionXZBits)),
		Z: int(FromTwosComplement(v>>12, positionXZBits)),
		Y: int(FromTwosComplement(v, positionYBits)),
	}
}

// ToTwosComplement returns the low bits of the two's complement form of n.
func ToTwosComplement(n int64, bits uint) uint64 {
	return uint64(n) & (1<<bits - 1)
}

// FromTwosComplement interprets the low bits of n as a signed two's complement number.
func FromTwosComplement(n uint64, bits uint) int64 {
	n &= 1<<bits - 1
	if n&(1<<(bits-1)) != 0 {
		return int64(n) - 1<<bits
	}
	return int64(n)
}

func WritePosition(wr io.Writer, p Position) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return WriteUint64(wr, p.Pack())
}

func ReadPosition(rd io.Reader) (Position, error) {
	v, err := ReadUint64(rd)
	if err != nil {
		return Position{}, NewDecodeError("Position", err)
	}
	p := UnpackPosition(v)
	if err = p.Validate(); err != nil {
		return Position{}, NewDecodeError("Position", err)
	}
	return p, nil
}
