package util

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"go.minekube.com/cubes/pkg/util/uuid"
)

// ValidateString returns a *DomainError if s is not valid UTF-8
// or longer than MaxStringBytes bytes.
func ValidateString(s string) error {
	if len(s) > MaxStringBytes {
		return NewDomainError("String", len(s), "byte length exceeds %d", MaxStringBytes)
	}
	if !utf8.ValidString(s) {
		return NewDomainError("String", s, "not valid UTF-8")
	}
	return nil
}

func WriteString(wr io.Writer, val string) error {
	if err := ValidateString(val); err != nil {
		return err
	}
	buf := make([]byte, 0, MaxLengthPrefixLen+len(val))
	buf, _ = AppendLengthPrefix(buf, len(val)) // 131068 always fits 3 bytes
	buf = append(buf, val...)
	_, err := wr.Write(buf)
	return err
}

func WriteBool(wr io.Writer, val bool) error {
	if val {
		return WriteUint8(wr, 1)
	}
	return WriteUint8(wr, 0)
}

func WriteInt8(wr io.Writer, val int8) error {
	return WriteUint8(wr, uint8(val))
}

func WriteUint8(wr io.Writer, val uint8) error {
	_, err := wr.Write([]byte{val})
	return err
}

// WriteByteInt validates v against the signed byte range and writes it.
func WriteByteInt(wr io.Writer, v int) error {
	if err := ByteRange.Validate(int64(v)); err != nil {
		return err
	}
	return WriteInt8(wr, int8(v))
}

// WriteUnsignedByteInt validates v against the unsigned byte range and writes it.
func WriteUnsignedByteInt(wr io.Writer, v int) error {
	if err := UnsignedByteRange.Validate(int64(v)); err != nil {
		return err
	}
	return WriteUint8(wr, uint8(v))
}

func WriteAngle(wr io.Writer, a Angle) error {
	return WriteUint8(wr, uint8(a))
}

func WriteInt16(wr io.Writer, val int16) error {
	return WriteUint16(wr, uint16(val))
}

func WriteUint16(wr io.Writer, val uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], val)
	_, err := wr.Write(buf[:])
	return err
}

// WriteUnsignedShortInt validates v against the unsigned short range and writes it.
func WriteUnsignedShortInt(wr io.Writer, v int) error {
	if err := UnsignedShortRange.Validate(int64(v)); err != nil {
		return err
	}
	return WriteUint16(wr, uint16(v))
}

func WriteInt32(wr io.Writer, val int32) error {
	return WriteUint32(wr, uint32(val))
}

func WriteUint32(wr io.Writer, val uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], val)
	_, err := wr.Write(buf[:])
	return err
}

func WriteInt64(wr io.Writer, val int64) error {
	return WriteUint64(wr, uint64(val))
}

func WriteUint64(wr io.Writer, val uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], val)
	_, err := wr.Write(buf[:])
	return err
}

func WriteFloat32(wr io.Writer, val float32) error {
	return WriteUint32(wr, math.Float32bits(val))
}

func WriteFloat64(wr io.Writer, val float64) error {
	return WriteUint64(wr, math.Float64bits(val))
}

// WriteUUID writes the 16 raw bytes of id.
func WriteUUID(wr io.Writer, id uuid.UUID) error {
	_, err := wr.Write(id[:])
	return err
}

// Angle is a rotation angle in steps of 1/256 of a full turn.
type Angle uint8

// NewAngle returns the Angle of v. Values outside [0, 255]
// wrap modulo 255 instead of being rejected.
func NewAngle(v int) Angle {
	if v < 0 || v > math.MaxUint8 {
		v %= math.MaxUint8
		if v < 0 {
			v += math.MaxUint8
		}
	}
	return Angle(v)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 360 / 256
}
