package util

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"go.minekube.com/cubes/pkg/util/uuid"
)

// MaxStringBytes is the maximum UTF-8 byte length of a protocol string.
const MaxStringBytes = 131068

func ReadString(rd io.Reader) (string, error) {
	return ReadStringMax(rd, MaxStringBytes)
}

// ReadStringMax reads a string of at most max bytes.
// The length prefix is checked before the body is read.
func ReadStringMax(rd io.Reader, max int) (string, error) {
	length, err := ReadLengthPrefix(rd)
	if err != nil {
		return "", NewDecodeError("String", err)
	}
	if length > max {
		return "", NewDecodeError("String", fmt.Errorf("bad string length (got %d, max. %d)", length, max))
	}
	str := make([]byte, length)
	if _, err = io.ReadFull(rd, str); err != nil {
		return "", NewDecodeError("String", err)
	}
	return string(str), nil
}

func ReadBool(rd io.Reader) (bool, error) {
	b, err := ReadUint8(rd)
	if err != nil {
		return false, NewDecodeError("Boolean", err)
	}
	return b != 0, nil
}

func ReadInt8(rd io.Reader) (int8, error) {
	b, err := ReadUint8(rd)
	return int8(b), err
}

func ReadUint8(rd io.Reader) (byte, error) {
	b, err := asByteReader(rd).ReadByte()
	if err != nil {
		return 0, NewDecodeError("Byte", err)
	}
	return b, nil
}

func ReadAngle(rd io.Reader) (Angle, error) {
	b, err := ReadUint8(rd)
	return Angle(b), err
}

func ReadInt16(rd io.Reader) (int16, error) {
	v, err := ReadUint16(rd)
	return int16(v), err
}

func ReadUint16(rd io.Reader) (uint16, error) {
	var buf [2]byte
	if err := readFull(rd, buf[:], "Short"); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func ReadInt32(rd io.Reader) (int32, error) {
	v, err := ReadUint32(rd)
	return int32(v), err
}

func ReadUint32(rd io.Reader) (uint32, error) {
	var buf [4]byte
	if err := readFull(rd, buf[:], "Int"); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func ReadInt64(rd io.Reader) (int64, error) {
	v, err := ReadUint64(rd)
	return int64(v), err
}

func ReadUint64(rd io.Reader) (uint64, error) {
	var buf [8]byte
	if err := readFull(rd, buf[:], "Long"); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func ReadFloat32(rd io.Reader) (float32, error) {
	v, err := ReadUint32(rd)
	return math.Float32frombits(v), err
}

func ReadFloat64(rd io.Reader) (float64, error) {
	v, err := ReadUint64(rd)
	return math.Float64frombits(v), err
}

// ReadUUID reads 16 raw bytes.
func ReadUUID(rd io.Reader) (id uuid.UUID, err error) {
	err = readFull(rd, id[:], "UUID")
	return id, err
}

func readFull(rd io.Reader, p []byte, typ string) error {
	if _, err := io.ReadFull(rd, p); err != nil {
		return NewDecodeError(typ, err)
	}
	return nil
}
