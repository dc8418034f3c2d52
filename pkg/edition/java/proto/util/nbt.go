package util

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	mcnbt "github.com/Tnze/go-mc/nbt"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// NBT is a named binary tag aka compound binary tag.
type NBT map[string]any

// Tag type ids used on the wire around compound roots.
const (
	TagEnd      byte = 0x00
	TagCompound byte = 0x0A
)

// nbtRootPrefix is the compound tag type followed by an empty root name.
var nbtRootPrefix = []byte{TagCompound, 0x00, 0x00}

func (b NBT) Bool(name string) (bool, bool) {
	val, ok := b.Uint8(name)
	return val == 1, ok
}

func (b NBT) Uint8(name string) (ret uint8, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(uint8)
	}
	return
}

func (b NBT) Int16(name string) (ret int16, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(int16)
	}
	return
}

func (b NBT) Int32(name string) (ret int32, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(int32)
	}
	return
}

func (b NBT) Int64(name string) (ret int64, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(int64)
	}
	return
}

func (b NBT) Float32(name string) (ret float32, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(float32)
	}
	return
}

func (b NBT) Float64(name string) (ret float64, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(float64)
	}
	return
}

func (b NBT) String(name string) (ret string, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(string)
	}
	return
}

func (b NBT) NBT(name string) (ret NBT, ok bool) {
	var val any
	if val, ok = b[name]; ok {
		ret, ok = val.(map[string]any)
		if !ok {
			ret, ok = val.(NBT)
		}
	}
	return
}

// SNBT returns the stringified form of b, e.g. {name:"Steve",level:3}.
func (b NBT) SNBT() (string, error) {
	buf := new(bytes.Buffer)
	if err := b.Write(buf); err != nil {
		return "", err
	}
	var raw mcnbt.RawMessage
	if _, err := mcnbt.NewDecoder(buf).Decode(&raw); err != nil {
		return "", fmt.Errorf("error decoding binary tag: %w", err)
	}
	return raw.String(), nil
}

// ParseSNBT parses a stringified compound tag.
func ParseSNBT(snbt string) (NBT, error) {
	buf := new(bytes.Buffer)
	if err := mcnbt.StringifiedMessage(snbt).MarshalNBT(buf); err != nil {
		return nil, fmt.Errorf("error marshalling snbt to binary: %w", err)
	}
	return ReadNBT(io.MultiReader(
		bytes.NewReader(nbtRootPrefix),
		buf,
		bytes.NewReader([]byte{TagEnd}),
	))
}

// ReadNBT reads a compound tag wrapped with its 3 byte compound root prefix.
func ReadNBT(rd io.Reader) (NBT, error) {
	var prefix [3]byte
	if _, err := io.ReadFull(rd, prefix[:]); err != nil {
		return nil, NewDecodeError("NBT", err)
	}
	if !bytes.Equal(prefix[:], nbtRootPrefix) {
		return nil, NewDecodeError("NBT", fmt.Errorf("invalid compound root prefix % x", prefix))
	}
	// The tag decoder expects the whole named root tag, hand the prefix back to it.
	dec := NewNBTDecoder(io.MultiReader(bytes.NewReader(prefix[:]), rd))
	v := NBT{}
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, NewDecodeError("NBT", err)
	}
	return v, nil
}

// WriteNBT writes the 3 byte compound root prefix followed by the compound tag's body.
func WriteNBT(w io.Writer, tag NBT) error {
	if tag == nil {
		tag = NBT{}
	}
	buf := new(bytes.Buffer)
	if err := NewNBTEncoder(buf).Encode(map[string]any(tag)); err != nil {
		return NewDomainError("NBT", tag, "%v", err)
	}
	body := buf.Bytes()
	if !bytes.HasPrefix(body, nbtRootPrefix) {
		return NewDomainError("NBT", tag, "unexpected root encoding % x", body[:min(len(body), 3)])
	}
	if _, err := w.Write(nbtRootPrefix); err != nil {
		return err
	}
	_, err := w.Write(body[len(nbtRootPrefix):])
	return err
}

func (b NBT) Write(w io.Writer) error {
	return WriteNBT(w, b)
}

// NewNBTDecoder returns a big endian tag decoder that never reads past the tag.
func NewNBTDecoder(r io.Reader) *nbt.Decoder {
	return nbt.NewDecoderWithEncoding(AsByteReader(r), nbt.BigEndian)
}

func NewNBTEncoder(w io.Writer) *nbt.Encoder {
	return nbt.NewEncoderWithEncoding(w, nbt.BigEndian)
}
