// Package item contains the inventory slot wire type.
package item

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"math"

	"go.minekube.com/cubes/pkg/edition/java/proto/util"
)

// MaxCount is the largest stack size a slot holds.
const MaxCount = 64

// Slot is an immutable item stack.
// A nil *Slot is the empty slot.
type Slot struct {
	id    int
	count int
	tag   util.NBT
}

// New returns a validated item stack. The tag is optional.
func New(id, count int, tag util.NBT) (*Slot, error) {
	s := &Slot{id: id, count: count, tag: maps.Clone(tag)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate returns a *util.DomainError if the slot is not a valid item stack.
// The empty slot is valid.
func (s *Slot) Validate() error {
	if s == nil {
		return nil
	}
	if s.id <= 0 || s.id > math.MaxInt32 {
		return util.NewDomainError("Slot", s, "item id must be in [1, %d]", math.MaxInt32)
	}
	if s.count <= 0 || s.count > MaxCount {
		return util.NewDomainError("Slot", s, "count must be in [1, %d]", MaxCount)
	}
	return nil
}

func (s *Slot) ID() int    { return s.id }
func (s *Slot) Count() int { return s.count }

// HasTag reports whether the stack carries extra data.
func (s *Slot) HasTag() bool { return s.tag != nil }

// Tag returns a copy of the stack's extra data or nil.
func (s *Slot) Tag() util.NBT { return maps.Clone(s.tag) }

// WithCount returns a copy of s with a different stack size.
func (s *Slot) WithCount(count int) (*Slot, error) {
	return New(s.id, count, s.tag)
}

// WithTag returns a copy of s with different extra data, nil removes it.
func (s *Slot) WithTag(tag util.NBT) (*Slot, error) {
	return New(s.id, s.count, tag)
}

func (s *Slot) String() string {
	if s == nil {
		return "Slot{empty}"
	}
	return fmt.Sprintf("Slot{id=%d, count=%d, tag=%t}", s.id, s.count, s.HasTag())
}

// Write writes a slot as Boolean(present) [VarInt(id) Byte(count) tag],
// where tag is either a single 0x00 or a wrapped compound tag.
func Write(wr io.Writer, s *Slot) error {
	if s == nil {
		return util.WriteBool(wr, false)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	err := util.RecoverFunc(func() error {
		w := util.PanicWriter(buf)
		w.Bool(true)
		w.VarInt(s.id)
		w.Uint8(uint8(int8(s.count)))
		if s.tag == nil {
			w.Uint8(util.TagEnd)
			return nil
		}
		return util.WriteNBT(buf, s.tag)
	})
	if err != nil {
		return err
	}
	_, err = wr.Write(buf.Bytes())
	return err
}

// Read reads a slot written by Write. An empty slot is returned as nil.
func Read(rd io.Reader) (*Slot, error) {
	present, err := util.ReadBool(rd)
	if err != nil {
		return nil, util.NewDecodeError("Slot", err)
	}
	if !present {
		return nil, nil
	}
	id, err := util.ReadVarInt(rd)
	if err != nil {
		return nil, util.NewDecodeError("Slot", err)
	}
	count, err := util.ReadInt8(rd)
	if err != nil {
		return nil, util.NewDecodeError("Slot", err)
	}
	tagType, err := util.ReadUint8(rd)
	if err != nil {
		return nil, util.NewDecodeError("Slot", err)
	}
	var tag util.NBT
	if tagType != util.TagEnd {
		// Hand the already consumed tag type back to the compound decoder.
		tag, err = util.ReadNBT(io.MultiReader(bytes.NewReader([]byte{tagType}), rd))
		if err != nil {
			return nil, util.NewDecodeError("Slot", err)
		}
	}
	s, err := New(id, int(count), tag)
	if err != nil {
		return nil, util.NewDecodeError("Slot", err)
	}
	return s, nil
}
