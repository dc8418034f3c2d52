// Package metadata contains the entity metadata wire type: a list of
// indexed, typed values terminated by index 0xFF.
package metadata

import (
	"bytes"
	"fmt"
	"io"

	"go.minekube.com/cubes/pkg/edition/java/proto/util"
)

// EndIndex terminates a metadata list on the wire.
const EndIndex = 0xFF

// Entry is one indexed metadata value.
type Entry struct {
	Index uint8
	Value Value
}

// Metadata is an ordered list of entries.
type Metadata []Entry

// Get returns the value at index.
func (m Metadata) Get(index uint8) (Value, bool) {
	for _, e := range m {
		if e.Index == index {
			return e.Value, true
		}
	}
	return nil, false
}

// Validate returns a *util.DomainError for the first invalid entry.
func (m Metadata) Validate() error {
	for _, e := range m {
		if e.Index == EndIndex {
			return util.NewDomainError("EntityMetadata", e.Index, "index %#x is reserved", EndIndex)
		}
		if e.Value == nil {
			return util.NewDomainError("EntityMetadata", e.Index, "missing value")
		}
		if err := e.Value.validate(); err != nil {
			return fmt.Errorf("metadata index %d: %w", e.Index, err)
		}
	}
	return nil
}

// Write writes each entry as UnsignedByte(index) VarInt(type) value
// followed by the end index.
func Write(wr io.Writer, m Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	err := util.RecoverFunc(func() error {
		w := util.PanicWriter(buf)
		for _, e := range m {
			w.Uint8(e.Index)
			w.VarInt(int(e.Value.Type()))
			e.Value.write(w)
		}
		w.Uint8(EndIndex)
		return nil
	})
	if err != nil {
		return err
	}
	_, err = wr.Write(buf.Bytes())
	return err
}

// Read reads entries up to and including the end index.
// An unknown field type is a *util.DecodeError as the rest of the list can not be located.
func Read(rd io.Reader) (m Metadata, err error) {
	defer func() {
		if err != nil {
			m, err = nil, util.NewDecodeError("EntityMetadata", err)
		}
	}()
	defer util.Recover(&err)
	r := util.PanicReader(rd)

	m = Metadata{}
	for {
		var index uint8
		r.Uint8(&index)
		if index == EndIndex {
			return m, nil
		}
		var rawType int
		r.VarInt(&rawType)
		t := FieldType(rawType)
		if !t.Valid() {
			return nil, fmt.Errorf("index %d: unknown field type %d", index, rawType)
		}
		v := readValue(r, t)
		if err = v.validate(); err != nil {
			return nil, fmt.Errorf("index %d: %w", index, err)
		}
		m = append(m, Entry{Index: index, Value: v})
	}
}
