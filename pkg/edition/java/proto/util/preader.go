package util

import (
	"io"

	"go.minekube.com/cubes/pkg/util/uuid"
)

// PReader reads wire values and panics with the error on failure.
// Use Recover to turn the panic back into an error.
type PReader struct {
	r io.Reader
}

func PanicReader(r io.Reader) *PReader {
	return &PReader{r}
}

func (r *PReader) VarInt(i *int) {
	v, err := ReadVarInt(r.r)
	must(err)
	*i = v
}

func (r *PReader) String(s *string) {
	v, err := ReadString(r.r)
	must(err)
	*s = v
}

func (r *PReader) StringMax(s *string, max int) {
	v, err := ReadStringMax(r.r, max)
	must(err)
	*s = v
}

func (r *PReader) Bool(b *bool) {
	v, err := ReadBool(r.r)
	must(err)
	*b = v
}

func (r *PReader) Uint8(i *uint8) {
	v, err := ReadUint8(r.r)
	must(err)
	*i = v
}

func (r *PReader) Uint16(i *uint16) {
	v, err := ReadUint16(r.r)
	must(err)
	*i = v
}

func (r *PReader) Int32(i *int32) {
	v, err := ReadInt32(r.r)
	must(err)
	*i = v
}

func (r *PReader) Int64(i *int64) {
	v, err := ReadInt64(r.r)
	must(err)
	*i = v
}

func (r *PReader) Float32(f *float32) {
	v, err := ReadFloat32(r.r)
	must(err)
	*f = v
}

func (r *PReader) Float64(f *float64) {
	v, err := ReadFloat64(r.r)
	must(err)
	*f = v
}

func (r *PReader) UUID(id *uuid.UUID) {
	v, err := ReadUUID(r.r)
	must(err)
	*id = v
}

func (r *PReader) Position(p *Position) {
	v, err := ReadPosition(r.r)
	must(err)
	*p = v
}

// Func calls fn with the underlying reader.
func (r *PReader) Func(fn func(io.Reader) error) {
	must(fn(r.r))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
