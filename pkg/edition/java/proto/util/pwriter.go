package util

import (
	"io"

	"go.minekube.com/cubes/pkg/util/uuid"
)

// Recover is a helper function to recover from a panic and set the error pointer to the recovered error.
// If the panic is not an error, it will be re-panicked.
//
// Usage:
//
//	func fn() (err error) {
//		defer Recover(&err)
//		// code that may panic(err)
//	}
func Recover(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
		} else {
			panic(r)
		}
	}
}

// RecoverFunc is a helper function to recover from a panic and set the error pointer to the recovered error.
// If the panic is not an error, it will be re-panicked.
func RecoverFunc(fn func() error) (err error) {
	defer Recover(&err)
	return fn()
}

// PWriter writes wire values and panics with the error on failure.
type PWriter struct {
	w io.Writer
}

func PanicWriter(w io.Writer) *PWriter {
	return &PWriter{w}
}

func (w *PWriter) VarInt(i int) {
	must(WriteVarInt(w.w, i))
}

func (w *PWriter) String(s string) {
	must(WriteString(w.w, s))
}

func (w *PWriter) Bool(b bool) {
	must(WriteBool(w.w, b))
}

func (w *PWriter) Uint8(i uint8) {
	must(WriteUint8(w.w, i))
}

func (w *PWriter) Uint16(i uint16) {
	must(WriteUint16(w.w, i))
}

func (w *PWriter) Int32(i int32) {
	must(WriteInt32(w.w, i))
}

func (w *PWriter) Int64(i int64) {
	must(WriteInt64(w.w, i))
}

func (w *PWriter) Float32(f float32) {
	must(WriteFloat32(w.w, f))
}

func (w *PWriter) Float64(f float64) {
	must(WriteFloat64(w.w, f))
}

func (w *PWriter) UUID(id uuid.UUID) {
	must(WriteUUID(w.w, id))
}

func (w *PWriter) Position(p Position) {
	must(WritePosition(w.w, p))
}

// Func calls fn with the underlying writer.
func (w *PWriter) Func(fn func(io.Writer) error) {
	must(fn(w.w))
}
