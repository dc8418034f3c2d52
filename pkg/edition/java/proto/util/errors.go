package util

import (
	"errors"
	"fmt"
	"math"
)

// DomainError is returned when a value is outside the valid domain of its wire type.
// It is raised before anything is written.
type DomainError struct {
	Type   string // wire type name, e.g. "VarInt"
	Value  any
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("invalid %s value %v: %s", e.Type, e.Value, e.Reason)
}

// NewDomainError returns a new *DomainError.
func NewDomainError(typ string, value any, format string, args ...any) error {
	return &DomainError{Type: typ, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// DecodeError is returned when bytes could not be decoded into a wire type.
// It is always fatal to the packet being decoded.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NewDecodeError wraps err into a *DecodeError for the wire type typ.
// An err that already is a *DecodeError is returned as is.
func NewDecodeError(typ string, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Type: typ, Err: err}
}

// Range is the inclusive value domain of a fixed-width integer wire type.
type Range struct {
	Type     string
	Min, Max int64
}

// Fixed-width integer domains.
var (
	ByteRange          = Range{"Byte", math.MinInt8, math.MaxInt8}
	UnsignedByteRange  = Range{"UnsignedByte", 0, math.MaxUint8}
	ShortRange         = Range{"Short", math.MinInt16, math.MaxInt16}
	UnsignedShortRange = Range{"UnsignedShort", 0, math.MaxUint16}
	IntRange           = Range{"Int", math.MinInt32, math.MaxInt32}
	VarIntRange        = Range{"VarInt", math.MinInt32, math.MaxInt32}
)

// Validate returns a *DomainError if v is outside the range.
func (r Range) Validate(v int64) error {
	if v < r.Min || v > r.Max {
		return NewDomainError(r.Type, v, "out of range [%d, %d]", r.Min, r.Max)
	}
	return nil
}
