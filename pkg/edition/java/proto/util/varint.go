package util

import (
	"errors"
	"io"
)

const (
	MaxVarIntLen  = 5  // Maximum bytes of an encoded VarInt.
	MaxVarLongLen = 10 // Maximum bytes of an encoded VarLong.

	// MaxLengthPrefixLen is the maximum bytes of a packet or string length prefix.
	MaxLengthPrefixLen = 3
	// MaxLengthPrefix is the largest length a 3 byte prefix can carry.
	MaxLengthPrefix = 1<<21 - 1
)

var errVarIntTooBig = errors.New("VarInt is too big")

// ValidateVarInt returns a *DomainError if v does not fit into 32 bits.
func ValidateVarInt(v int) error {
	return VarIntRange.Validate(int64(v))
}

// AppendVarInt appends the VarInt encoding of v to b.
func AppendVarInt(b []byte, v int32) []byte {
	uv := uint32(v)
	for uv >= 0x80 {
		b = append(b, byte(uv)|0x80)
		uv >>= 7
	}
	return append(b, byte(uv))
}

// AppendVarLong appends the VarLong encoding of v to b.
func AppendVarLong(b []byte, v int64) []byte {
	uv := uint64(v)
	for uv >= 0x80 {
		b = append(b, byte(uv)|0x80)
		uv >>= 7
	}
	return append(b, byte(uv))
}

// VarIntBytes returns the VarInt encoding of v.
func VarIntBytes(v int) ([]byte, error) {
	if err := ValidateVarInt(v); err != nil {
		return nil, err
	}
	return AppendVarInt(make([]byte, 0, MaxVarIntLen), int32(v)), nil
}

// VarIntSize returns the number of bytes v occupies when VarInt encoded.
func VarIntSize(v int) int {
	uv := uint32(v)
	n := 1
	for uv >= 0x80 {
		uv >>= 7
		n++
	}
	return n
}

func WriteVarInt(w io.Writer, v int) error {
	if err := ValidateVarInt(v); err != nil {
		return err
	}
	var buf [MaxVarIntLen]byte
	_, err := w.Write(AppendVarInt(buf[:0], int32(v)))
	return err
}

func WriteVarLong(w io.Writer, v int64) error {
	var buf [MaxVarLongLen]byte
	_, err := w.Write(AppendVarLong(buf[:0], v))
	return err
}

func ReadVarInt(r io.Reader) (int, error) {
	u, _, err := readUvarint(asByteReader(r), MaxVarIntLen)
	if err != nil {
		return 0, NewDecodeError("VarInt", err)
	}
	return int(int32(uint32(u))), nil
}

func ReadVarLong(r io.Reader) (int64, error) {
	u, _, err := readUvarint(asByteReader(r), MaxVarLongLen)
	if err != nil {
		return 0, NewDecodeError("VarLong", err)
	}
	return int64(u), nil
}

// DecodeVarInt decodes a VarInt from the start of b
// and returns it with the number of bytes consumed.
func DecodeVarInt(b []byte) (v int, n int, err error) {
	u, n, err := readUvarint(&sliceReader{b: b}, MaxVarIntLen)
	if err != nil {
		return 0, n, NewDecodeError("VarInt", err)
	}
	return int(int32(uint32(u))), n, nil
}

// ReadVarIntFrom reads a VarInt of at most maxLen bytes one byte at a time from r,
// so that nothing past the VarInt is consumed from a live stream.
// It returns the number of bytes read, letting callers tell an
// end of stream before the first byte from one in the middle.
// Errors returned by r are returned unwrapped.
func ReadVarIntFrom(r io.ByteReader, maxLen int) (v int, n int, err error) {
	u, n, err := readUvarint(r, maxLen)
	return int(int32(uint32(u))), n, err
}

// readUvarint reads the 7 bit groups of a VarInt (maxLen 5) or VarLong (maxLen 10).
// The last allowed byte must not carry bits beyond the type's width.
func readUvarint(r io.ByteReader, maxLen int) (uint64, int, error) {
	var result uint64
	for i := 0; i < maxLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i != 0 && errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return 0, i, err
		}
		if i == maxLen-1 && maxLen > MaxLengthPrefixLen && b > lastByteMax(maxLen) {
			return 0, i + 1, errVarIntTooBig
		}
		result |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	return 0, maxLen, errVarIntTooBig
}

// lastByteMax is the largest valid final byte of a full length VarInt/VarLong.
func lastByteMax(maxLen int) byte {
	if maxLen == MaxVarLongLen {
		return 0x01 // 9*7 = 63 bits before, one left
	}
	return 0x0F // 4*7 = 28 bits before, four left
}

// ValidateLengthPrefix returns a *DomainError if n does not fit into a 3 byte prefix.
func ValidateLengthPrefix(n int) error {
	if n < 0 || n > MaxLengthPrefix {
		return NewDomainError("LengthPrefix", n, "out of range [0, %d]", MaxLengthPrefix)
	}
	return nil
}

// AppendLengthPrefix appends the 3 byte capped VarInt encoding of n.
func AppendLengthPrefix(b []byte, n int) ([]byte, error) {
	if err := ValidateLengthPrefix(n); err != nil {
		return b, err
	}
	return AppendVarInt(b, int32(n)), nil
}

// ReadLengthPrefix reads a 3 byte capped VarInt length.
func ReadLengthPrefix(r io.Reader) (int, error) {
	v, _, err := ReadVarIntFrom(asByteReader(r), MaxLengthPrefixLen)
	if err != nil {
		return 0, NewDecodeError("LengthPrefix", err)
	}
	return v, nil
}

func asByteReader(r io.Reader) io.ByteReader { return AsByteReader(r) }

// AsByteReader wraps r so that each ReadByte consumes exactly one byte of r.
// It never reads ahead, unlike a bufio.Reader.
func AsByteReader(r io.Reader) interface {
	io.Reader
	io.ByteReader
} {
	if br, ok := r.(interface {
		io.Reader
		io.ByteReader
	}); ok {
		return br
	}
	return &oneByteReader{r: r}
}

type oneByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (o *oneByteReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func (o *oneByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(o.r, o.buf[:]); err != nil {
		return 0, err
	}
	return o.buf[0], nil
}

type sliceReader struct {
	b []byte
	i int
}

func (s *sliceReader) ReadByte() (byte, error) {
	if s.i >= len(s.b) {
		return 0, io.EOF
	}
	c := s.b[s.i]
	s.i++
	return c, nil
}
