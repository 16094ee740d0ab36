package amf

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedValueKind is returned for a value outside the variant set,
	// including a Named wrapping another Named.
	ErrUnsupportedValueKind = errors.New("amf: unsupported value kind")
	// ErrBufferTooSmall is returned when the destination cannot hold the encoding.
	ErrBufferTooSmall = errors.New("amf: buffer too small")
	// ErrStringTooLong is returned for a string or name longer than 65535 bytes.
	ErrStringTooLong = errors.New("amf: string too long")
)

// Encoder accumulates values and serializes them in insertion order.
// An Encoder is not safe for concurrent use.
type Encoder struct {
	values []Value
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Add appends a value. Nothing is validated until encoding.
func (e *Encoder) Add(v Value) {
	e.values = append(e.values, v)
}

// AddNamed appends Named{name, v}.
func (e *Encoder) AddNamed(name string, v Value) {
	e.values = append(e.values, Named{Name: name, Value: v})
}

// Len returns the number of pending values.
func (e *Encoder) Len() int {
	return len(e.values)
}

// Reset drops the pending values.
func (e *Encoder) Reset() {
	e.values = e.values[:0]
}

// RequiredSize is the size estimate of the pending values.
func (e *Encoder) RequiredSize() int {
	return EstimateSize(e.values...)
}

// Encode allocates RequiredSize bytes and encodes into them. The returned
// slice is cut to the number of bytes actually written.
func (e *Encoder) Encode() ([]byte, error) {
	b := make([]byte, e.RequiredSize())
	n, err := e.EncodeInto(b)
	if err != nil {
		return nil, err
	}
	return b[:n], nil
}

// EncodeInto encodes the pending values into b starting at offset 0 and
// returns the number of bytes written. On error the content of b past the
// failing value is unspecified.
func (e *Encoder) EncodeInto(b []byte) (int, error) {
	f := filler{b: b}
	for i, v := range e.values {
		if err := f.value(v); err != nil {
			return f.n, errors.Wrapf(err, "encode value %d", i)
		}
	}
	return f.n, nil
}

// Encode serializes values with a fresh Encoder.
func Encode(values ...Value) ([]byte, error) {
	e := &Encoder{values: values}
	return e.Encode()
}

// filler writes into a fixed buffer, checking capacity before every write.
type filler struct {
	b []byte
	n int
}

func (f *filler) reserve(size int) ([]byte, error) {
	if len(f.b)-f.n < size {
		return nil, errors.Wrapf(ErrBufferTooSmall, "need %d bytes at offset %d, have %d", size, f.n, len(f.b)-f.n)
	}
	p := f.b[f.n : f.n+size]
	f.n += size
	return p, nil
}

func (f *filler) byte1(c byte) error {
	p, err := f.reserve(1)
	if err != nil {
		return err
	}
	p[0] = c
	return nil
}

func (f *filler) u16(u uint16) error {
	p, err := f.reserve(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(p, u)
	return nil
}

func (f *filler) u32(u uint32) error {
	p, err := f.reserve(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(p, u)
	return nil
}

// rawString writes a u16 length followed by the bytes of s.
func (f *filler) rawString(s string) error {
	if len(s) > maxStringLength {
		return errors.Wrapf(ErrStringTooLong, "length %d", len(s))
	}
	if err := f.u16(uint16(len(s))); err != nil {
		return err
	}
	p, err := f.reserve(len(s))
	if err != nil {
		return err
	}
	copy(p, s)
	return nil
}

func (f *filler) number(x float64) error {
	p, err := f.reserve(lenNumber)
	if err != nil {
		return err
	}
	p[0] = numberMarker
	binary.BigEndian.PutUint64(p[1:], math.Float64bits(x))
	return nil
}

func (f *filler) footer() error {
	p, err := f.reserve(3)
	if err != nil {
		return err
	}
	p[0], p[1], p[2] = 0x00, 0x00, objectEndMarker
	return nil
}

func (f *filler) named(m Named) error {
	inner := m.Value
	if d, ok := inner.(dynamic); ok {
		resolved, err := d.resolve()
		if err != nil {
			return err
		}
		inner = resolved
	}
	if _, ok := inner.(Named); ok {
		return errors.Wrapf(ErrUnsupportedValueKind, "named %q wraps a named value", m.Name)
	}
	if err := f.rawString(m.Name); err != nil {
		return err
	}
	return f.value(inner)
}

// value writes v with top-level semantics.
func (f *filler) value(v Value) error {
	switch v := v.(type) {
	case Null:
		return f.byte1(nullMarker)
	case Boolean:
		p, err := f.reserve(lenBoolean)
		if err != nil {
			return err
		}
		p[0] = booleanMarker
		p[1] = 0x00
		if v {
			p[1] = 0x01
		}
		return nil
	case Number:
		return f.number(float64(v))
	case Int:
		return f.number(float64(v))
	case String:
		if err := f.byte1(stringMarker); err != nil {
			return err
		}
		return f.rawString(string(v))
	case Named:
		return f.named(v)
	case Object:
		if err := f.byte1(objectMarker); err != nil {
			return err
		}
		for _, m := range v {
			if err := f.named(m); err != nil {
				return err
			}
		}
		return f.footer()
	case Array:
		return f.array(v)
	case dynamic:
		resolved, err := v.resolve()
		if err != nil {
			return err
		}
		return f.value(resolved)
	default:
		return errors.Wrapf(ErrUnsupportedValueKind, "%T", v)
	}
}

func (f *filler) array(a Array) error {
	if err := f.byte1(ecmaArrayMarker); err != nil {
		return err
	}
	if err := f.u32(uint32(len(a))); err != nil {
		return err
	}
	for _, e := range a {
		if err := f.element(e); err != nil {
			return err
		}
	}
	return f.footer()
}

// element writes an Array element. Bare integers keep their raw 4-byte form here.
func (f *filler) element(v Value) error {
	switch v := v.(type) {
	case Int:
		return f.u32(uint32(v))
	case dynamic:
		resolved, err := v.resolve()
		if err != nil {
			return err
		}
		return f.element(resolved)
	default:
		return f.value(v)
	}
}
