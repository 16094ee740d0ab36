// Package amf encodes command and data payloads in the AMF0 binary format.
//
// Values are built from a closed set of variants (Null, Boolean, Number,
// String, Named, Object, Array, plus Int for bare integers) and serialized by
// an Encoder in insertion order. There is no decoder for Object and Array.
package amf

// Type markers written before each value.
const (
	numberMarker    = 0x00
	booleanMarker   = 0x01
	stringMarker    = 0x02
	objectMarker    = 0x03
	nullMarker      = 0x05
	ecmaArrayMarker = 0x08
	objectEndMarker = 0x09
)

// maxStringLength is the largest string or name a 16-bit length prefix can carry.
const maxStringLength = 0xFFFF

// Value is one serializable AMF value. The set of implementations is closed.
type Value interface {
	isValue()
}

// Null is the AMF null value.
type Null struct{}

// Boolean is a one byte boolean.
type Boolean bool

// Number is an IEEE-754 double.
type Number float64

// String is a UTF-8 string whose byte length fits 16 bits.
type String string

// Int is a bare integer. It is promoted to Number everywhere except as a
// direct Array element, where it is written as a raw 32-bit big-endian integer.
type Int int32

// Named attaches a name to a value. It is used for command names passed as
// properties and for Object members. A Named may not wrap another Named.
type Named struct {
	Name  string
	Value Value
}

// Object is an ordered list of named members.
type Object []Named

// Array is an ordered list of elements, each either a raw value or a Named.
type Array []Value

func (Null) isValue()    {}
func (Boolean) isValue() {}
func (Number) isValue()  {}
func (String) isValue()  {}
func (Int) isValue()     {}
func (Named) isValue()   {}
func (Object) isValue()  {}
func (Array) isValue()   {}

// Add appends a member.
func (o *Object) Add(name string, v Value) {
	*o = append(*o, Named{Name: name, Value: v})
}

// Add appends a raw element.
func (a *Array) Add(v Value) {
	*a = append(*a, v)
}

// AddNamed appends a named element.
func (a *Array) AddNamed(name string, v Value) {
	*a = append(*a, Named{Name: name, Value: v})
}
