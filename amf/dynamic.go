package amf

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Any wraps an untyped Go value that is converted when encoded. Prefer the
// typed variants; Any exists for payloads assembled from decoded maps and
// slices, and is the only way EncodeInto can fail with ErrUnsupportedValueKind
// for something other than a nested Named.
//
// Conversion: nil → Null, bool → Boolean, integers fitting int32 → Int,
// other integers and floats → Number, string → String, []interface{} →
// Array, map[string]interface{} → Object with sorted keys, Value → itself.
func Any(v interface{}) Value {
	if d, ok := v.(dynamic); ok {
		return d
	}
	return dynamic{v: v}
}

type dynamic struct {
	v interface{}
}

func (dynamic) isValue() {}

func (d dynamic) resolve() (Value, error) {
	return fromInterface(d.v)
}

func fromInterface(_val interface{}) (Value, error) {
	switch val := _val.(type) {
	case nil:
		return Null{}, nil
	case dynamic:
		return val.resolve()
	case Value:
		return val, nil
	case bool:
		return Boolean(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case int:
		return fromInt64(int64(val)), nil
	case int64:
		return fromInt64(val), nil
	case uint32:
		return fromUint64(uint64(val)), nil
	case uint:
		return fromUint64(uint64(val)), nil
	case uint64:
		return fromUint64(val), nil
	case float32:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case string:
		return String(val), nil
	case []interface{}:
		a := make(Array, 0, len(val))
		for i, e := range val {
			v, err := fromInterface(e)
			if err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
			a = append(a, v)
		}
		return a, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := make(Object, 0, len(val))
		for _, k := range keys {
			v, err := fromInterface(val[k])
			if err != nil {
				return nil, errors.Wrapf(err, "member %q", k)
			}
			o = append(o, Named{Name: k, Value: v})
		}
		return o, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedValueKind, "%T", _val)
	}
}

func fromInt64(i int64) Value {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return Int(i)
	}
	return Number(i)
}

func fromUint64(u uint64) Value {
	if u <= math.MaxInt32 {
		return Int(u)
	}
	return Number(u)
}
