package amf

// Fixed contributions to the size estimate.
const (
	lenNull    = 1
	lenBoolean = 2
	lenNumber  = 9 // marker + double
	lenInt     = 9 // the larger of its two forms
	lenString  = 3 // marker + u16 length
	lenName    = 2 // u16 length, no marker
	lenObject  = 4 // marker + 3 byte footer
	lenArray   = 8 // marker + u32 count + 3 byte footer
)

// EstimateSize returns an upper bound of the number of bytes the Encoder
// writes for values. It may over-count but never under-counts.
func EstimateSize(values ...Value) int {
	var n int
	for _, v := range values {
		n += sizeOf(v)
	}
	return n
}

func sizeOf(v Value) int {
	switch v := v.(type) {
	case Null:
		return lenNull
	case Boolean:
		return lenBoolean
	case Number:
		return lenNumber
	case Int:
		return lenInt
	case String:
		return lenString + len(v)
	case Named:
		return lenName + len(v.Name) + sizeOf(v.Value)
	case Object:
		n := lenObject
		for _, m := range v {
			n += sizeOf(m)
		}
		return n
	case Array:
		n := lenArray
		for _, e := range v {
			n += sizeOf(e)
		}
		return n
	case dynamic:
		resolved, err := v.resolve()
		if err != nil {
			return 0
		}
		return sizeOf(resolved)
	default:
		return 0
	}
}
