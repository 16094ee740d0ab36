package codec

import "github.com/pkg/errors"

// videoCodecs bits from the RTMP connect command.
const (
	SupportVidUnused    = 0x0001
	SupportVidJPEG      = 0x0002
	SupportVidSorenson  = 0x0004
	SupportVidHomebrew  = 0x0008
	SupportVidVP6       = 0x0010
	SupportVidVP6Alpha  = 0x0020
	SupportVidHomebrewV = 0x0040
	SupportVidH264      = 0x0080
)

type legacyEntry struct {
	mime string
	bit  int
}

// LegacyTable maps identifiers to videoCodecs bits. Entries keep a fixed
// order, which is the order FromWireForm reports them in.
type LegacyTable struct {
	entries []legacyEntry
}

func NewLegacyTable() *LegacyTable {
	return &LegacyTable{
		entries: []legacyEntry{
			{MimeVideoH263, SupportVidSorenson},
			{MimeVideoAVC, SupportVidH264},
		},
	}
}

func (t *LegacyTable) lookup(mime string) (int, bool) {
	for _, e := range t.entries {
		if e.mime == mime {
			return e.bit, true
		}
	}
	return 0, false
}

// IsKnown reports whether mime has a bit in the table.
func (t *LegacyTable) IsKnown(mime string) bool {
	_, ok := t.lookup(mime)
	return ok
}

// ToWireForm ORs the bits of mimes together. Any unknown identifier fails
// the whole call. An empty list yields 0.
func (t *LegacyTable) ToWireForm(mimes []string) (int, error) {
	var mask int
	for _, mime := range mimes {
		bit, ok := t.lookup(mime)
		if !ok {
			return 0, errors.Wrapf(ErrUnsupportedCodec, "%s is not a legacy RTMP codec", mime)
		}
		mask |= bit
	}
	return mask, nil
}

// FromWireForm lists the identifiers whose bit is set in mask, in table
// order. Bits without an entry are ignored.
func (t *LegacyTable) FromWireForm(mask int) []string {
	mimes := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		if mask&e.bit != 0 {
			mimes = append(mimes, e.mime)
		}
	}
	return mimes
}

// HasCodec reports whether mask announces mime.
func (t *LegacyTable) HasCodec(mask int, mime string) bool {
	bit, ok := t.lookup(mime)
	return ok && mask&bit != 0
}
