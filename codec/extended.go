package codec

import (
	"strings"

	"github.com/pkg/errors"
)

// fourCC tags of enhanced RTMP.
const (
	FourCCAV1  = "av01"
	FourCCVP9  = "vp09" // registered fourCC; some encoders announce "vp9"
	FourCCHEVC = "hvc1"
)

// TagSeparator joins tags in the fourCcList wire string.
const TagSeparator = ","

// PlatformLevelAV1 is the first platform level with an AV1 codec.
const PlatformLevelAV1 = 29

// AllPlatforms enables every platform-gated entry.
const AllPlatforms = int(^uint(0) >> 1)

type extendedEntry struct {
	mime     string
	tag      string
	minLevel int
}

var extendedEntries = []extendedEntry{
	{MimeVideoVP9, FourCCVP9, 0},
	{MimeVideoHEVC, FourCCHEVC, 0},
	{MimeVideoAV1, FourCCAV1, PlatformLevelAV1},
}

// ExtendedTable maps identifiers to fourCC tags. Platform-gated entries are
// dropped when the table is built.
type ExtendedTable struct {
	byMime map[string]string
	byTag  map[string]string
}

// NewExtendedTable builds the table for the given platform level.
func NewExtendedTable(platformLevel int) *ExtendedTable {
	t := &ExtendedTable{
		byMime: make(map[string]string),
		byTag:  make(map[string]string),
	}
	for _, e := range extendedEntries {
		if platformLevel < e.minLevel {
			continue
		}
		t.byMime[e.mime] = e.tag
		t.byTag[e.tag] = e.mime
	}
	return t
}

// IsKnown reports whether mime has a tag in the table.
func (t *ExtendedTable) IsKnown(mime string) bool {
	_, ok := t.byMime[mime]
	return ok
}

// ToWireForm joins the tags of mimes with TagSeparator, dropping repeats.
// An empty list yields nil (absent). Any unknown identifier fails the call.
func (t *ExtendedTable) ToWireForm(mimes []string) (*string, error) {
	if len(mimes) == 0 {
		return nil, nil
	}
	tags := make([]string, 0, len(mimes))
	seen := make(map[string]bool, len(mimes))
	for _, mime := range mimes {
		tag, ok := t.byMime[mime]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedCodec, "%s is not an enhanced RTMP codec", mime)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	s := strings.Join(tags, TagSeparator)
	return &s, nil
}

// FromWireForm maps each tag of value back to its identifier, keeping the
// order of value. Unknown tags are skipped; nil yields an empty list.
func (t *ExtendedTable) FromWireForm(value *string) []string {
	if value == nil || *value == "" {
		return []string{}
	}
	parts := strings.Split(*value, TagSeparator)
	mimes := make([]string, 0, len(parts))
	for _, tag := range parts {
		if mime, ok := t.byTag[strings.TrimSpace(tag)]; ok {
			mimes = append(mimes, mime)
		}
	}
	return mimes
}

// HasCodec reports whether value announces mime.
func (t *ExtendedTable) HasCodec(value *string, mime string) bool {
	for _, m := range t.FromWireForm(value) {
		if m == mime {
			return true
		}
	}
	return false
}
