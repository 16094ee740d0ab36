// Package codec maps video codec identifiers to the two capability fields
// of the RTMP connect command: the legacy videoCodecs bitmask and the
// enhanced RTMP fourCcList tag string.
package codec

import "github.com/pkg/errors"

// Codec identifiers, named after media MIME types.
const (
	MimeVideoH263 = "video/3gpp"
	MimeVideoAVC  = "video/avc"
	MimeVideoHEVC = "video/hevc"
	MimeVideoVP9  = "video/x-vnd.on2.vp9"
	MimeVideoAV1  = "video/av01"
)

var (
	// ErrUnsupportedCodec is returned when an identifier is in no table.
	ErrUnsupportedCodec = errors.New("codec: unsupported codec")
	// ErrInvalidConfiguration is returned when negotiation gets no identifiers.
	ErrInvalidConfiguration = errors.New("codec: invalid configuration")
)

// Capabilities holds both wire forms. A nil ExVideoCodecs means no extended
// capability is announced, which differs from an empty list.
type Capabilities struct {
	VideoCodecs   int
	ExVideoCodecs *string
}
