package flvio

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"example/rtmpbind/amf"
)

// Flash Video File Format (FLV) I/O

const (
	TagAudio      = 8
	TagVideo      = 9
	TagScriptData = 18
)

// Tag header: type (1) + data size (3) + timestamp (3) + timestamp extended (1) + stream id (3)
const TagHeaderLength = 11

// Previous tag size trailer
const TagTrailerLength = 4

const FileHeaderLength = 9

const maxDataSize = 1<<24 - 1

var ErrTagTooLarge = errors.New("flvio: tag payload too large")

// FileHeader returns the FLV file header followed by the zero PreviousTagSize0.
func FileHeader(hasAudio, hasVideo bool) []byte {
	b := make([]byte, FileHeaderLength+TagTrailerLength)
	copy(b, "FLV")
	b[3] = 1 // version
	if hasAudio {
		b[4] |= 0x04
	}
	if hasVideo {
		b[4] |= 0x01
	}
	binary.BigEndian.PutUint32(b[5:9], FileHeaderLength)
	return b
}

// Tag frames payload as one FLV tag: header, payload, previous tag size.
// The stream id is always 0.
func Tag(tagType uint8, timestamp uint32, payload []byte) ([]byte, error) {
	if len(payload) > maxDataSize {
		return nil, errors.Wrapf(ErrTagTooLarge, "%d bytes", len(payload))
	}

	b := make([]byte, TagHeaderLength+len(payload)+TagTrailerLength)
	b[0] = tagType
	putUint24(b[1:4], uint32(len(payload)))
	putUint24(b[4:7], timestamp&0xFFFFFF)
	b[7] = byte(timestamp >> 24)
	// b[8:11] stream id, always 0
	copy(b[TagHeaderLength:], payload)
	binary.BigEndian.PutUint32(b[TagHeaderLength+len(payload):], uint32(TagHeaderLength+len(payload)))
	return b, nil
}

// ScriptDataTag frames an encoded AMF0 payload as a script data tag at time 0.
func ScriptDataTag(payload []byte) ([]byte, error) {
	return Tag(TagScriptData, 0, payload)
}

// MetaDataTag encodes an onMetaData script tag. Keys are written in sorted order.
func MetaDataTag(metadata map[string]interface{}) ([]byte, error) {
	payload, err := amf.Encode(amf.String("onMetaData"), amf.Any(metadata))
	if err != nil {
		return nil, errors.Wrap(err, "encode onMetaData")
	}
	return ScriptDataTag(payload)
}

// DataSize returns the payload length recorded in a tag header.
func DataSize(header []byte) (int, error) {
	if len(header) < TagHeaderLength {
		return 0, errors.Errorf("flvio: short tag header: %d bytes", len(header))
	}
	return int(header[1])<<16 | int(header[2])<<8 | int(header[3]), nil
}

// Timestamp returns the full 32-bit timestamp recorded in a tag header.
func Timestamp(header []byte) (uint32, error) {
	if len(header) < TagHeaderLength {
		return 0, errors.Errorf("flvio: short tag header: %d bytes", len(header))
	}
	ts := uint32(header[4])<<16 | uint32(header[5])<<8 | uint32(header[6])
	return ts | uint32(header[7])<<24, nil
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
