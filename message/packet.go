package message

import (
	"bytes"
	"math"

	"github.com/pkg/errors"
)

// Chunk stream and header type used for connection-level commands.
const (
	CommandChannel    = 3
	CommandHeaderType = 1
)

// ErrInvalidPacket is returned by NewPacket for out-of-range fields.
var ErrInvalidPacket = errors.New("message: invalid packet")

// Packet is the logical unit exchanged with the transport. It is immutable
// once built; Payload must not be modified by callers.
type Packet struct {
	channel    uint32
	headerType int
	typeID     TypeID
	timestamp  uint32
	payload    []byte
}

// NewPacket validates the header fields and copies payload.
func NewPacket(channel, headerType int, typeID TypeID, timestamp int64, payload []byte) (Packet, error) {
	if channel < 0 || int64(channel) > math.MaxUint32 {
		return Packet{}, errors.Wrapf(ErrInvalidPacket, "channel %d", channel)
	}
	if timestamp < 0 || timestamp > math.MaxUint32 {
		return Packet{}, errors.Wrapf(ErrInvalidPacket, "timestamp %d", timestamp)
	}
	p := Packet{
		channel:    uint32(channel),
		headerType: headerType,
		typeID:     typeID,
		timestamp:  uint32(timestamp),
		payload:    make([]byte, len(payload)),
	}
	copy(p.payload, payload)
	return p, nil
}

// NewCommandPacket wraps an encoded AMF0 command for the command channel.
func NewCommandPacket(timestamp uint32, payload []byte) Packet {
	p, _ := NewPacket(CommandChannel, CommandHeaderType, TypeIDCommandMessageAMF0, int64(timestamp), payload)
	return p
}

func (p Packet) Channel() uint32   { return p.channel }
func (p Packet) HeaderType() int   { return p.headerType }
func (p Packet) TypeID() TypeID    { return p.typeID }
func (p Packet) Timestamp() uint32 { return p.timestamp }
func (p Packet) Payload() []byte   { return p.payload }

// Equal compares every field.
func (p Packet) Equal(o Packet) bool {
	return p.channel == o.channel &&
		p.headerType == o.headerType &&
		p.typeID == o.typeID &&
		p.timestamp == o.timestamp &&
		bytes.Equal(p.payload, o.payload)
}
