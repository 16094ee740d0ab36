// Package capture records the packets crossing a transport and reads them
// back. Records are a CBOR sequence, optionally zstd compressed.
package capture

import (
	"time"

	"github.com/fxamacker/cbor/v2"

	"example/rtmpbind/message"
)

// Direction tells whether a packet was sent or received.
type Direction string

const (
	DirectionWrite Direction = "write"
	DirectionRead  Direction = "read"
)

// Record is one captured packet.
type Record struct {
	Direction  Direction `cbor:"dir"`
	Channel    uint32    `cbor:"ch"`
	HeaderType int       `cbor:"ht"`
	TypeID     uint8     `cbor:"type"`
	Timestamp  uint32    `cbor:"ts"`
	Payload    []byte    `cbor:"payload"`
	At         time.Time `cbor:"at"`
}

func newRecord(dir Direction, p message.Packet, at time.Time) Record {
	return Record{
		Direction:  dir,
		Channel:    p.Channel(),
		HeaderType: p.HeaderType(),
		TypeID:     uint8(p.TypeID()),
		Timestamp:  p.Timestamp(),
		Payload:    p.Payload(),
		At:         at,
	}
}

// Packet rebuilds the captured packet.
func (r Record) Packet() (message.Packet, error) {
	return message.NewPacket(int(r.Channel), r.HeaderType, message.TypeID(r.TypeID), int64(r.Timestamp), r.Payload)
}

// encMode writes deterministic CBOR with nanosecond timestamps.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("capture: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("capture: CBOR decoder initialization failed: " + err.Error())
	}
}
