package message

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/pkg/errors"

	"example/rtmpbind/amf"
)

func TestNewPacket(t *testing.T) {
	payload := []byte{1, 2, 3}
	p, err := NewPacket(3, 1, TypeIDCommandMessageAMF0, 42, payload)
	if err != nil {
		t.Fatalf("NewPacket() error = %v", err)
	}

	if p.Channel() != 3 || p.HeaderType() != 1 || p.TypeID() != 0x14 || p.Timestamp() != 42 {
		t.Errorf("NewPacket() = %+v", p)
	}

	payload[0] = 9
	if p.Payload()[0] != 1 {
		t.Error("payload shares memory with the caller's slice")
	}
}

func TestNewPacketEmptyPayload(t *testing.T) {
	p, err := NewPacket(0, 0, TypeIDVideoMessage, 0, nil)
	if err != nil {
		t.Fatalf("NewPacket() error = %v", err)
	}
	if len(p.Payload()) != 0 {
		t.Errorf("Payload() = %v, want empty", p.Payload())
	}
}

func TestNewPacketRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name      string
		channel   int
		timestamp int64
	}{
		{"negative channel", -1, 0},
		{"negative timestamp", 3, -1},
		{"timestamp overflow", 3, math.MaxUint32 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPacket(tt.channel, 0, TypeIDCommandMessageAMF0, tt.timestamp, nil)
			if errors.Cause(err) != ErrInvalidPacket {
				t.Errorf("NewPacket() error = %v, want ErrInvalidPacket", err)
			}
		})
	}
}

func TestPacketEqual(t *testing.T) {
	a := NewCommandPacket(5, []byte{0x05})
	b := NewCommandPacket(5, []byte{0x05})
	if !a.Equal(b) {
		t.Error("identical packets not equal")
	}

	c, _ := NewPacket(4, 1, TypeIDCommandMessageAMF0, 5, []byte{0x05})
	if a.Equal(c) {
		t.Error("packets on different channels are equal")
	}
	if a.Equal(NewCommandPacket(5, []byte{0x06})) {
		t.Error("packets with different payloads are equal")
	}
}

func TestDecodeCommand(t *testing.T) {
	obj := amf.Object{}
	obj.Add("app", amf.String("live"))
	body, err := amf.Encode(amf.String("connect"), amf.Number(1), obj)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	cmd, err := DecodeCommand(NewCommandPacket(0, body))
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	if cmd.CommandName != "connect" {
		t.Errorf("CommandName = %q, want connect", cmd.CommandName)
	}
	if cmd.TransactionID != 1 {
		t.Errorf("TransactionID = %d, want 1", cmd.TransactionID)
	}
	if cmd.TypeID() != TypeIDCommandMessageAMF0 {
		t.Errorf("TypeID() = %d", cmd.TypeID())
	}

	rest, err := io.ReadAll(cmd.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	want, _ := amf.Encode(obj)
	if !bytes.Equal(rest, want) {
		t.Errorf("Body = % x, want % x", rest, want)
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	p, _ := NewPacket(4, 0, TypeIDVideoMessage, 0, []byte{0x17})
	if _, err := DecodeCommand(p); errors.Cause(err) != ErrNotCommand {
		t.Errorf("DecodeCommand(video) error = %v, want ErrNotCommand", err)
	}

	body, _ := amf.Encode(amf.String("connect"))
	if _, err := DecodeCommand(NewCommandPacket(0, body)); err == nil {
		t.Error("DecodeCommand() without transaction id succeeded")
	}
}
