package message

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/yutopp/go-amf0"
)

type TypeID byte

const (
	TypeIDSetChunkSize            TypeID = 1
	TypeIDAbortMessage            TypeID = 2
	TypeIDAck                     TypeID = 3
	TypeIDUserCtrl                TypeID = 4
	TypeIDWinAckSize              TypeID = 5
	TypeIDSetPeerBandwidth        TypeID = 6
	TypeIDAudioMessage            TypeID = 8
	TypeIDVideoMessage            TypeID = 9
	TypeIDDataMessageAMF3         TypeID = 15
	TypeIDSharedObjectMessageAMF3 TypeID = 16
	TypeIDCommandMessageAMF3      TypeID = 17
	TypeIDDataMessageAMF0         TypeID = 18
	TypeIDSharedObjectMessageAMF0 TypeID = 19
	TypeIDCommandMessageAMF0      TypeID = 20 // 0x14
	TypeIDAggregateMessage        TypeID = 22
)

// ErrNotCommand is returned by DecodeCommand for a non-command packet.
var ErrNotCommand = errors.New("message: not a command packet")

// CommandMessage is the header of an AMF0 command. Body holds the
// remaining arguments, left encoded.
type CommandMessage struct {
	CommandName   string
	TransactionID int64
	Encoding      EncodingType
	Body          io.Reader
}

func (m *CommandMessage) TypeID() TypeID {
	switch m.Encoding {
	case EncodingTypeAMF3:
		return TypeIDCommandMessageAMF3
	default:
		return TypeIDCommandMessageAMF0
	}
}

// DecodeCommand reads the command name and transaction id of an AMF0
// command packet. Arguments after them are not decoded.
func DecodeCommand(p Packet) (*CommandMessage, error) {
	if p.TypeID() != TypeIDCommandMessageAMF0 {
		return nil, errors.Wrapf(ErrNotCommand, "type id %d", p.TypeID())
	}
	return decodeCommandMessage(bytes.NewReader(p.Payload()), func(r io.Reader) (AMFDecoder, EncodingType) {
		return amf0.NewDecoder(r), EncodingTypeAMF0
	})
}

func decodeCommandMessage(r io.Reader, f func(r io.Reader) (AMFDecoder, EncodingType)) (*CommandMessage, error) {
	d, encTy := f(r)

	var name string
	if err := d.Decode(&name); err != nil {
		return nil, errors.Wrap(err, "failed to decode commandName")
	}

	var transactionID int64
	if err := d.Decode(&transactionID); err != nil {
		return nil, errors.Wrap(err, "failed to decode transactionID")
	}

	return &CommandMessage{
		CommandName:   name,
		TransactionID: transactionID,
		Encoding:      encTy,
		Body:          r, // Share an ownership of the reader
	}, nil
}
