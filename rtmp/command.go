package rtmp

import (
	"example/rtmpbind/amf"
	"example/rtmpbind/codec"
	"example/rtmpbind/message"
)

// Command names handled by the server.
const (
	CommandConnect       = "connect"
	CommandReleaseStream = "releaseStream"
	CommandFCPublish     = "FCPublish"
	CommandFCUnpublish   = "FCUnpublish"
	CommandCreateStream  = "createStream"
	CommandDeleteStream  = "deleteStream"
	CommandPublish       = "publish"
	CommandResult        = "_result"
	CommandOnStatus      = "onStatus"
)

// Status codes sent in onStatus and _result information objects.
const (
	StatusConnectSuccess = "NetConnection.Connect.Success"
	StatusPublishStart   = "NetStream.Publish.Start"
	StatusPublishBadName = "NetStream.Publish.BadName"
)

// ConnectCommand is the command object of the connect command. The codec
// fields are filled from negotiated capabilities.
type ConnectCommand struct {
	App            string               `mapstructure:"app"`
	Type           string               `mapstructure:"type"`
	FlashVer       string               `mapstructure:"flash_ver"`
	TCURL          string               `mapstructure:"tc_url"`
	Fpad           bool                 `mapstructure:"fpad"`
	Capabilities   int                  `mapstructure:"capabilities"`
	AudioCodecs    int                  `mapstructure:"audio_codecs"`
	VideoCodecs    int                  `mapstructure:"video_codecs"`
	VideoFunction  int                  `mapstructure:"video_function"`
	ObjectEncoding message.EncodingType `mapstructure:"object_encoding"`
	FourCCList     *string              `mapstructure:"-"`
}

// WithCapabilities returns a copy carrying the negotiated wire forms.
func (c ConnectCommand) WithCapabilities(caps codec.Capabilities) ConnectCommand {
	c.VideoCodecs = caps.VideoCodecs
	c.FourCCList = caps.ExVideoCodecs
	return c
}

// Object returns the command object in the order clients send it. Empty
// strings are left out; fourCcList is present only when announced.
func (c ConnectCommand) Object() amf.Object {
	obj := amf.Object{}
	addString := func(name, v string) {
		if v != "" {
			obj.Add(name, amf.String(v))
		}
	}
	addString("app", c.App)
	addString("type", c.Type)
	addString("flashVer", c.FlashVer)
	addString("tcUrl", c.TCURL)
	obj.Add("fpad", amf.Boolean(c.Fpad))
	obj.Add("capabilities", amf.Number(c.Capabilities))
	obj.Add("audioCodecs", amf.Number(c.AudioCodecs))
	obj.Add("videoCodecs", amf.Number(c.VideoCodecs))
	obj.Add("videoFunction", amf.Number(c.VideoFunction))
	obj.Add("objectEncoding", amf.Number(c.ObjectEncoding))
	if c.FourCCList != nil {
		obj.Add("fourCcList", amf.String(*c.FourCCList))
	}
	return obj
}

// Values returns the whole connect command: name, transaction id 1, object.
func (c ConnectCommand) Values() []amf.Value {
	return []amf.Value{amf.String(CommandConnect), amf.Number(1), c.Object()}
}

// ConnectResult is the _result answering a connect command.
func ConnectResult(txID int64) []amf.Value {
	props := amf.Object{}
	props.Add("fmsVer", amf.String("FMS/3,0,1,123"))
	props.Add("capabilities", amf.Number(31))

	info := amf.Object{}
	info.Add("level", amf.String("status"))
	info.Add("code", amf.String(StatusConnectSuccess))
	info.Add("description", amf.String("Connection succeeded."))
	info.Add("objectEncoding", amf.Number(message.EncodingTypeAMF0))

	return []amf.Value{amf.String(CommandResult), amf.Number(txID), props, info}
}

// CreateStreamResult is the _result answering createStream.
func CreateStreamResult(txID int64, streamID uint32) []amf.Value {
	return []amf.Value{amf.String(CommandResult), amf.Number(txID), amf.Null{}, amf.Number(streamID)}
}

// OnStatus is a stream status notification.
func OnStatus(level, code, description string) []amf.Value {
	info := amf.Object{}
	info.Add("level", amf.String(level))
	info.Add("code", amf.String(code))
	info.Add("description", amf.String(description))
	return []amf.Value{amf.String(CommandOnStatus), amf.Number(0), amf.Null{}, info}
}
