package main

import (
	"example/rtmpbind/message"
	"example/rtmpbind/rtmp"
)

// echoTransport accepts every packet and closes without error.
type echoTransport struct {
	rtmp.Transport
}

func (echoTransport) WritePacket(p message.Packet) error { return nil }
func (echoTransport) Close() error                       { return nil }
