package rtmp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	amf0 "github.com/yutopp/go-amf0"

	"example/rtmpbind/amf"
	"example/rtmpbind/message"
)

type testServer struct {
	srv        *Server
	transports chan *fakeTransport
	handled    chan message.Packet
	done       chan error
	cancel     context.CancelFunc
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ts := &testServer{
		transports: make(chan *fakeTransport, 4),
		handled:    make(chan message.Packet, 4),
		done:       make(chan error, 1),
	}
	factory := func() (Transport, error) {
		return <-ts.transports, nil
	}
	handler := HandlerFunc(func(s *Session, p message.Packet) error {
		ts.handled <- p
		return nil
	})
	ts.srv = NewServer(l, factory, ServerLoggerOption(zerolog.Nop()), HandlerOption(handler))

	ctx, cancel := context.WithCancel(context.Background())
	ts.cancel = cancel
	go func() {
		ts.done <- ts.srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-ts.done
	})
	return ts
}

// accept dials the server and returns the transport serving the connection.
func (ts *testServer) accept(t *testing.T) *fakeTransport {
	t.Helper()
	ft := newFakeTransport()
	ft.out = make(chan message.Packet, 16)
	ts.transports <- ft

	conn, err := net.Dial("tcp", ts.srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return ft
}

func send(t *testing.T, ft *fakeTransport, name string, txID float64, args ...amf.Value) {
	t.Helper()
	p, err := commandPacket(name, txID, args...)
	if err != nil {
		t.Fatalf("commandPacket() error = %v", err)
	}
	ft.in <- p
}

func receive(t *testing.T, ft *fakeTransport) *message.CommandMessage {
	t.Helper()
	select {
	case p := <-ft.out:
		cmd, err := message.DecodeCommand(p)
		if err != nil {
			t.Fatalf("DecodeCommand() error = %v", err)
		}
		return cmd
	case <-time.After(5 * time.Second):
		t.Fatal("no response")
		return nil
	}
}

func statusCode(t *testing.T, cmd *message.CommandMessage) string {
	t.Helper()
	d := amf0.NewDecoder(cmd.Body)
	var commandObject interface{}
	if err := d.Decode(&commandObject); err != nil {
		t.Fatalf("decode command object: %v", err)
	}
	var info map[string]interface{}
	if err := d.Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	code, _ := info["code"].(string)
	return code
}

func publish(t *testing.T, ft *fakeTransport, name string) string {
	t.Helper()
	send(t, ft, CommandConnect, 1, ConnectCommand{App: "live"}.Object())
	if cmd := receive(t, ft); cmd.CommandName != CommandResult || cmd.TransactionID != 1 {
		t.Fatalf("connect answered with %s/%d", cmd.CommandName, cmd.TransactionID)
	}

	send(t, ft, CommandReleaseStream, 2, amf.Null{}, amf.String(name))
	send(t, ft, CommandFCPublish, 3, amf.Null{}, amf.String(name))
	send(t, ft, CommandCreateStream, 4, amf.Null{})
	cmd := receive(t, ft)
	if cmd.CommandName != CommandResult || cmd.TransactionID != 4 {
		t.Fatalf("createStream answered with %s/%d", cmd.CommandName, cmd.TransactionID)
	}

	send(t, ft, CommandPublish, 5, amf.Null{}, amf.String(name), amf.String("live"))
	cmd = receive(t, ft)
	if cmd.CommandName != CommandOnStatus {
		t.Fatalf("publish answered with %s", cmd.CommandName)
	}
	return statusCode(t, cmd)
}

func TestServerPublishSession(t *testing.T) {
	ts := startServer(t)
	ft := ts.accept(t)

	if code := publish(t, ft, "key"); code != StatusPublishStart {
		t.Errorf("publish status = %s, want %s", code, StatusPublishStart)
	}
	if _, ok := ts.srv.Publishers().At("key"); !ok {
		t.Error("name not registered after publish")
	}

	video, err := message.NewPacket(4, 0, message.TypeIDVideoMessage, 40, []byte{0x17, 0x01})
	if err != nil {
		t.Fatalf("NewPacket() error = %v", err)
	}
	ft.in <- video
	select {
	case p := <-ts.handled:
		if !p.Equal(video) {
			t.Error("handler got a different packet")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}

	send(t, ft, CommandDeleteStream, 6, amf.Null{}, amf.Number(1))
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := ts.srv.Publishers().At("key"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("name still registered after deleteStream")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestServerRejectsSecondPublisher(t *testing.T) {
	ts := startServer(t)
	first := ts.accept(t)
	if code := publish(t, first, "key"); code != StatusPublishStart {
		t.Fatalf("first publish status = %s", code)
	}

	second := ts.accept(t)
	if code := publish(t, second, "key"); code != StatusPublishBadName {
		t.Errorf("second publish status = %s, want %s", code, StatusPublishBadName)
	}
}

func TestServerReleasesNamesWhenSessionEnds(t *testing.T) {
	ts := startServer(t)
	ft := ts.accept(t)
	if code := publish(t, ft, "key"); code != StatusPublishStart {
		t.Fatalf("publish status = %s", code)
	}

	close(ft.in)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := ts.srv.Publishers().At("key"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("name still registered after session end")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestServerShutdown(t *testing.T) {
	ts := startServer(t)
	ft := ts.accept(t)
	if code := publish(t, ft, "key"); code != StatusPublishStart {
		t.Fatalf("publish status = %s", code)
	}

	ts.cancel()
	select {
	case err := <-ts.done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return")
	}
	ts.done <- nil

	ft.mu.Lock()
	calls := ft.closeCalls
	ft.mu.Unlock()
	if calls != 1 {
		t.Errorf("transport closed %d times, want 1", calls)
	}
	if err := ts.srv.Close(); err != nil {
		t.Errorf("Close() after shutdown error = %v", err)
	}
}

func TestServerRepublishReleasesPreviousName(t *testing.T) {
	ts := startServer(t)
	ft := ts.accept(t)
	if code := publish(t, ft, "a"); code != StatusPublishStart {
		t.Fatalf("publish status = %s", code)
	}

	send(t, ft, CommandPublish, 6, amf.Null{}, amf.String("b"), amf.String("live"))
	if code := statusCode(t, receive(t, ft)); code != StatusPublishStart {
		t.Fatalf("republish status = %s, want %s", code, StatusPublishStart)
	}
	if _, ok := ts.srv.Publishers().At("a"); ok {
		t.Error("name a still registered after the stream republished as b")
	}
	if _, ok := ts.srv.Publishers().At("b"); !ok {
		t.Error("name b not registered")
	}

	close(ft.in)
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, heldA := ts.srv.Publishers().At("a")
		_, heldB := ts.srv.Publishers().At("b")
		if !heldA && !heldB {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("names still registered after session end: a=%v b=%v", heldA, heldB)
		}
		time.Sleep(time.Millisecond)
	}

	other := ts.accept(t)
	if code := publish(t, other, "a"); code != StatusPublishStart {
		t.Errorf("publish of released name status = %s, want %s", code, StatusPublishStart)
	}
}
