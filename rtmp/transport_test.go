package rtmp

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"example/rtmpbind/codec"
	"example/rtmpbind/message"
)

// fakeTransport is an in-memory Transport. Packets pushed to in are returned
// by ReadPacket; packets written are sent to out when it is set.
type fakeTransport struct {
	mu          sync.Mutex
	connected   bool
	url         string
	enableWrite bool
	timeout     time.Duration
	caps        codec.Capabilities
	setCapsErr  error
	closeErr    error
	closeCalls  int
	served      bool
	written     []message.Packet

	ioN   int
	ioErr error
	delay time.Duration

	inflight    int32
	maxInflight int32

	in        chan message.Packet
	out       chan message.Packet
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:   make(chan message.Packet, 16),
		done: make(chan struct{}),
	}
}

func (f *fakeTransport) Connect(url string, enableWrite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
	f.enableWrite = enableWrite
	f.connected = true
	return nil
}

func (f *fakeTransport) ConnectStream() error { return nil }
func (f *fakeTransport) DeleteStream() error  { return nil }
func (f *fakeTransport) Pause() error         { return nil }
func (f *fakeTransport) Resume() error        { return nil }

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) SetTimeout(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = d
	return nil
}

func (f *fakeTransport) Timeout() (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timeout, nil
}

func (f *fakeTransport) SetCapabilities(caps codec.Capabilities) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setCapsErr != nil {
		return f.setCapsErr
	}
	f.caps = caps
	return nil
}

func (f *fakeTransport) Capabilities() (codec.Capabilities, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caps, nil
}

func (f *fakeTransport) Read(b []byte) (int, error) {
	return f.ioN, f.ioErr
}

func (f *fakeTransport) Write(b []byte) (int, error) {
	n := atomic.AddInt32(&f.inflight, 1)
	for {
		max := atomic.LoadInt32(&f.maxInflight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInflight, max, n) {
			break
		}
	}
	time.Sleep(f.delay)
	atomic.AddInt32(&f.inflight, -1)
	return f.ioN, f.ioErr
}

func (f *fakeTransport) WritePacket(p message.Packet) error {
	f.mu.Lock()
	f.written = append(f.written, p)
	out := f.out
	f.mu.Unlock()
	if out != nil {
		out <- p
	}
	return nil
}

func (f *fakeTransport) ReadPacket() (message.Packet, error) {
	select {
	case p, ok := <-f.in:
		if !ok {
			return message.Packet{}, io.EOF
		}
		return p, nil
	case <-f.done:
		return message.Packet{}, ErrClosed
	}
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closeCalls++
	f.connected = false
	err := f.closeErr
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.done) })
	return err
}

func (f *fakeTransport) Serve(conn net.Conn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.served = true
	f.connected = true
	return nil
}

func (f *fakeTransport) writtenPackets() []message.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message.Packet(nil), f.written...)
}
