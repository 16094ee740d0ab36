package rtmp

import (
	"fmt"
	"sync"
)

const ControlStreamID = 0

// Streams tracks the message streams created on a connection.
type Streams struct {
	streams map[uint32]string // stream id -> published name
	next    uint32
	m       sync.Mutex
}

func NewStreams() *Streams {
	return &Streams{
		streams: make(map[uint32]string),
		next:    ControlStreamID + 1,
	}
}

// Create allocates the next stream id.
func (ss *Streams) Create() uint32 {
	ss.m.Lock()
	defer ss.m.Unlock()

	id := ss.next
	ss.next++
	ss.streams[id] = ""
	return id
}

// SetName records the name published on streamID and returns the name it
// replaced, if any.
func (ss *Streams) SetName(streamID uint32, name string) (string, error) {
	ss.m.Lock()
	defer ss.m.Unlock()

	prev, ok := ss.streams[streamID]
	if !ok {
		return "", fmt.Errorf("Stream not found: StreamID = %d", streamID)
	}
	ss.streams[streamID] = name
	return prev, nil
}

// Delete drops streamID and returns the name it published, if any.
func (ss *Streams) Delete(streamID uint32) (string, bool) {
	ss.m.Lock()
	defer ss.m.Unlock()

	name, ok := ss.streams[streamID]
	delete(ss.streams, streamID)
	return name, ok && name != ""
}

// Names returns every published name still held by the connection.
func (ss *Streams) Names() []string {
	ss.m.Lock()
	defer ss.m.Unlock()

	names := make([]string, 0, len(ss.streams))
	for _, name := range ss.streams {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Publishers is the server-wide set of published stream names.
type Publishers struct {
	sessions map[string]*Session
	m        sync.Mutex
}

func NewPublishers() *Publishers {
	return &Publishers{
		sessions: make(map[string]*Session),
	}
}

// Acquire registers name for s. It fails if another session publishes it.
func (p *Publishers) Acquire(name string, s *Session) error {
	p.m.Lock()
	defer p.m.Unlock()

	if owner, ok := p.sessions[name]; ok && owner != s {
		return fmt.Errorf("Stream already exists: Name = %s", name)
	}
	p.sessions[name] = s
	return nil
}

// Release drops name if s holds it.
func (p *Publishers) Release(name string, s *Session) {
	p.m.Lock()
	defer p.m.Unlock()

	if p.sessions[name] == s {
		delete(p.sessions, name)
	}
}

// At returns the session publishing name.
func (p *Publishers) At(name string) (*Session, bool) {
	p.m.Lock()
	defer p.m.Unlock()

	s, ok := p.sessions[name]
	return s, ok
}
