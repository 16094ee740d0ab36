package rtmp

import (
	"sort"
	"testing"
)

func TestStreams(t *testing.T) {
	ss := NewStreams()

	first, second := ss.Create(), ss.Create()
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first, second)
	}
	if prev, err := ss.SetName(first, "a"); err != nil || prev != "" {
		t.Fatalf("SetName() = %q, %v, want empty, nil", prev, err)
	}
	if _, err := ss.SetName(99, "x"); err == nil {
		t.Error("SetName() on unknown stream succeeded")
	}
	if _, err := ss.SetName(second, "old"); err != nil {
		t.Fatalf("SetName() error = %v", err)
	}
	if prev, err := ss.SetName(second, "b"); err != nil || prev != "old" {
		t.Errorf("SetName() = %q, %v, want old, nil", prev, err)
	}

	names := ss.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}

	if name, ok := ss.Delete(first); !ok || name != "a" {
		t.Errorf("Delete() = %q, %v, want a, true", name, ok)
	}
	if _, ok := ss.Delete(first); ok {
		t.Error("second Delete() reported a name")
	}
	if len(ss.Names()) != 1 {
		t.Errorf("Names() = %v after delete", ss.Names())
	}
}

func TestPublishers(t *testing.T) {
	p := NewPublishers()
	a, b := &Session{}, &Session{}

	if err := p.Acquire("key", a); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := p.Acquire("key", a); err != nil {
		t.Errorf("Acquire() by owner error = %v", err)
	}
	if err := p.Acquire("key", b); err == nil {
		t.Error("Acquire() by second session succeeded")
	}

	p.Release("key", b)
	if s, ok := p.At("key"); !ok || s != a {
		t.Error("Release() by non-owner dropped the name")
	}

	p.Release("key", a)
	if _, ok := p.At("key"); ok {
		t.Error("name still held after Release()")
	}
	if err := p.Acquire("key", b); err != nil {
		t.Errorf("Acquire() after release error = %v", err)
	}
}
