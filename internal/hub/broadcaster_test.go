package hub

import (
	"fmt"
	"testing"
)

func drain(s *Session) [][]byte {
	var out [][]byte
	for {
		select {
		case frame := <-s.Out():
			out = append(out, frame)
		default:
			return out
		}
	}
}

func TestPublish_DeliversToExactMemberSet(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	a := authedSession(t, 1)
	b := authedSession(t, 2)
	c := authedSession(t, 3)
	outsider := authedSession(t, 4)

	reg.Join("r1", a)
	reg.Join("r1", b)
	reg.Join("r1", c)
	reg.Join("r2", outsider)

	bc.Publish("r1", []byte("E"))

	for _, s := range []*Session{a, b, c} {
		frames := drain(s)
		if len(frames) != 1 || string(frames[0]) != "E" {
			t.Fatalf("member %d: expected [E], got %q", s.UserID(), frames)
		}
	}
	if frames := drain(outsider); len(frames) != 0 {
		t.Fatalf("outsider received %d frames", len(frames))
	}
}

func TestPublishExcept_SkipsOneSession(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	a := authedSession(t, 1)
	b := authedSession(t, 2)
	reg.Join("r1", a)
	reg.Join("r1", b)

	bc.PublishExcept("r1", []byte("E"), a)

	if frames := drain(a); len(frames) != 0 {
		t.Fatalf("excluded session received %d frames", len(frames))
	}
	if frames := drain(b); len(frames) != 1 {
		t.Fatalf("expected 1 frame for b, got %d", len(frames))
	}
}

func TestPublish_ClosedRecipientIsSilent(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	a := authedSession(t, 1)
	b := authedSession(t, 2)
	reg.Join("r1", a)
	reg.Join("r1", b)

	// b drops concurrently with delivery
	b.Close()
	bc.Publish("r1", []byte("still here"))

	frames := drain(a)
	if len(frames) != 1 || string(frames[0]) != "still here" {
		t.Fatalf("expected a to receive the message, got %q", frames)
	}
	if frames := drain(b); len(frames) != 0 {
		t.Fatalf("closed session received %d frames", len(frames))
	}
}

func TestPublish_UnknownRoomIsEmptySet(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	// must not panic or error
	bc.Publish("ghost", []byte("E"))
}

func TestPublish_PerRoomOrderPreserved(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	a := authedSession(t, 1)
	reg.Join("r1", a)

	const n = 100
	for i := 0; i < n; i++ {
		bc.Publish("r1", []byte(fmt.Sprintf("%d", i)))
	}

	frames := drain(a)
	if len(frames) != n {
		t.Fatalf("expected %d frames, got %d", n, len(frames))
	}
	for i, frame := range frames {
		if string(frame) != fmt.Sprintf("%d", i) {
			t.Fatalf("frame %d out of order: %s", i, frame)
		}
	}
}

func TestEnqueue_FullBufferClosesSession(t *testing.T) {
	s := authedSession(t, 1)

	for i := 0; i < sendBuffer; i++ {
		s.Enqueue([]byte("x"))
	}
	if s.State() == StateClosed {
		t.Fatalf("session closed before buffer overflow")
	}

	// one past the buffer: the slow session is cut loose, not blocked on
	s.Enqueue([]byte("overflow"))
	if s.State() != StateClosed {
		t.Fatalf("expected overflowing session to be closed")
	}
}
