package hub

import (
	"sync"
	"testing"
)

func authedSession(t *testing.T, userID uint64) *Session {
	t.Helper()
	s := NewSession()
	if err := s.Authenticate(userID); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return s
}

func memberIDs(reg *Registry, roomID string) map[string]bool {
	out := make(map[string]bool)
	for _, s := range reg.Members(roomID) {
		out[s.ID] = true
	}
	return out
}

func TestJoin_SingleRoomInvariant(t *testing.T) {
	reg := NewRegistry()
	s := authedSession(t, 1)

	reg.Join("r1", s)
	reg.Join("r2", s)

	if memberIDs(reg, "r1")[s.ID] {
		t.Fatalf("session still registered in r1 after joining r2")
	}
	if !memberIDs(reg, "r2")[s.ID] {
		t.Fatalf("session not registered in r2")
	}
	if roomID, ok := reg.Room(s); !ok || roomID != "r2" {
		t.Fatalf("expected session in r2, got %q (ok=%v)", roomID, ok)
	}
	if s.Room() != "r2" {
		t.Fatalf("session room out of sync: %q", s.Room())
	}
}

func TestJoin_Idempotent(t *testing.T) {
	reg := NewRegistry()
	s := authedSession(t, 1)

	reg.Join("r1", s)
	reg.Join("r1", s)

	if len(reg.Members("r1")) != 1 {
		t.Fatalf("expected exactly one member, got %d", len(reg.Members("r1")))
	}
}

func TestLeave_NoOpWhenNotMember(t *testing.T) {
	reg := NewRegistry()
	s := authedSession(t, 1)

	reg.Leave("r1", s)

	reg.Join("r1", s)
	// leaving a different room must not touch the real membership
	reg.Leave("r2", s)
	if !memberIDs(reg, "r1")[s.ID] {
		t.Fatalf("leave of wrong room removed the session from r1")
	}
}

func TestRemoveSession_Idempotent(t *testing.T) {
	reg := NewRegistry()
	s := authedSession(t, 1)

	reg.Join("r1", s)
	reg.RemoveSession(s)
	reg.RemoveSession(s)

	if len(reg.Members("r1")) != 0 {
		t.Fatalf("session still registered after removal")
	}
	if _, ok := reg.Room(s); ok {
		t.Fatalf("session still tracked after removal")
	}
}

func TestMembers_SnapshotIsolation(t *testing.T) {
	reg := NewRegistry()
	a := authedSession(t, 1)
	b := authedSession(t, 2)

	reg.Join("r1", a)
	reg.Join("r1", b)

	snapshot := reg.Members("r1")
	reg.RemoveSession(a)
	reg.RemoveSession(b)

	if len(snapshot) != 2 {
		t.Fatalf("snapshot mutated by concurrent removal: %d members", len(snapshot))
	}
}

func TestRegistry_ConcurrentJoinLeaveRemove(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	sessions := make([]*Session, 50)
	for i := range sessions {
		sessions[i] = authedSession(t, uint64(i+1))
	}

	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				reg.Join("r1", s)
				reg.Join("r2", s)
				reg.Leave("r2", s)
				reg.RemoveSession(s)
			}
		}(s)
	}
	wg.Wait()

	if n := len(reg.Members("r1")) + len(reg.Members("r2")); n != 0 {
		t.Fatalf("expected empty rooms after removals, got %d members", n)
	}
}

func TestSession_AuthenticateOnce(t *testing.T) {
	s := NewSession()
	if s.State() != StateConnecting {
		t.Fatalf("new session should be connecting")
	}
	if err := s.Authenticate(7); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := s.Authenticate(8); err == nil {
		t.Fatalf("second authenticate should fail")
	}
	if s.UserID() != 7 {
		t.Fatalf("identity must be immutable after handshake, got %d", s.UserID())
	}
}

func TestSession_CloseIsTerminal(t *testing.T) {
	reg := NewRegistry()
	s := authedSession(t, 1)
	reg.Join("r1", s)

	s.Close()
	s.Close()

	select {
	case <-s.Done():
	default:
		t.Fatalf("done channel not closed")
	}

	// a closed session cannot rejoin
	reg.Join("r2", s)
	if len(reg.Members("r2")) != 0 {
		t.Fatalf("closed session joined a room")
	}
}
