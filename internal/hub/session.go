package hub

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle position of a live session.
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateJoined
	StateClosed
)

var ErrNotConnecting = errors.New("session already authenticated or closed")

const sendBuffer = 256

// Session is one live connection. Identity is bound exactly once at the
// handshake; after Close no further events are accepted or delivered.
type Session struct {
	ID string

	mu     sync.Mutex
	userID uint64
	state  State
	roomID string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession() *Session {
	return &Session{
		ID:    uuid.NewString(),
		state: StateConnecting,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
}

// Authenticate binds the user identity. Valid only while connecting.
func (s *Session) Authenticate(userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return ErrNotConnecting
	}
	s.userID = userID
	s.state = StateAuthenticated
	return nil
}

func (s *Session) UserID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Room returns the room the session currently considers itself joined to,
// or "" when idle.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) setRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.roomID = roomID
	if roomID == "" {
		s.state = StateAuthenticated
	} else {
		s.state = StateJoined
	}
}

// Enqueue hands an outbound frame to the session's writer. It never blocks:
// a closed session swallows the frame, and a session whose buffer is full is
// closed so a stalled transport cannot back up the broadcaster.
func (s *Session) Enqueue(frame []byte) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	select {
	case s.send <- frame:
	default:
		s.Close()
	}
}

// Out is drained by the transport's write loop.
func (s *Session) Out() <-chan []byte { return s.send }

// Done is closed when the session enters its terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close moves the session to the terminal state. Safe to call from multiple
// goroutines; only the first call has any effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.roomID = ""
		s.mu.Unlock()
		close(s.done)
	})
}
