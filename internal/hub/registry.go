package hub

import "sync"

// Registry exclusively owns the room -> session-set mapping. All mutation
// goes through its methods; readers get copy-on-read snapshots. It does not
// validate room existence: an unknown room is simply an empty set.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]*Session
	sessionRoom map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]map[string]*Session),
		sessionRoom: make(map[string]string),
	}
}

// Join inserts the session into the room's member set. A session already in
// a different room is moved (a session is in at most one room); joining the
// room it is already in is a no-op.
func (r *Registry) Join(roomID string, s *Session) {
	if s == nil || s.State() == StateClosed {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessionRoom[s.ID]; ok {
		if cur == roomID {
			return
		}
		r.dropLocked(cur, s.ID)
	}
	set, ok := r.rooms[roomID]
	if !ok {
		set = make(map[string]*Session)
		r.rooms[roomID] = set
	}
	set[s.ID] = s
	r.sessionRoom[s.ID] = roomID
	s.setRoom(roomID)
}

// Leave removes the session from the room if present; no-op otherwise.
func (r *Registry) Leave(roomID string, s *Session) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionRoom[s.ID] != roomID {
		return
	}
	r.dropLocked(roomID, s.ID)
	delete(r.sessionRoom, s.ID)
	s.setRoom("")
}

// RemoveSession removes the session from whichever room it belongs to.
// Called on disconnect; idempotent.
func (r *Registry) RemoveSession(s *Session) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.sessionRoom[s.ID]
	if !ok {
		return
	}
	r.dropLocked(roomID, s.ID)
	delete(r.sessionRoom, s.ID)
	s.setRoom("")
}

// Members returns a snapshot of the room's current member set. Concurrent
// joins and leaves never mutate a returned slice.
func (r *Registry) Members(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.rooms[roomID]
	out := make([]*Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// Room reports which room the session is registered in, if any.
func (r *Registry) Room(s *Session) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.sessionRoom[s.ID]
	return roomID, ok
}

func (r *Registry) dropLocked(roomID, sessionID string) {
	if set, ok := r.rooms[roomID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.rooms, roomID)
		}
	}
}
