package hub

import "sync"

// Broadcaster fans an event out to every session in a room's member set as
// of the call. Delivery to a recipient that disconnects mid-publish is a
// silent no-op; one slow or dead recipient never fails the publish for the
// others or for the publisher.
type Broadcaster struct {
	reg *Registry

	// serializes enqueue order so that two publishes to the same room are
	// observed in publish order by every recipient
	mu sync.Mutex
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// Publish delivers the frame to every current member, including the
// publisher's own session if it is a member.
func (b *Broadcaster) Publish(roomID string, frame []byte) {
	b.PublishExcept(roomID, frame, nil)
}

// PublishExcept is Publish minus one session, for notify-others semantics.
func (b *Broadcaster) PublishExcept(roomID string, frame []byte, except *Session) {
	members := b.reg.Members(roomID)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range members {
		if s == except {
			continue
		}
		// Enqueue never blocks on transport I/O, so holding the ordering
		// lock across the fan-out is cheap
		s.Enqueue(frame)
	}
}
