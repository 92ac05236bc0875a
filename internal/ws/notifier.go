package ws

import (
	"time"

	"github.com/vaporchat/vaporchat/internal/hub"
)

// Notifier adapts the broadcaster to the room service's notification
// contract, so vaporize itself drives the room_vaporized fan-out no matter
// which surface (REST or socket) triggered it.
type Notifier struct {
	Broadcaster *hub.Broadcaster
}

func (n *Notifier) RoomVaporized(roomID string, at time.Time) {
	frame, ok := encodeEvent(EventRoomVaporized, RoomVaporizedPayload{
		RoomID:    roomID,
		Timestamp: at,
	})
	if !ok {
		return
	}
	n.Broadcaster.Publish(roomID, frame)
}
