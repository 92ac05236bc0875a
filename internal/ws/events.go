package ws

import (
	"encoding/json"
	"time"
)

// Inbound event kinds.
const (
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventSendMessage  = "send_message"
	EventVaporizeRoom = "vaporize_room"
)

// Outbound event kinds.
const (
	EventReceiveMessage = "receive_message"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventRoomVaporized  = "room_vaporized"
	EventError          = "error"
)

// ClientEvent is the envelope for every inbound frame.
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type JoinRoomData struct {
	RoomID      string `json:"room_id"`
	DisplayName string `json:"display_name"`
}

type LeaveRoomData struct {
	RoomID      string `json:"room_id"`
	DisplayName string `json:"display_name"`
}

type SendMessageData struct {
	RoomID      string `json:"room_id"`
	Content     string `json:"content"`
	DisplayName string `json:"display_name"`
}

type VaporizeRoomData struct {
	RoomID string `json:"room_id"`
}

type ReceiveMessagePayload struct {
	ID          string    `json:"id"`
	UserID      uint64    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

type PresencePayload struct {
	DisplayName string    `json:"display_name"`
	Timestamp   time.Time `json:"timestamp"`
}

type RoomVaporizedPayload struct {
	RoomID    string    `json:"room_id"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// encodeEvent frames an outbound event. A payload that cannot marshal is a
// programming error; the frame is dropped and the caller keeps going.
func encodeEvent(eventType string, data any) ([]byte, bool) {
	b, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: eventType, Data: data})
	if err != nil {
		return nil, false
	}
	return b, true
}
