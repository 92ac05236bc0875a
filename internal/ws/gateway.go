package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vaporchat/vaporchat/internal/auth"
	"github.com/vaporchat/vaporchat/internal/common"
	"github.com/vaporchat/vaporchat/internal/hub"
	"github.com/vaporchat/vaporchat/internal/room"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 8192
)

// RateLimiter gates message sends per user. Implementations should fail
// open when the backing store is unreachable.
type RateLimiter interface {
	AllowMessage(ctx context.Context, userID uint64) (bool, error)
}

// Gateway owns one websocket connection per client: it authenticates the
// handshake, then translates inbound events into registry and broadcaster
// calls.
type Gateway struct {
	rooms     *room.Service
	registry  *hub.Registry
	bc        *hub.Broadcaster
	limiter   RateLimiter
	jwtSecret string

	upgrader websocket.Upgrader
}

func NewGateway(rooms *room.Service, registry *hub.Registry, bc *hub.Broadcaster, limiter RateLimiter, jwtSecret string) *Gateway {
	return &Gateway{
		rooms:     rooms,
		registry:  registry,
		bc:        bc,
		limiter:   limiter,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the mobile client connects from a non-browser origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle is the GET /ws endpoint. The bearer token must arrive with the
// handshake; a missing or invalid token rejects the connection before any
// session exists.
func (g *Gateway) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		common.Fail(c, http.StatusUnauthorized, 40101, "authentication token required")
		return
	}
	userID, err := auth.ParseJWT(token, g.jwtSecret)
	if err != nil {
		common.Fail(c, http.StatusUnauthorized, 40102, "invalid or expired token")
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	s := hub.NewSession()
	if err := s.Authenticate(userID); err != nil {
		conn.Close()
		return
	}

	go g.writePump(conn, s)
	g.readPump(c.Request.Context(), conn, s)
}

// readPump runs for the life of the connection. Leaving it for any reason
// releases membership exactly once.
func (g *Gateway) readPump(ctx context.Context, conn *websocket.Conn, s *hub.Session) {
	defer func() {
		s.Close()
		g.registry.RemoveSession(s)
		conn.Close()
	}()

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// last display name this session presented, used for the implicit
	// user_left announcement when it hops rooms
	displayName := ""

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("session %s: read error: %v", s.ID, err)
			}
			return
		}
		if s.State() == hub.StateClosed {
			return
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			g.sendError(s, "malformed event")
			continue
		}

		switch ev.Type {
		case EventJoinRoom:
			var data JoinRoomData
			if err := json.Unmarshal(ev.Data, &data); err != nil || data.RoomID == "" {
				g.sendError(s, "malformed join_room event")
				continue
			}
			if data.DisplayName != "" {
				displayName = data.DisplayName
			}
			g.handleJoin(s, data.RoomID, displayName)

		case EventLeaveRoom:
			var data LeaveRoomData
			if err := json.Unmarshal(ev.Data, &data); err != nil || data.RoomID == "" {
				g.sendError(s, "malformed leave_room event")
				continue
			}
			if data.DisplayName != "" {
				displayName = data.DisplayName
			}
			g.handleLeave(s, data.RoomID, displayName)

		case EventSendMessage:
			var data SendMessageData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				g.sendError(s, "malformed send_message event")
				continue
			}
			if data.DisplayName != "" {
				displayName = data.DisplayName
			}
			g.handleSend(ctx, s, data)

		case EventVaporizeRoom:
			var data VaporizeRoomData
			if err := json.Unmarshal(ev.Data, &data); err != nil || data.RoomID == "" {
				g.sendError(s, "malformed vaporize_room event")
				continue
			}
			g.handleVaporize(ctx, s, data.RoomID)

		default:
			g.sendError(s, "unknown event type")
		}
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, s *hub.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame := <-s.Out():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (g *Gateway) handleJoin(s *hub.Session, roomID, displayName string) {
	// hopping rooms: tell the old room first
	if prev := s.Room(); prev != "" && prev != roomID {
		g.announce(EventUserLeft, prev, displayName, s)
	}
	g.registry.Join(roomID, s)
	g.announce(EventUserJoined, roomID, displayName, s)
}

func (g *Gateway) handleLeave(s *hub.Session, roomID, displayName string) {
	g.registry.Leave(roomID, s)
	g.announce(EventUserLeft, roomID, displayName, s)
}

func (g *Gateway) handleSend(ctx context.Context, s *hub.Session, data SendMessageData) {
	if s.Room() == "" || s.Room() != data.RoomID {
		g.sendError(s, "join the room before sending messages")
		return
	}

	if g.limiter != nil {
		allowed, err := g.limiter.AllowMessage(ctx, s.UserID())
		if err != nil {
			log.Printf("session %s: rate limiter unavailable: %v", s.ID, err)
		} else if !allowed {
			g.sendError(s, "sending too fast, slow down")
			return
		}
	}

	// persist first, outside any membership lock; a store failure is
	// reported to the sender only and mutates nothing
	msg, err := g.rooms.SaveMessage(ctx, data.RoomID, s.UserID(), data.DisplayName, data.Content)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrInvalidInput):
			g.sendError(s, "message must be 1-1000 characters")
		case errors.Is(err, room.ErrNotFound):
			g.sendError(s, "room not found")
		default:
			log.Printf("session %s: save message failed: %v", s.ID, err)
			g.sendError(s, "failed to send message")
		}
		return
	}

	// the sender gets its own message through the same fan-out as everyone
	// else, so observed ordering matches across the room
	frame, ok := encodeEvent(EventReceiveMessage, ReceiveMessagePayload{
		ID:          msg.MessageID,
		UserID:      msg.UserID,
		DisplayName: msg.DisplayName,
		Content:     msg.Content,
		Timestamp:   msg.CreatedAt,
	})
	if !ok {
		return
	}
	g.bc.Publish(data.RoomID, frame)
}

func (g *Gateway) handleVaporize(ctx context.Context, s *hub.Session, roomID string) {
	// Vaporize itself broadcasts room_vaporized to the room
	if _, err := g.rooms.Vaporize(ctx, roomID); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			g.sendError(s, "room not found")
			return
		}
		log.Printf("session %s: vaporize failed: %v", s.ID, err)
		g.sendError(s, "failed to vaporize room")
	}
}

func (g *Gateway) announce(eventType, roomID, displayName string, actor *hub.Session) {
	frame, ok := encodeEvent(eventType, PresencePayload{
		DisplayName: displayName,
		Timestamp:   time.Now(),
	})
	if !ok {
		return
	}
	g.bc.PublishExcept(roomID, frame, actor)
}

func (g *Gateway) sendError(s *hub.Session, msg string) {
	frame, ok := encodeEvent(EventError, ErrorPayload{Message: msg})
	if !ok {
		return
	}
	s.Enqueue(frame)
}
