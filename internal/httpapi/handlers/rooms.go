package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vaporchat/vaporchat/internal/common"
	"github.com/vaporchat/vaporchat/internal/room"
)

type createRoomReq struct {
	RoomName string `json:"room_name"`
	Password string `json:"password"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	r, err := h.Rooms.Create(c.Request.Context(), req.RoomName, req.Password, uid)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrInvalidInput):
			common.Fail(c, http.StatusBadRequest, 10002, "room name must be 3-30 characters and password at least 4")
		case errors.Is(err, room.ErrDuplicateName):
			common.Fail(c, http.StatusBadRequest, 10003, "room name already exists")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "failed to create room")
		}
		return
	}

	common.Created(c, gin.H{
		"room": gin.H{
			"id":         r.RoomID,
			"room_name":  r.Name,
			"created_at": r.CreatedAt,
		},
	})
}

type joinRoomReq struct {
	RoomName string `json:"room_name"`
	Password string `json:"password"`
}

// JoinRoom validates name and password; live membership is established
// separately over the socket.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req joinRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.RoomName == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "room name and password required")
		return
	}

	r, err := h.Rooms.Join(c.Request.Context(), req.RoomName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 40401, "room not found")
		case errors.Is(err, room.ErrInvalidCredential):
			common.Fail(c, http.StatusUnauthorized, 40104, "invalid room password")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "failed to join room")
		}
		return
	}

	common.OK(c, gin.H{
		"room": gin.H{
			"id":        r.RoomID,
			"room_name": r.Name,
		},
	})
}

func (h *Handler) GetRoom(c *gin.Context) {
	r, err := h.Rooms.Get(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "db error")
		return
	}

	common.OK(c, gin.H{
		"room": gin.H{
			"id":         r.RoomID,
			"room_name":  r.Name,
			"created_at": r.CreatedAt,
		},
	})
}

func (h *Handler) ListRoomMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.Rooms.Messages(c.Request.Context(), c.Param("room_id"), limit)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to list messages")
		return
	}

	common.OK(c, gin.H{"messages": msgs})
}

func (h *Handler) VaporizeRoom(c *gin.Context) {
	count, err := h.Rooms.Vaporize(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to vaporize room")
		return
	}

	common.OK(c, gin.H{"deleted_count": count})
}
