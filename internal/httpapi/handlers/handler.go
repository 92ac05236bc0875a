package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vaporchat/vaporchat/internal/config"
	"github.com/vaporchat/vaporchat/internal/httpapi/middleware"
	"github.com/vaporchat/vaporchat/internal/room"
)

type Handler struct {
	DB    *gorm.DB
	Cfg   config.Config
	Rooms *room.Service
}

func NewHandler(db *gorm.DB, cfg config.Config, rooms *room.Service) *Handler {
	return &Handler{DB: db, Cfg: cfg, Rooms: rooms}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "VaporChat API is running"})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
