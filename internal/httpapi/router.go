package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vaporchat/vaporchat/internal/common"
	"github.com/vaporchat/vaporchat/internal/config"
	"github.com/vaporchat/vaporchat/internal/httpapi/handlers"
	"github.com/vaporchat/vaporchat/internal/httpapi/middleware"
	"github.com/vaporchat/vaporchat/internal/room"
	"github.com/vaporchat/vaporchat/internal/ws"
)

func NewRouter(db *gorm.DB, cfg config.Config, rooms *room.Service, gateway *ws.Gateway) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rooms)

	r.GET("/health", h.Health)

	// auth
	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/login", h.Login)

	// live channel; the gateway does its own handshake auth
	r.GET("/ws", gateway.Handle)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	// Rooms (JWT required)
	authGroup.POST("/api/rooms", h.CreateRoom)
	authGroup.POST("/api/rooms/join", h.JoinRoom)
	authGroup.GET("/api/rooms/:room_id", h.GetRoom)
	authGroup.GET("/api/rooms/:room_id/messages", h.ListRoomMessages)
	authGroup.DELETE("/api/rooms/:room_id/messages", h.VaporizeRoom)

	return r
}
