package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaporchat/vaporchat/internal/config"
	"github.com/vaporchat/vaporchat/internal/db"
	"github.com/vaporchat/vaporchat/internal/httpapi"
	"github.com/vaporchat/vaporchat/internal/hub"
	"github.com/vaporchat/vaporchat/internal/room"
	"github.com/vaporchat/vaporchat/internal/store/rabbitmq"
	"github.com/vaporchat/vaporchat/internal/store/redisstore"
	"github.com/vaporchat/vaporchat/internal/ws"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MessageRateLimit, cfg.MessageRateWindow)
	defer rds.Close()

	var expiry room.ExpiryScheduler
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue, cfg.RoomTTL)
	if err != nil {
		log.Printf("rabbit unavailable, room auto-expiry disabled: %v", err)
	} else {
		defer pub.Close()
		expiry = pub
	}

	registry := hub.NewRegistry()
	bc := hub.NewBroadcaster(registry)
	notifier := &ws.Notifier{Broadcaster: bc}

	repo := room.NewRepo(gdb)
	rooms := room.NewService(repo, notifier, expiry)

	gateway := ws.NewGateway(rooms, registry, bc, rds, cfg.JWTSecret)

	router := httpapi.NewRouter(gdb, cfg, rooms, gateway)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
