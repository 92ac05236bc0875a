package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vaporchat/vaporchat/internal/config"
	"github.com/vaporchat/vaporchat/internal/db"
	"github.com/vaporchat/vaporchat/internal/room"
	"github.com/vaporchat/vaporchat/internal/store/rabbitmq"
)

func sweeperConcurrency() int {
	v := os.Getenv("SWEEPER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	repo := room.NewRepo(gdb)
	// no live members to notify from this process; expiring rooms are idle
	rooms := room.NewService(repo, nil, nil)

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue, cfg.RoomTTL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer pub.Close()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := sweeperConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("sweeper started, queue=%s concurrency=%d ttl=%s", cfg.RabbitQueue, concurrency, cfg.RoomTTL)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.ExpiryMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.RoomID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				if err := handleExpiry(ctx, rooms, pub, m.RoomID, cfg.RoomTTL); err != nil {
					log.Printf("worker=%d room %s expiry failed: %v", workerID, m.RoomID, err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed room=%s err=%v", workerID, m.RoomID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// handleExpiry vaporizes the room if it has been idle for the full TTL;
// otherwise it re-arms the check for the remaining window.
func handleExpiry(ctx context.Context, rooms *room.Service, pub *rabbitmq.Publisher, roomID string, ttl time.Duration) error {
	vaporized, lastActive, err := rooms.VaporizeIfIdle(ctx, roomID, ttl)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			// room record gone, nothing to sweep
			return nil
		}
		return err
	}
	if vaporized {
		log.Printf("room %s vaporized after %s idle", roomID, ttl)
		return nil
	}

	remaining := ttl - time.Since(lastActive)
	if remaining < time.Minute {
		remaining = time.Minute
	}
	return pub.ScheduleExpiryIn(ctx, roomID, remaining)
}
