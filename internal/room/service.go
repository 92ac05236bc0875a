package room

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vaporchat/vaporchat/internal/auth"
	"github.com/vaporchat/vaporchat/internal/common"
)

const (
	minNameLen     = 3
	maxNameLen     = 30
	minPasswordLen = 4

	maxContentLen     = 1000
	maxDisplayNameLen = 30

	defaultPageLimit = 100
	maxPageLimit     = 200
)

// Notifier pushes room-scoped events to currently connected members. The
// live layer provides the implementation; a nil-safe no-op is fine in
// offline tooling.
type Notifier interface {
	RoomVaporized(roomID string, at time.Time)
}

// ExpiryScheduler queues a deferred expiry check for a room.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, roomID string) error
}

type Service struct {
	repo     *Repo
	notifier Notifier
	expiry   ExpiryScheduler
}

// NewService wires the room lifecycle service. notifier and expiry may be
// nil; the corresponding side effects are skipped.
func NewService(repo *Repo, notifier Notifier, expiry ExpiryScheduler) *Service {
	return &Service{repo: repo, notifier: notifier, expiry: expiry}
}

func (s *Service) Create(ctx context.Context, name, password string, creatorID uint64) (*Room, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return nil, ErrInvalidInput
	}
	if len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}

	if _, err := s.repo.GetRoomByName(ctx, name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	roomID, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	room := &Room{
		RoomID:       roomID,
		Name:         name,
		NameLower:    strings.ToLower(name),
		PasswordHash: hash,
		CreatedBy:    creatorID,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		// unique index on name_lower catches the create/create race
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	if s.expiry != nil {
		if err := s.expiry.ScheduleExpiry(ctx, room.RoomID); err != nil {
			log.Printf("room %s: schedule expiry failed: %v", room.RoomID, err)
		}
	}
	return room, nil
}

// Join validates the room name and credential. It does not establish live
// membership; that happens over the socket.
func (s *Service) Join(ctx context.Context, name, password string) (*Room, error) {
	room, err := s.repo.GetRoomByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !auth.CheckPassword(room.PasswordHash, password) {
		return nil, ErrInvalidCredential
	}
	return room, nil
}

func (s *Service) Get(ctx context.Context, roomID string) (*Room, error) {
	room, err := s.repo.GetRoomByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return room, nil
}

// Messages returns up to limit most recent messages, oldest first.
func (s *Service) Messages(ctx context.Context, roomID string, limit int) ([]Message, error) {
	if _, err := s.Get(ctx, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	desc, err := s.repo.ListRecentMessagesDesc(ctx, roomID, limit)
	if err != nil {
		return nil, err
	}
	// reverse to ASC (oldest -> newest)
	asc := make([]Message, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		asc = append(asc, desc[i])
	}
	return asc, nil
}

func (s *Service) SaveMessage(ctx context.Context, roomID string, userID uint64, displayName, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxContentLen {
		return nil, ErrInvalidInput
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > maxDisplayNameLen {
		return nil, ErrInvalidInput
	}
	if _, err := s.Get(ctx, roomID); err != nil {
		return nil, err
	}

	msgID, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	msg := &Message{
		MessageID:   msgID,
		RoomID:      roomID,
		UserID:      userID,
		DisplayName: displayName,
		Content:     content,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Vaporize deletes the room's whole message history and notifies connected
// members. The room record itself survives.
func (s *Service) Vaporize(ctx context.Context, roomID string) (int64, error) {
	if _, err := s.Get(ctx, roomID); err != nil {
		return 0, err
	}
	count, err := s.repo.DeleteMessages(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if s.notifier != nil {
		s.notifier.RoomVaporized(roomID, time.Now())
	}
	return count, nil
}

// VaporizeIfIdle deletes the room's messages only when it has seen no
// activity since the cutoff. Used by the expiry sweeper. It reports whether
// the room was vaporized and, if not, when it was last active.
func (s *Service) VaporizeIfIdle(ctx context.Context, roomID string, idleFor time.Duration) (bool, time.Time, error) {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return false, time.Time{}, err
	}
	last, err := s.repo.LastActivity(ctx, roomID)
	if err != nil {
		return false, time.Time{}, err
	}
	if last.IsZero() {
		last = room.CreatedAt
	}
	if time.Since(last) < idleFor {
		return false, last, nil
	}
	if _, err := s.Vaporize(ctx, roomID); err != nil {
		return false, last, err
	}
	return true, last, nil
}
