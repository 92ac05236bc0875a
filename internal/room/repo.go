package room

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateRoom(ctx context.Context, room *Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *Repo) GetRoomByName(ctx context.Context, name string) (*Room, error) {
	var room Room
	if err := r.db.WithContext(ctx).
		Where("name_lower = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repo) GetRoomByRoomID(ctx context.Context, roomID string) (*Room, error) {
	var room Room
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListRecentMessagesDesc returns the most recent messages in DESC id order
// (newest -> oldest).
func (r *Repo) ListRecentMessagesDesc(ctx context.Context, roomID string, limit int) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteMessages bulk-deletes every message in the room and reports how many
// rows went away.
func (r *Repo) DeleteMessages(ctx context.Context, roomID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&Message{})
	return res.RowsAffected, res.Error
}

// LastActivity returns the newest message timestamp for the room, or the
// zero time when the room has no messages.
func (r *Repo) LastActivity(ctx context.Context, roomID string) (time.Time, error) {
	var m Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return m.CreatedAt, nil
}
