package room

import "time"

type Room struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	RoomID    string `gorm:"type:varchar(26);uniqueIndex;not null" json:"id"`
	Name      string `gorm:"type:varchar(30);not null" json:"room_name"`
	// lowercased copy of Name; the unique index on it enforces
	// case-insensitive room-name uniqueness at the store level
	NameLower    string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"-"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	CreatedBy    uint64    `gorm:"index;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (Room) TableName() string { return "rooms" }

type Message struct {
	// autoincrement id doubles as the insertion sequence; chronological
	// order everywhere means "order by id"
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	MessageID   string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"id"`
	RoomID      string    `gorm:"type:varchar(26);index:idx_room_msg,priority:1;not null" json:"-"`
	UserID      uint64    `gorm:"not null" json:"user_id"`
	DisplayName string    `gorm:"type:varchar(30);not null" json:"display_name"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"index:idx_room_msg,priority:2" json:"timestamp"`
}

func (Message) TableName() string { return "messages" }
