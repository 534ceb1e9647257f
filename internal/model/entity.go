package model

import "time"

// RoomEntity — room row (GORM).
type RoomEntity struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Code       string    `gorm:"size:16;not null;uniqueIndex"`
	Name       string    `gorm:"size:128;not null"`
	GameKey    string    `gorm:"size:64;not null;index"`
	MaxPlayers int       `gorm:"not null;default:4"`
	HostID     string    `gorm:"size:64;not null"`
	Status     string    `gorm:"size:20;not null;default:waiting"` // waiting, active, finished
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	Players []RoomPlayer `gorm:"foreignKey:RoomID"`
}

func (RoomEntity) TableName() string { return "rooms" }

// RoomPlayer — room member row (GORM). Seq preserves join order.
type RoomPlayer struct {
	Seq      int64     `gorm:"primaryKey;autoIncrement"`
	RoomID   string    `gorm:"type:uuid;not null;index"`
	UserID   string    `gorm:"size:64;not null;index"`
	Name     string    `gorm:"size:128;not null"`
	JoinedAt time.Time `gorm:"column:joined_at;not null"`
}

func (RoomPlayer) TableName() string { return "room_players" }
