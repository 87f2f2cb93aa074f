package model

import "time"

// EventOutbox rows are written in the same transaction as the state change
// they describe and drained to kafka by the relayer.
type EventOutbox struct {
	ID          uint64 `gorm:"primaryKey"`
	EventType   string `gorm:"size:32;not null"` // join / leave / upvote / unvote
	CommunityID uint64 `gorm:"not null;index"`
	Address     string `gorm:"size:42;not null"`
	Payload     string `gorm:"type:json;not null"`
	Status      int8   `gorm:"not null;default:0;index"` // 0=pending,1=sent,2=failed
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (EventOutbox) TableName() string { return "event_outbox" }
