package model

import "time"

type Post struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	CommunityID   uint64    `gorm:"not null;index:idx_comm_time_id,priority:1" json:"communityId"`
	AuthorAddress string    `gorm:"size:42;not null;index" json:"authorAddress"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text" json:"content"`
	Status        int       `gorm:"not null;default:0" json:"-"` // 0=normal 1=deleted
	UpvoteCount   int64     `gorm:"not null;default:0" json:"upvoteCount"`
	CreatedAt     time.Time `gorm:"index:idx_comm_time_id,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt     time.Time `json:"-"`
}
