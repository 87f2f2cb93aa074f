package model

import "time"

type Comment struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	PostID        uint64    `gorm:"not null;index" json:"postId"`
	CommunityID   uint64    `gorm:"not null;index" json:"communityId"`
	AuthorAddress string    `gorm:"size:42;not null;index" json:"authorAddress"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Status        int       `gorm:"not null;default:0" json:"-"`
	UpvoteCount   int64     `gorm:"not null;default:0" json:"upvoteCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"-"`
}
