package model

import "time"

// Upvote targets either a post or a comment, never both. Presence of a row
// means "has upvoted"; uniqueness per (target, user) is enforced by the
// partial-style unique indexes below (NULL target columns stay out of the
// opposite index).
type Upvote struct {
	ID          uint64  `gorm:"primaryKey" json:"id"`
	PostID      *uint64 `gorm:"index;uniqueIndex:uk_post_vote" json:"postId,omitempty"`
	CommentID   *uint64 `gorm:"index;uniqueIndex:uk_comment_vote" json:"commentId,omitempty"`
	UserAddress string  `gorm:"size:42;not null;uniqueIndex:uk_post_vote;uniqueIndex:uk_comment_vote" json:"userAddress"`
	CommunityID uint64  `gorm:"not null;index" json:"communityId"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Upvote) TableName() string {
	return "upvotes"
}
