package model

import "time"

// Membership is unique per (community, lowercased wallet). The badge that
// admitted the member is snapshotted at join time; the row is the
// authorization boundary for posting afterwards.
type Membership struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	CommunityID   uint64 `gorm:"not null;index;uniqueIndex:uk_community_member" json:"communityId"`
	MemberAddress string `gorm:"size:42;not null;index;uniqueIndex:uk_community_member" json:"memberAddress"`

	AttestationValue      string    `gorm:"size:128" json:"attestationValue"`
	AttestationVerifiedAt time.Time `json:"attestationVerifiedAt"`

	IsActive bool `gorm:"not null;default:true" json:"isActive"`

	CreatedAt time.Time `json:"joinedAt"`
	UpdatedAt time.Time `json:"-"`
}

func (Membership) TableName() string {
	return "memberships"
}
