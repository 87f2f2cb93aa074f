package model

import "time"

type Community struct {
	ID               uint64 `gorm:"primaryKey" json:"id"`
	Name             string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description      string `gorm:"type:text" json:"description"`
	CombinationLogic string `gorm:"size:3;not null;default:'AND'" json:"combinationLogic"`
	CreatorAddress   string `gorm:"size:42;not null;index" json:"creatorAddress"`
	MemberCount      int64  `gorm:"not null;default:0" json:"memberCount"`
	PostCount        int64  `gorm:"not null;default:0" json:"postCount"`

	Requirements []CommunityRequirement `gorm:"foreignKey:CommunityID" json:"requirements"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// CommunityRequirement is one required (type, value) badge pair. A
// single-badge community has exactly one row; multi-badge communities
// combine their rows with Community.CombinationLogic.
type CommunityRequirement struct {
	ID               uint64 `gorm:"primaryKey" json:"-"`
	CommunityID      uint64 `gorm:"not null;index;uniqueIndex:uk_comm_req" json:"-"`
	AttestationType  string `gorm:"size:16;not null;uniqueIndex:uk_comm_req" json:"attestationType"`
	AttestationValue string `gorm:"size:128;not null;uniqueIndex:uk_comm_req" json:"attestationValue"`

	CreatedAt time.Time `json:"-"`
}

func (CommunityRequirement) TableName() string {
	return "community_requirements"
}
