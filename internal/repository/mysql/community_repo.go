package mysql

import (
	"context"

	"gorm.io/gorm"

	"openbands/internal/model"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Sort orders accepted by List.
const (
	SortNewest  = "newest"
	SortPopular = "popular"
	SortActive  = "active"
)

// Create inserts the community with its requirement rows and admits the
// creator as the first member, all in one transaction.
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) (*model.Community, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		m := &model.Membership{
			CommunityID:   c.ID,
			MemberAddress: c.CreatorAddress,
			IsActive:      true,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if err := adjustMemberCount(tx, c.ID, +1); err != nil {
			return err
		}
		c.MemberCount = 1
		return insertOutbox(tx, "join", c.ID, c.CreatorAddress, map[string]any{"creator": true})
	})
	return c, err
}

func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).Preload("Requirements").First(&community, id).Error
	return &community, err
}

func (r *CommunityRepository) FindByName(ctx context.Context, name string) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).Preload("Requirements").Where("name = ?", name).First(&community).Error
	return &community, err
}

// List returns a page of communities, optionally filtered by required
// attestation type, plus the total for pagination.
func (r *CommunityRepository) List(ctx context.Context, attestationType, sort string, offset, limit int) ([]model.Community, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Community{})
	if attestationType != "" {
		sub := r.DB.Model(&model.CommunityRequirement{}).
			Select("community_id").
			Where("attestation_type = ?", attestationType)
		q = q.Where("id IN (?)", sub)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sort {
	case SortPopular:
		q = q.Order("member_count DESC, id DESC")
	case SortActive:
		q = q.Order("post_count DESC, id DESC")
	default: // newest
		q = q.Order("created_at DESC, id DESC")
	}

	var list []model.Community
	err := q.Preload("Requirements").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}
