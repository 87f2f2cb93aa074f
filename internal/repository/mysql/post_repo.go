package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"openbands/internal/model"
)

type PostRepository struct {
	DB *gorm.DB
}

// Create inserts the post and bumps the community post_count in one
// transaction.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return tx.Model(&model.Community{}).
			Where("id = ?", post.CommunityID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ? AND status = 0", id).Error
	return &post, err
}

func (r *PostRepository) ListByCommunity(ctx context.Context, communityID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = 0", communityID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListByCommunityCursor pages with a (created_at, id) cursor; index
// (community_id, created_at DESC). Zero cursor means first page.
func (r *PostRepository) ListByCommunityCursor(ctx context.Context, communityID uint64, lastID uint64, lastCreatedAt int64, limit int) ([]model.Post, error) {
	q := r.DB.WithContext(ctx).Where("community_id = ? AND status = 0", communityID)
	if lastCreatedAt > 0 {
		cursor := time.Unix(lastCreatedAt, 0)
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor, cursor, lastID)
	}
	var list []model.Post
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}
