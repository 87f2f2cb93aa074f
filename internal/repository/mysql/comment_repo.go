package mysql

import (
	"context"

	"gorm.io/gorm"

	"openbands/internal/model"
)

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.DB.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var comment model.Comment
	err := r.DB.WithContext(ctx).First(&comment, "id = ? AND status = 0", id).Error
	return &comment, err
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID uint64, offset, limit int) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Where("post_id = ? AND status = 0", postID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}
