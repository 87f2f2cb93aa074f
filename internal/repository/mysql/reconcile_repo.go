package mysql

import (
	"context"

	"gorm.io/gorm"

	"openbands/internal/model"
)

// CounterReconcilerRepo recomputes denormalized counters from source rows.
// Used by the periodic reconciliation job; bounds counter drift from
// out-of-band writes or partial failures.
type CounterReconcilerRepo struct {
	DB *gorm.DB
}

type CommunityCounters struct {
	ID          uint64
	MemberCount int64
	PostCount   int64
}

type TargetCounter struct {
	ID          uint64
	UpvoteCount int64
}

func (r *CounterReconcilerRepo) ListCommunities(ctx context.Context, batchSize int, lastID uint64) ([]CommunityCounters, uint64, error) {
	var list []CommunityCounters
	if err := r.DB.WithContext(ctx).Model(&model.Community{}).
		Select("id", "member_count", "post_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

func (r *CounterReconcilerRepo) RealMemberCount(ctx context.Context, communityID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Membership{}).
		Where("community_id = ? AND is_active = ?", communityID, true).
		Count(&n).Error
	return n, err
}

func (r *CounterReconcilerRepo) RealPostCount(ctx context.Context, communityID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("community_id = ? AND status = 0", communityID).
		Count(&n).Error
	return n, err
}

func (r *CounterReconcilerRepo) FixCommunityCounts(ctx context.Context, communityID uint64, members, posts int64) error {
	return r.DB.WithContext(ctx).Model(&model.Community{}).
		Where("id = ?", communityID).
		UpdateColumns(map[string]any{"member_count": members, "post_count": posts}).Error
}

func (r *CounterReconcilerRepo) ListPosts(ctx context.Context, batchSize int, lastID uint64) ([]TargetCounter, uint64, error) {
	var list []TargetCounter
	if err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Select("id", "upvote_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

func (r *CounterReconcilerRepo) RealPostUpvotes(ctx context.Context, postID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Upvote{}).
		Where("post_id = ?", postID).
		Count(&n).Error
	return n, err
}

func (r *CounterReconcilerRepo) FixPostUpvotes(ctx context.Context, postID uint64, n int64) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumn("upvote_count", n).Error
}

func (r *CounterReconcilerRepo) ListComments(ctx context.Context, batchSize int, lastID uint64) ([]TargetCounter, uint64, error) {
	var list []TargetCounter
	if err := r.DB.WithContext(ctx).Model(&model.Comment{}).
		Select("id", "upvote_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

func (r *CounterReconcilerRepo) RealCommentUpvotes(ctx context.Context, commentID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Upvote{}).
		Where("comment_id = ?", commentID).
		Count(&n).Error
	return n, err
}

func (r *CounterReconcilerRepo) FixCommentUpvotes(ctx context.Context, commentID uint64, n int64) error {
	return r.DB.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("upvote_count", n).Error
}
