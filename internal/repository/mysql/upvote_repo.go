package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"openbands/internal/model"
)

type UpvoteRepository struct {
	DB *gorm.DB
}

// TogglePost flips the caller's upvote on a post. Row mutation, counter
// update (floored at 0) and outbox event run in one transaction; the
// returned count is read back inside the same transaction.
func (r *UpvoteRepository) TogglePost(ctx context.Context, address string, postID uint64) (bool, int64, error) {
	var upvoted bool
	var count int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.First(&post, "id = ? AND status = 0", postID).Error; err != nil {
			return err
		}

		var uv model.Upvote
		err := tx.Where("post_id = ? AND user_address = ?", postID, address).First(&uv).Error
		switch {
		case err == nil:
			if err := tx.Delete(&model.Upvote{}, uv.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Post{}).
				Where("id = ?", postID).
				UpdateColumn("upvote_count", gorm.Expr("CASE WHEN upvote_count > 0 THEN upvote_count - 1 ELSE 0 END")).
				Error; err != nil {
				return err
			}
			upvoted = false
			if err := insertOutbox(tx, "unvote", post.CommunityID, address, map[string]any{"post_id": postID}); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			pid := postID
			if err := tx.Create(&model.Upvote{
				PostID:      &pid,
				UserAddress: address,
				CommunityID: post.CommunityID,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Post{}).
				Where("id = ?", postID).
				UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1")).
				Error; err != nil {
				return err
			}
			upvoted = true
			if err := insertOutbox(tx, "upvote", post.CommunityID, address, map[string]any{"post_id": postID}); err != nil {
				return err
			}
		default:
			return err
		}

		var p model.Post
		if err := tx.Select("upvote_count").First(&p, postID).Error; err != nil {
			return err
		}
		count = p.UpvoteCount
		return nil
	})
	return upvoted, count, err
}

// ToggleComment is the comment analog of TogglePost.
func (r *UpvoteRepository) ToggleComment(ctx context.Context, address string, commentID uint64) (bool, int64, error) {
	var upvoted bool
	var count int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment model.Comment
		if err := tx.First(&comment, "id = ? AND status = 0", commentID).Error; err != nil {
			return err
		}

		var uv model.Upvote
		err := tx.Where("comment_id = ? AND user_address = ?", commentID, address).First(&uv).Error
		switch {
		case err == nil:
			if err := tx.Delete(&model.Upvote{}, uv.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Comment{}).
				Where("id = ?", commentID).
				UpdateColumn("upvote_count", gorm.Expr("CASE WHEN upvote_count > 0 THEN upvote_count - 1 ELSE 0 END")).
				Error; err != nil {
				return err
			}
			upvoted = false
			if err := insertOutbox(tx, "unvote", comment.CommunityID, address, map[string]any{"comment_id": commentID}); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			cid := commentID
			if err := tx.Create(&model.Upvote{
				CommentID:   &cid,
				UserAddress: address,
				CommunityID: comment.CommunityID,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Comment{}).
				Where("id = ?", commentID).
				UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1")).
				Error; err != nil {
				return err
			}
			upvoted = true
			if err := insertOutbox(tx, "upvote", comment.CommunityID, address, map[string]any{"comment_id": commentID}); err != nil {
				return err
			}
		default:
			return err
		}

		var c model.Comment
		if err := tx.Select("upvote_count").First(&c, commentID).Error; err != nil {
			return err
		}
		count = c.UpvoteCount
		return nil
	})
	return upvoted, count, err
}

func (r *UpvoteRepository) HasUpvotedPost(ctx context.Context, address string, postID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Upvote{}).
		Where("post_id = ? AND user_address = ?", postID, address).
		Count(&n).Error
	return n > 0, err
}

func (r *UpvoteRepository) PostUpvoteCount(ctx context.Context, postID uint64) (int64, error) {
	var p model.Post
	err := r.DB.WithContext(ctx).Select("id", "upvote_count").First(&p, postID).Error
	if err != nil {
		return 0, err
	}
	return p.UpvoteCount, nil
}
