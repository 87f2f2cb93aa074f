package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"openbands/internal/chain"
	"openbands/internal/repository/mysql"
	"openbands/internal/repository/redis"
)

type UpvoteService struct {
	repo     *mysql.UpvoteRepository
	posts    *mysql.PostRepository
	comments *mysql.CommentRepository
	authz    *AuthzService
	cache    *redis.VoteCacheRepository
	lock     *redis.DistLock
}

func NewUpvoteService(db *gorm.DB, reader chain.Reader, cache *redis.VoteCacheRepository, lock *redis.DistLock) *UpvoteService {
	return &UpvoteService{
		repo:     &mysql.UpvoteRepository{DB: db},
		posts:    &mysql.PostRepository{DB: db},
		comments: &mysql.CommentRepository{DB: db},
		authz:    NewAuthzService(db, reader),
		cache:    cache,
		lock:     lock,
	}
}

// TogglePost flips the wallet's upvote and returns the new state and
// count. The store write is transactional; the cache update afterwards is
// best-effort under the per-target lock, degraded to a count-key delete on
// contention.
func (s *UpvoteService) TogglePost(ctx context.Context, wallet string, postID uint64) (bool, int64, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, ErrPostNotFound
		}
		return false, 0, err
	}

	ok, reason, err := s.authz.CanPost(ctx, wallet, post.CommunityID)
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return false, 0, &DeniedError{Reason: reason}
	}

	upvoted, count, err := s.repo.TogglePost(ctx, wallet, postID)
	if err != nil {
		return false, 0, err
	}

	s.refreshCache(ctx, redis.KindPost, postID, wallet, upvoted, count)
	return upvoted, count, nil
}

// ToggleComment is the comment analog of TogglePost.
func (s *UpvoteService) ToggleComment(ctx context.Context, wallet string, commentID uint64) (bool, int64, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, ErrCommentNotFound
		}
		return false, 0, err
	}

	ok, reason, err := s.authz.CanPost(ctx, wallet, comment.CommunityID)
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return false, 0, &DeniedError{Reason: reason}
	}

	upvoted, count, err := s.repo.ToggleComment(ctx, wallet, commentID)
	if err != nil {
		return false, 0, err
	}

	s.refreshCache(ctx, redis.KindComment, commentID, wallet, upvoted, count)
	return upvoted, count, nil
}

func (s *UpvoteService) refreshCache(ctx context.Context, kind string, targetID uint64, wallet string, upvoted bool, count int64) {
	if s.cache == nil {
		return
	}
	s.cache.WarmHasVoted(ctx, kind, targetID, wallet, upvoted)

	// The toggle returned the authoritative count; write it through under
	// the lock, or drop the key and let the read side rebuild.
	token := fmt.Sprintf("%s-%d-%d", wallet, targetID, time.Now().UnixNano())
	if s.lock == nil {
		_ = s.cache.SetCount(ctx, kind, targetID, count)
		return
	}
	got, _ := s.lock.Acquire(ctx, kind, targetID, token)
	if got {
		defer s.lock.Release(ctx, kind, targetID, token)
		_ = s.cache.SetCount(ctx, kind, targetID, count)
	} else {
		_ = s.cache.DeleteCount(ctx, kind, targetID)
	}
}

// GetPostUpvoteCount reads through the cache with the lock guarding the
// rebuild, so a cold key does not send every reader to the store at once.
func (s *UpvoteService) GetPostUpvoteCount(ctx context.Context, wallet string, postID uint64) (int64, error) {
	if s.cache != nil {
		if v, ok, err := s.cache.GetCountCached(ctx, redis.KindPost, postID); err == nil && ok {
			return v, nil
		}
	}

	load := func() (int64, error) {
		v, err := s.repo.PostUpvoteCount(ctx, postID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrPostNotFound
			}
			return 0, err
		}
		return v, nil
	}

	if s.cache == nil || s.lock == nil {
		return load()
	}

	token := fmt.Sprintf("%s-%d-%d", wallet, postID, time.Now().UnixNano())
	got, _ := s.lock.Acquire(ctx, redis.KindPost, postID, token)
	if got {
		defer s.lock.Release(ctx, redis.KindPost, postID, token)

		// Double check under the lock.
		if v, ok, err := s.cache.GetCountCached(ctx, redis.KindPost, postID); err == nil && ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return 0, err
		}
		_ = s.cache.SetCount(ctx, redis.KindPost, postID, v)
		return v, nil
	}

	// Lost the race to rebuild; back off briefly and retry the cache once.
	time.Sleep(50 * time.Millisecond)
	if v, ok, err := s.cache.GetCountCached(ctx, redis.KindPost, postID); err == nil && ok {
		return v, nil
	}
	return load()
}

// HasUpvotedPost prefers the cached set and falls back to the store,
// warming the set on the way out.
func (s *UpvoteService) HasUpvotedPost(ctx context.Context, wallet string, postID uint64) (bool, error) {
	if s.cache != nil {
		if b, ok, err := s.cache.HasVotedCached(ctx, redis.KindPost, postID, wallet); err == nil && ok {
			return b, nil
		}
	}
	b, err := s.repo.HasUpvotedPost(ctx, wallet, postID)
	if err == nil && s.cache != nil {
		s.cache.WarmHasVoted(ctx, redis.KindPost, postID, wallet, b)
	}
	return b, err
}
