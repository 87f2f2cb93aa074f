package service

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"openbands/internal/repository/mysql"
)

// CounterReconciler periodically recomputes member_count, post_count and
// upvote_count from source rows. With the toggles transactional, drift can
// only come from out-of-band writes; this job bounds it.
type CounterReconciler struct {
	repo      *mysql.CounterReconcilerRepo
	batchSize int
	interval  time.Duration
}

func NewCounterReconciler(db *gorm.DB) *CounterReconciler {
	return &CounterReconciler{
		repo:      &mysql.CounterReconcilerRepo{DB: db},
		batchSize: 500,
		interval:  5 * time.Minute,
	}
}

func (r *CounterReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *CounterReconciler) reconcileOnce(ctx context.Context) {
	r.reconcileCommunities(ctx)
	r.reconcilePosts(ctx)
	r.reconcileComments(ctx)
}

func (r *CounterReconciler) reconcileCommunities(ctx context.Context) {
	var lastID uint64
	for {
		batch, next, err := r.repo.ListCommunities(ctx, r.batchSize, lastID)
		if err != nil {
			log.Printf("reconcile communities err: %v", err)
			return
		}
		if len(batch) == 0 {
			return
		}
		for _, c := range batch {
			members, err := r.repo.RealMemberCount(ctx, c.ID)
			if err != nil {
				continue
			}
			posts, err := r.repo.RealPostCount(ctx, c.ID)
			if err != nil {
				continue
			}
			if members != c.MemberCount || posts != c.PostCount {
				_ = r.repo.FixCommunityCounts(ctx, c.ID, members, posts)
			}
		}
		lastID = next
	}
}

func (r *CounterReconciler) reconcilePosts(ctx context.Context) {
	var lastID uint64
	for {
		batch, next, err := r.repo.ListPosts(ctx, r.batchSize, lastID)
		if err != nil {
			log.Printf("reconcile posts err: %v", err)
			return
		}
		if len(batch) == 0 {
			return
		}
		for _, p := range batch {
			real, err := r.repo.RealPostUpvotes(ctx, p.ID)
			if err != nil {
				continue
			}
			if real != p.UpvoteCount {
				_ = r.repo.FixPostUpvotes(ctx, p.ID, real)
			}
		}
		lastID = next
	}
}

func (r *CounterReconciler) reconcileComments(ctx context.Context) {
	var lastID uint64
	for {
		batch, next, err := r.repo.ListComments(ctx, r.batchSize, lastID)
		if err != nil {
			log.Printf("reconcile comments err: %v", err)
			return
		}
		if len(batch) == 0 {
			return
		}
		for _, c := range batch {
			real, err := r.repo.RealCommentUpvotes(ctx, c.ID)
			if err != nil {
				continue
			}
			if real != c.UpvoteCount {
				_ = r.repo.FixCommentUpvotes(ctx, c.ID, real)
			}
		}
		lastID = next
	}
}
