package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"openbands/internal/chain"
	"openbands/internal/model"
	"openbands/internal/repository/mysql"
)

var ErrRateLimited = errors.New("too many join attempts, retry later")

// RateLimiter is injectable so the join path works the same against the
// shared redis window or the in-process limiter used in tests.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type MembershipService struct {
	authz   *AuthzService
	reader  chain.Reader
	members *mysql.MembershipRepository
	limiter RateLimiter
}

func NewMembershipService(db *gorm.DB, reader chain.Reader, limiter RateLimiter) *MembershipService {
	return &MembershipService{
		authz:   NewAuthzService(db, reader),
		reader:  reader,
		members: &mysql.MembershipRepository{DB: db},
		limiter: limiter,
	}
}

func (s *MembershipService) Authz() *AuthzService { return s.authz }

// Join runs the full admission flow: rate limit, authorize, re-read the
// badge for the snapshot, idempotent insert. A second join by the same
// wallet returns the existing membership without error.
func (s *MembershipService) Join(ctx context.Context, wallet string, communityID uint64) (*model.Membership, error) {
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, wallet)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRateLimited
		}
	}

	d, err := s.authz.CanJoin(ctx, wallet, communityID)
	if err != nil {
		return nil, err
	}
	if !d.CanJoin {
		if d.Community == nil {
			return nil, ErrCommunityNotFound
		}
		return nil, &DeniedError{Reason: d.Reason}
	}

	// Snapshot the badge with a fresh read so the stored value reflects
	// registry state at insert time, not at check time.
	var attValue string
	var verifiedAt time.Time
	if d.MatchedType != "" {
		rec, err := s.reader.GetRecord(ctx, d.MatchedType, wallet)
		if err != nil {
			return nil, err
		}
		if rec == nil || !rec.IsActive {
			return nil, &DeniedError{Reason: fmt.Sprintf("%s badge is no longer active", d.MatchedType)}
		}
		attValue = rec.Value
		verifiedAt = rec.VerifiedAt
	}

	m, _, err := s.members.Join(ctx, communityID, wallet, attValue, verifiedAt)
	return m, err
}

// Leave is idempotent: leaving a community you are not in succeeds and
// reports changed=false.
func (s *MembershipService) Leave(ctx context.Context, wallet string, communityID uint64) (bool, error) {
	return s.members.Leave(ctx, communityID, wallet)
}

func (s *MembershipService) IsMember(ctx context.Context, wallet string, communityID uint64) (bool, error) {
	return s.members.IsMember(ctx, communityID, wallet)
}
