package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"openbands/internal/chain"
	"openbands/internal/model"
	"openbands/internal/repository/mysql"
)

var ErrCommunityNotFound = errors.New("community not found")

// DeniedError carries the human-readable reason handed back on 403.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// Decision is the outcome of a canJoin check. When CanJoin is true,
// MatchedType names the requirement pair that admitted the wallet (the
// first satisfied one) so the join path knows which badge to snapshot.
type Decision struct {
	CanJoin     bool
	Reason      string
	Community   *model.Community
	MatchedType string
}

// AuthzService decides admit/deny against live registry state. Every check
// re-reads the chain; nothing is cached between checks.
type AuthzService struct {
	reader      chain.Reader
	communities *mysql.CommunityRepository
	memberships *mysql.MembershipRepository
}

func NewAuthzService(db *gorm.DB, reader chain.Reader) *AuthzService {
	return &AuthzService{
		reader:      reader,
		communities: &mysql.CommunityRepository{DB: db},
		memberships: &mysql.MembershipRepository{DB: db},
	}
}

// CanJoin evaluates every required (type, value) pair and combines the
// results with the community's AND/OR logic. Registry failures surface as
// errors, never as a deny.
func (s *AuthzService) CanJoin(ctx context.Context, wallet string, communityID uint64) (*Decision, error) {
	community, err := s.communities.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Decision{CanJoin: false, Reason: "community not found"}, nil
		}
		return nil, err
	}
	return s.evaluate(ctx, wallet, community)
}

func (s *AuthzService) evaluate(ctx context.Context, wallet string, community *model.Community) (*Decision, error) {
	d := &Decision{Community: community}

	// A community with no requirement rows is open.
	if len(community.Requirements) == 0 {
		d.CanJoin = true
		return d, nil
	}

	var denies []string
	for _, req := range community.Requirements {
		rec, err := s.reader.GetRecord(ctx, req.AttestationType, wallet)
		if err != nil {
			return nil, err
		}

		var deny string
		switch {
		case rec == nil:
			deny = fmt.Sprintf("wallet has no %s badge", req.AttestationType)
		case !rec.IsActive:
			deny = fmt.Sprintf("%s badge is inactive", req.AttestationType)
		case rec.Value != req.AttestationValue:
			deny = fmt.Sprintf("%s badge value does not match the community requirement", req.AttestationType)
		}

		if deny == "" {
			if d.MatchedType == "" {
				d.MatchedType = req.AttestationType
			}
			if community.CombinationLogic == model.CombinationOR {
				d.CanJoin = true
				return d, nil
			}
			continue
		}

		denies = append(denies, deny)
		if community.CombinationLogic != model.CombinationOR {
			// AND: first unmet pair settles it.
			d.Reason = deny
			return d, nil
		}
	}

	if community.CombinationLogic == model.CombinationOR {
		d.Reason = strings.Join(denies, "; ")
		return d, nil
	}

	d.CanJoin = true
	return d, nil
}

// CanPost gates posting, commenting and upvoting. Membership is the
// authorization boundary after join: the badge is not re-checked here.
func (s *AuthzService) CanPost(ctx context.Context, wallet string, communityID uint64) (bool, string, error) {
	ok, err := s.memberships.IsMember(ctx, communityID, wallet)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "not a member of this community", nil
	}
	return true, "", nil
}
