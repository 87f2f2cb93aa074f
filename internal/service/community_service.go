package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"openbands/internal/model"
	"openbands/internal/repository/mysql"
)

type CommunityService struct {
	repo    *mysql.CommunityRepository
	members *mysql.MembershipRepository
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{
		repo:    &mysql.CommunityRepository{DB: db},
		members: &mysql.MembershipRepository{DB: db},
	}
}

func (s *CommunityService) CreateCommunity(ctx context.Context, creator, name, desc, logic string, reqs []model.CommunityRequirement) (*model.Community, error) {
	if name == "" {
		return nil, errors.New("community name required")
	}
	if logic == "" {
		logic = model.CombinationAND
	}
	if !model.IsValidCombinationLogic(logic) {
		return nil, errors.New("combination logic must be AND or OR")
	}
	if len(reqs) == 0 {
		return nil, errors.New("at least one badge requirement required")
	}
	for _, r := range reqs {
		if !model.IsValidAttestationType(r.AttestationType) {
			return nil, errors.New("invalid attestation type: " + r.AttestationType)
		}
		if r.AttestationValue == "" {
			return nil, errors.New("attestation value required")
		}
	}

	community := &model.Community{
		Name:             name,
		Description:      desc,
		CombinationLogic: logic,
		CreatorAddress:   creator,
		Requirements:     reqs,
	}

	return s.repo.Create(ctx, community)
}

// GetCommunity also reports whether the optional wallet is a member.
func (s *CommunityService) GetCommunity(ctx context.Context, id uint64, wallet string) (*model.Community, bool, error) {
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCommunityNotFound
		}
		return nil, false, err
	}

	var isMember bool
	if wallet != "" {
		if isMember, err = s.members.IsMember(ctx, id, wallet); err != nil {
			return nil, false, err
		}
	}
	return community, isMember, nil
}

func (s *CommunityService) ListCommunities(ctx context.Context, attestationType, sort string, page, limit int) ([]model.Community, int64, error) {
	if attestationType != "" && !model.IsValidAttestationType(attestationType) {
		return nil, 0, errors.New("invalid attestation type: " + attestationType)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit
	return s.repo.List(ctx, attestationType, sort, offset, limit)
}
