package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"openbands/internal/model"
)

func TestCreateCommunityValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommunityService(db)
	ctx := context.Background()

	oneReq := []model.CommunityRequirement{
		{AttestationType: model.AttestationCompany, AttestationValue: "acme.com"},
	}

	_, err := svc.CreateCommunity(ctx, testWallet, "", "", "AND", oneReq)
	require.EqualError(t, err, "community name required")

	_, err = svc.CreateCommunity(ctx, testWallet, "x", "", "XOR", oneReq)
	require.EqualError(t, err, "combination logic must be AND or OR")

	_, err = svc.CreateCommunity(ctx, testWallet, "x", "", "AND", nil)
	require.EqualError(t, err, "at least one badge requirement required")

	_, err = svc.CreateCommunity(ctx, testWallet, "x", "", "AND", []model.CommunityRequirement{
		{AttestationType: "starsign", AttestationValue: "leo"},
	})
	require.Error(t, err)

	_, err = svc.CreateCommunity(ctx, testWallet, "x", "", "AND", []model.CommunityRequirement{
		{AttestationType: model.AttestationAge, AttestationValue: ""},
	})
	require.EqualError(t, err, "attestation value required")
}

func TestCreateCommunityDefaultsToAND(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommunityService(db)

	c, err := svc.CreateCommunity(context.Background(), testWallet, "devs", "", "", []model.CommunityRequirement{
		{AttestationType: model.AttestationCompany, AttestationValue: "acme.com"},
	})
	require.NoError(t, err)
	require.Equal(t, model.CombinationAND, c.CombinationLogic)
	require.EqualValues(t, 1, c.MemberCount)
}

func TestGetCommunity(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommunityService(db)
	ctx := context.Background()

	c := mustCreateCommunity(t, db, "devs", model.CombinationAND,
		model.CommunityRequirement{AttestationType: model.AttestationCompany, AttestationValue: "acme.com"},
	)
	mustJoinDirect(t, db, c.ID, testWallet)

	got, isMember, err := svc.GetCommunity(ctx, c.ID, testWallet)
	require.NoError(t, err)
	require.Equal(t, "devs", got.Name)
	require.Len(t, got.Requirements, 1)
	require.True(t, isMember)

	_, isMember, err = svc.GetCommunity(ctx, c.ID, otherWallet)
	require.NoError(t, err)
	require.False(t, isMember)

	_, _, err = svc.GetCommunity(ctx, 9999, "")
	require.ErrorIs(t, err, ErrCommunityNotFound)
}

func TestListCommunitiesValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommunityService(db)

	_, _, err := svc.ListCommunities(context.Background(), "starsign", "", 1, 20)
	require.Error(t, err)

	list, total, err := svc.ListCommunities(context.Background(), "", "newest", 0, 0)
	require.NoError(t, err)
	require.Empty(t, list)
	require.Zero(t, total)
}
