package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"openbands/internal/chain"
	"openbands/internal/model"
)

func activeRecord(value string) *chain.Record {
	return &chain.Record{Value: value, VerifiedAt: time.Now().UTC(), IsActive: true}
}

func TestCanJoinOpenCommunity(t *testing.T) {
	db := newTestDB(t)
	c := mustCreateCommunity(t, db, "open", model.CombinationAND)
	authz := NewAuthzService(db, &fakeReader{})

	d, err := authz.CanJoin(context.Background(), testWallet, c.ID)
	require.NoError(t, err)
	require.True(t, d.CanJoin)
	require.Empty(t, d.MatchedType)
}

func TestCanJoinUnknownCommunity(t *testing.T) {
	db := newTestDB(t)
	authz := NewAuthzService(db, &fakeReader{})

	d, err := authz.CanJoin(context.Background(), testWallet, 9999)
	require.NoError(t, err)
	require.False(t, d.CanJoin)
	require.Equal(t, "community not found", d.Reason)
	require.Nil(t, d.Community)
}

func TestCanJoinAND(t *testing.T) {
	db := newTestDB(t)
	c := mustCreateCommunity(t, db, "fr-engineers", model.CombinationAND,
		model.CommunityRequirement{AttestationType: model.AttestationNationality, AttestationValue: "FR"},
		model.CommunityRequirement{AttestationType: model.AttestationCompany, AttestationValue: "example.com"},
	)

	tests := []struct {
		name    string
		records map[string]*chain.Record
		canJoin bool
		reason  string
	}{
		{
			name: "both badges satisfied",
			records: map[string]*chain.Record{
				model.AttestationNationality + "|" + testWallet: activeRecord("FR"),
				model.AttestationCompany + "|" + testWallet:     activeRecord("example.com"),
			},
			canJoin: true,
		},
		{
			name: "nationality badge missing",
			records: map[string]*chain.Record{
				model.AttestationCompany + "|" + testWallet: activeRecord("example.com"),
			},
			reason: "wallet has no nationality badge",
		},
		{
			name: "company badge inactive",
			records: map[string]*chain.Record{
				model.AttestationNationality + "|" + testWallet: activeRecord("FR"),
				model.AttestationCompany + "|" + testWallet:     {Value: "example.com", IsActive: false},
			},
			reason: "company badge is inactive",
		},
		{
			name: "nationality value mismatch",
			records: map[string]*chain.Record{
				model.AttestationNationality + "|" + testWallet: activeRecord("DE"),
				model.AttestationCompany + "|" + testWallet:     activeRecord("example.com"),
			},
			reason: "nationality badge value does not match the community requirement",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			authz := NewAuthzService(db, &fakeReader{records: tc.records})
			d, err := authz.CanJoin(context.Background(), testWallet, c.ID)
			require.NoError(t, err)
			require.Equal(t, tc.canJoin, d.CanJoin)
			if !tc.canJoin {
				require.Equal(t, tc.reason, d.Reason)
			}
		})
	}
}

func TestCanJoinOR(t *testing.T) {
	db := newTestDB(t)
	c := mustCreateCommunity(t, db, "fr-or-de", model.CombinationOR,
		model.CommunityRequirement{AttestationType: model.AttestationNationality, AttestationValue: "FR"},
		model.CommunityRequirement{AttestationType: model.AttestationAge, AttestationValue: "18+"},
	)

	t.Run("second pair admits", func(t *testing.T) {
		authz := NewAuthzService(db, &fakeReader{records: map[string]*chain.Record{
			model.AttestationAge + "|" + testWallet: activeRecord("18+"),
		}})
		d, err := authz.CanJoin(context.Background(), testWallet, c.ID)
		require.NoError(t, err)
		require.True(t, d.CanJoin)
		require.Equal(t, model.AttestationAge, d.MatchedType)
	})

	t.Run("no pair admits, reason lists every deny", func(t *testing.T) {
		authz := NewAuthzService(db, &fakeReader{records: map[string]*chain.Record{
			model.AttestationNationality + "|" + testWallet: activeRecord("DE"),
		}})
		d, err := authz.CanJoin(context.Background(), testWallet, c.ID)
		require.NoError(t, err)
		require.False(t, d.CanJoin)
		require.Contains(t, d.Reason, "nationality badge value does not match")
		require.Contains(t, d.Reason, "wallet has no age badge")
	})
}

func TestCanJoinRegistryFailure(t *testing.T) {
	db := newTestDB(t)
	c := mustCreateCommunity(t, db, "needs-chain", model.CombinationAND,
		model.CommunityRequirement{AttestationType: model.AttestationCompany, AttestationValue: "example.com"},
	)
	authz := NewAuthzService(db, &fakeReader{err: chain.ErrUnavailable})

	// Registry trouble is an error, never a deny.
	_, err := authz.CanJoin(context.Background(), testWallet, c.ID)
	require.ErrorIs(t, err, chain.ErrUnavailable)
}

func TestCanPost(t *testing.T) {
	db := newTestDB(t)
	c := mustCreateCommunity(t, db, "members-only", model.CombinationAND,
		model.CommunityRequirement{AttestationType: model.AttestationCompany, AttestationValue: "example.com"},
	)
	authz := NewAuthzService(db, &fakeReader{})

	ok, reason, err := authz.CanPost(context.Background(), testWallet, c.ID)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "not a member of this community", reason)

	mustJoinDirect(t, db, c.ID, testWallet)

	ok, _, err = authz.CanPost(context.Background(), testWallet, c.ID)
	require.NoError(t, err)
	require.True(t, ok)
}
