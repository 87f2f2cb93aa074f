package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"openbands/internal/model"
)

func TestOutboxDrain(t *testing.T) {
	db := newTestDB(t)
	c := mustCreateCommunity(t, db, "open", model.CombinationAND)
	svc := NewMembershipService(db, &fakeReader{}, nil)
	ctx := context.Background()

	_, err := svc.Join(ctx, testWallet, c.ID)
	require.NoError(t, err)
	_, err = svc.Leave(ctx, testWallet, c.ID)
	require.NoError(t, err)

	var sent []string
	relayer := NewOutboxRelayer(db, func(_ context.Context, ob *model.EventOutbox) error {
		sent = append(sent, ob.EventType)
		return nil
	})
	relayer.drainOnce(ctx)

	require.Equal(t, []string{"join", "leave"}, sent)

	var pending int64
	require.NoError(t, db.Model(&model.EventOutbox{}).Where("status = 0").Count(&pending).Error)
	require.Zero(t, pending)

	// Nothing left for the next tick.
	relayer.drainOnce(ctx)
	require.Len(t, sent, 2)
}

func TestOutboxSendFailureMarksRetry(t *testing.T) {
	db := newTestDB(t)
	c := mustCreateCommunity(t, db, "open", model.CombinationAND)
	svc := NewMembershipService(db, &fakeReader{}, nil)
	ctx := context.Background()

	_, err := svc.Join(ctx, testWallet, c.ID)
	require.NoError(t, err)

	relayer := NewOutboxRelayer(db, func(context.Context, *model.EventOutbox) error {
		return errors.New("broker down")
	})
	relayer.drainOnce(ctx)

	var failed []model.EventOutbox
	require.NoError(t, db.Where("status = 2").Find(&failed).Error)
	require.Len(t, failed, 1)
	require.EqualValues(t, 1, failed[0].Retry)
}
