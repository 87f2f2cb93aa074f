package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"openbands/internal/chain"
	"openbands/internal/model"
	"openbands/internal/repository/mysql"
)

const (
	testWallet  = "0x00000000000000000000000000000000000000aa"
	otherWallet = "0x00000000000000000000000000000000000000bb"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, mysql.Migrate(db))
	return db
}

// fakeReader serves canned records keyed by "type|wallet". A nil entry or a
// missing key means no badge.
type fakeReader struct {
	records map[string]*chain.Record
	err     error
	calls   int
}

func (f *fakeReader) GetRecord(_ context.Context, attestationType, wallet string) (*chain.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records[attestationType+"|"+wallet], nil
}

// seqReader pops one response per call, for flows that read the registry
// more than once.
type seqReader struct {
	queue []*chain.Record
	errs  []error
}

func (s *seqReader) GetRecord(context.Context, string, string) (*chain.Record, error) {
	if len(s.queue) == 0 {
		return nil, nil
	}
	rec := s.queue[0]
	s.queue = s.queue[1:]
	var err error
	if len(s.errs) > 0 {
		err = s.errs[0]
		s.errs = s.errs[1:]
	}
	return rec, err
}

func mustCreateCommunity(t *testing.T, db *gorm.DB, name, logic string, reqs ...model.CommunityRequirement) *model.Community {
	t.Helper()
	c := &model.Community{
		Name:             name,
		CombinationLogic: logic,
		CreatorAddress:   "0x00000000000000000000000000000000000000ff",
		Requirements:     reqs,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func mustJoinDirect(t *testing.T, db *gorm.DB, communityID uint64, wallet string) {
	t.Helper()
	repo := &mysql.MembershipRepository{DB: db}
	_, _, err := repo.Join(context.Background(), communityID, wallet, "", time.Time{})
	require.NoError(t, err)
}
