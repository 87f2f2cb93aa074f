package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"openbands/internal/chain"
	"openbands/internal/handler"
	"openbands/internal/model"
	"openbands/internal/repository/mysql"
	"openbands/internal/router"
	"openbands/internal/service"
)

const (
	memberWallet   = "0x00000000000000000000000000000000000000aa"
	strangerWallet = "0x00000000000000000000000000000000000000bb"
)

type fakeReader struct {
	records map[string]*chain.Record
	calls   int
}

func (f *fakeReader) GetRecord(_ context.Context, attestationType, wallet string) (*chain.Record, error) {
	f.calls++
	return f.records[attestationType+"|"+wallet], nil
}

type stubLimiter struct {
	allow bool
}

func (s *stubLimiter) Allow(context.Context, string) (bool, error) { return s.allow, nil }

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	reader *fakeReader
}

func newTestServer(t *testing.T, limiter service.RateLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, mysql.Migrate(db))

	reader := &fakeReader{records: map[string]*chain.Record{}}

	communitySvc := service.NewCommunityService(db)
	membershipSvc := service.NewMembershipService(db, reader, limiter)
	postSvc := service.NewPostService(db, reader)
	upvoteSvc := service.NewUpvoteService(db, reader, nil, nil)

	engine := router.InitRouter(router.Handlers{
		Community: handler.NewCommunityHandler(communitySvc, membershipSvc),
		Post:      handler.NewPostHandler(postSvc),
		Upvote:    handler.NewUpvoteHandler(upvoteSvc),
		Verify:    handler.NewVerifyHandler(nil),
	})

	return &testServer{engine: engine, db: db, reader: reader}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (s *testServer) seedCommunity(t *testing.T, reqs ...model.CommunityRequirement) *model.Community {
	t.Helper()
	c := &model.Community{
		Name:             fmt.Sprintf("community-%d", time.Now().UnixNano()),
		CombinationLogic: model.CombinationAND,
		CreatorAddress:   "0x00000000000000000000000000000000000000ff",
		Requirements:     reqs,
	}
	require.NoError(t, s.db.Create(c).Error)
	return c
}

func (s *testServer) admit(t *testing.T, communityID uint64, wallet string) {
	t.Helper()
	repo := &mysql.MembershipRepository{DB: s.db}
	_, _, err := repo.Join(context.Background(), communityID, wallet, "", time.Time{})
	require.NoError(t, err)
}

func TestJoinInvalidAddressRejectedEarly(t *testing.T) {
	s := newTestServer(t, nil)
	s.seedCommunity(t)

	w, out := s.do(t, http.MethodPost, "/api/communities/1/join", gin.H{"walletAddress": "not-an-address"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid wallet address", out["msg"])

	// Neither the registry nor the membership table was touched.
	require.Zero(t, s.reader.calls)
	var rows int64
	require.NoError(t, s.db.Model(&model.Membership{}).Count(&rows).Error)
	require.Zero(t, rows)
}

func TestJoinHappyPathAndIdempotency(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.seedCommunity(t, model.CommunityRequirement{
		AttestationType:  model.AttestationCompany,
		AttestationValue: "acme.com",
	})
	s.reader.records[model.AttestationCompany+"|"+memberWallet] = &chain.Record{
		Value: "acme.com", VerifiedAt: time.Now().UTC(), IsActive: true,
	}

	path := fmt.Sprintf("/api/communities/%d/join", c.ID)

	w, out := s.do(t, http.MethodPost, path, gin.H{"walletAddress": memberWallet})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])
	membership := out["membership"].(map[string]any)
	require.EqualValues(t, c.ID, membership["communityId"])
	firstID := membership["id"]

	w, out = s.do(t, http.MethodPost, path, gin.H{"walletAddress": memberWallet})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, firstID, out["membership"].(map[string]any)["id"])
}

func TestJoinDenied(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.seedCommunity(t, model.CommunityRequirement{
		AttestationType:  model.AttestationCompany,
		AttestationValue: "acme.com",
	})

	w, out := s.do(t, http.MethodPost, fmt.Sprintf("/api/communities/%d/join", c.ID),
		gin.H{"walletAddress": strangerWallet})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, false, out["success"])
	require.Equal(t, "wallet has no company badge", out["reason"])
}

func TestJoinUnknownCommunity(t *testing.T) {
	s := newTestServer(t, nil)

	w, out := s.do(t, http.MethodPost, "/api/communities/9999/join", gin.H{"walletAddress": memberWallet})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "community not found", out["msg"])
}

func TestJoinRateLimited(t *testing.T) {
	s := newTestServer(t, &stubLimiter{allow: false})
	c := s.seedCommunity(t)

	w, out := s.do(t, http.MethodPost, fmt.Sprintf("/api/communities/%d/join", c.ID),
		gin.H{"walletAddress": memberWallet})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, out["msg"])
}

func TestUpvoteToggleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.seedCommunity(t)
	s.admit(t, c.ID, memberWallet)

	p := &model.Post{CommunityID: c.ID, AuthorAddress: memberWallet, Title: "hello"}
	require.NoError(t, s.db.Create(p).Error)

	path := fmt.Sprintf("/api/communities/%d/posts/%d/upvote", c.ID, p.ID)

	w, out := s.do(t, http.MethodPost, path, gin.H{"walletAddress": memberWallet})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["upvoted"])
	require.EqualValues(t, 1, out["upvoteCount"])

	w, out = s.do(t, http.MethodPost, path, gin.H{"walletAddress": memberWallet})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, out["upvoted"])
	require.EqualValues(t, 0, out["upvoteCount"])

	// Non-members cannot vote.
	w, out = s.do(t, http.MethodPost, path, gin.H{"walletAddress": strangerWallet})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "not a member of this community", out["reason"])

	// Unknown post is a 404, not a 500.
	w, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/communities/%d/posts/9999/upvote", c.ID),
		gin.H{"walletAddress": memberWallet})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommunityGetAndList(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.seedCommunity(t, model.CommunityRequirement{
		AttestationType:  model.AttestationAge,
		AttestationValue: "18+",
	})
	s.admit(t, c.ID, memberWallet)

	w, out := s.do(t, http.MethodGet,
		fmt.Sprintf("/api/communities/%d?walletAddress=%s", c.ID, memberWallet), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["isMember"])
	community := out["community"].(map[string]any)
	require.EqualValues(t, c.ID, community["id"])

	w, out = s.do(t, http.MethodGet, "/api/communities?sort=popular", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, out["total"])
	require.EqualValues(t, 1, out["page"])
	require.EqualValues(t, 20, out["limit"])
	require.Len(t, out["communities"], 1)

	w, _ = s.do(t, http.MethodGet, "/api/communities/9999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostAndCommentFlow(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.seedCommunity(t)
	s.admit(t, c.ID, memberWallet)

	base := fmt.Sprintf("/api/communities/%d/posts", c.ID)

	// Non-members cannot post.
	w, _ := s.do(t, http.MethodPost, base, gin.H{"walletAddress": strangerWallet, "title": "hi"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w, out := s.do(t, http.MethodPost, base, gin.H{
		"walletAddress": memberWallet,
		"title":         "first",
		"content":       "body",
	})
	require.Equal(t, http.StatusOK, w.Code)
	post := out["post"].(map[string]any)
	postID := uint64(post["id"].(float64))

	w, out = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out["posts"], 1)

	commentPath := fmt.Sprintf("%s/%d/comments", base, postID)
	w, out = s.do(t, http.MethodPost, commentPath, gin.H{"walletAddress": memberWallet, "content": "nice"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])

	w, out = s.do(t, http.MethodGet, commentPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out["comments"], 1)
}

func TestCreateCommunityOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	w, out := s.do(t, http.MethodPost, "/api/communities", gin.H{
		"walletAddress":    memberWallet,
		"name":             "zk-builders",
		"combinationLogic": "OR",
		"requirements": []gin.H{
			{"attestationType": "company", "attestationValue": "acme.com"},
			{"attestationType": "age", "attestationValue": "18+"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])
	community := out["community"].(map[string]any)
	require.EqualValues(t, 1, community["memberCount"])

	// The creator is already a member.
	id := uint64(community["id"].(float64))
	repo := &mysql.MembershipRepository{DB: s.db}
	ok, err := repo.IsMember(context.Background(), id, memberWallet)
	require.NoError(t, err)
	require.True(t, ok)

	w, _ = s.do(t, http.MethodPost, "/api/communities", gin.H{
		"walletAddress": memberWallet,
		"name":          "no-reqs",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
