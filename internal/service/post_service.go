package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"openbands/internal/chain"
	"openbands/internal/model"
	"openbands/internal/repository/mysql"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

type PostService struct {
	repo     *mysql.PostRepository
	comments *mysql.CommentRepository
	authz    *AuthzService
}

func NewPostService(db *gorm.DB, reader chain.Reader) *PostService {
	return &PostService{
		repo:     &mysql.PostRepository{DB: db},
		comments: &mysql.CommentRepository{DB: db},
		authz:    NewAuthzService(db, reader),
	}
}

func (s *PostService) CreatePost(ctx context.Context, wallet string, communityID uint64, title, content string) (*model.Post, error) {
	if title == "" {
		return nil, errors.New("title required")
	}

	ok, reason, err := s.authz.CanPost(ctx, wallet, communityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &DeniedError{Reason: reason}
	}

	post := &model.Post{
		CommunityID:   communityID,
		AuthorAddress: wallet,
		Title:         title,
		Content:       content,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListByCommunity(ctx context.Context, communityID uint64, page, size int) ([]model.Post, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	offset := (page - 1) * size
	return s.repo.ListByCommunity(ctx, communityID, offset, size)
}

// ListByCommunityCursor pages with a (created_at, id) cursor; zero values
// mean first page. Returns the cursor for the next page.
func (s *PostService) ListByCommunityCursor(ctx context.Context, communityID uint64, lastID uint64, lastCreatedAt int64, size int) ([]model.Post, uint64, int64, error) {
	if size <= 0 || size > 50 {
		size = 20
	}
	list, err := s.repo.ListByCommunityCursor(ctx, communityID, lastID, lastCreatedAt, size)
	if err != nil {
		return nil, 0, 0, err
	}
	var nextID uint64
	var nextTS int64
	if len(list) > 0 {
		last := list[len(list)-1]
		nextID = last.ID
		nextTS = last.CreatedAt.Unix()
	}
	return list, nextID, nextTS, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint64) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// CreateComment requires membership in the post's community, same boundary
// as posting.
func (s *PostService) CreateComment(ctx context.Context, wallet string, postID uint64, content string) (*model.Comment, error) {
	if content == "" {
		return nil, errors.New("content required")
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ok, reason, err := s.authz.CanPost(ctx, wallet, post.CommunityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &DeniedError{Reason: reason}
	}

	comment := &model.Comment{
		PostID:        postID,
		CommunityID:   post.CommunityID,
		AuthorAddress: wallet,
		Content:       content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *PostService) ListComments(ctx context.Context, postID uint64, page, size int) ([]model.Comment, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	offset := (page - 1) * size
	return s.comments.ListByPost(ctx, postID, offset, size)
}
