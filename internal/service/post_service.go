package service

import (
	"context"
	"strings"

	"liberty/internal/models"
	"liberty/internal/repository"
)

// PostService handles feed post business logic.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	commRepo repository.CommunityRepository
	authz    *AuthzService
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, commRepo repository.CommunityRepository, authz *AuthzService) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo, commRepo: commRepo, authz: authz}
}

// CreatePostInput carries a new post. CommunityID nil means the global feed.
type CreatePostInput struct {
	UserID      uint
	Content     string
	ImageURL    string
	CommunityID *uint
}

const maxPostLen = 5000

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Post content is required")
	}
	if len(content) > maxPostLen {
		return nil, models.NewValidationError("Post too long (max 5000 characters)")
	}

	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if author.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot post")
	}

	if in.CommunityID != nil {
		role, err := s.authz.ResolveCommunityRole(ctx, *in.CommunityID, in.UserID)
		if err != nil {
			return nil, err
		}
		if role == models.CommunityRoleBanned {
			return nil, models.NewForbiddenError("You are banned from this community")
		}
		if role == "" {
			return nil, models.NewForbiddenError("Join the community before posting")
		}
	}

	post := &models.Post{
		Content:     content,
		ImageURL:    in.ImageURL,
		UserID:      in.UserID,
		CommunityID: in.CommunityID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

func (s *PostService) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, limit, offset)
}

func (s *PostService) ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetByCommunityID(ctx, communityID, limit, offset)
}

func (s *PostService) Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.postRepo.Search(ctx, query, limit, offset)
}

// Delete removes a post. Allowed for the author, global staff, and
// moderators of the post's community.
func (s *PostService) Delete(ctx context.Context, viewerID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	allowed := post.UserID == viewerID
	if !allowed {
		viewer, err := s.userRepo.GetByID(ctx, viewerID)
		if err != nil {
			return err
		}
		allowed = viewer.IsGlobalStaff()
	}
	if !allowed && post.CommunityID != nil {
		allowed, err = s.authz.CanModerateCommunity(ctx, *post.CommunityID, viewerID)
		if err != nil {
			return err
		}
	}
	if !allowed {
		return models.NewForbiddenError("Not allowed to delete this post")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
