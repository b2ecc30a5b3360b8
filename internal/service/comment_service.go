package service

import (
	"context"
	"strings"

	"liberty/internal/models"
	"liberty/internal/repository"
)

// CommentService handles comment business logic.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

// NewCommentService returns a new CommentService.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, userRepo repository.UserRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, userRepo: userRepo}
}

const maxCommentLen = 2000

func (s *CommentService) Create(ctx context.Context, userID, postID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if author.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot comment")
	}

	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: content,
		PostID:  postID,
		UserID:  userID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.commentRepo.GetByPostID(ctx, postID, limit, offset)
}

// Delete removes a comment. Allowed for the author and global staff.
func (s *CommentService) Delete(ctx context.Context, viewerID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != viewerID {
		viewer, err := s.userRepo.GetByID(ctx, viewerID)
		if err != nil {
			return err
		}
		if !viewer.IsGlobalStaff() {
			return models.NewForbiddenError("Not allowed to delete this comment")
		}
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
