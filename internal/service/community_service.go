package service

import (
	"context"
	"strings"

	"liberty/internal/models"
	"liberty/internal/repository"
)

// CommunityService handles community lifecycle and membership.
type CommunityService struct {
	commRepo repository.CommunityRepository
	userRepo repository.UserRepository
	authz    *AuthzService
}

// NewCommunityService returns a new CommunityService.
func NewCommunityService(commRepo repository.CommunityRepository, userRepo repository.UserRepository, authz *AuthzService) *CommunityService {
	return &CommunityService{commRepo: commRepo, userRepo: userRepo, authz: authz}
}

// CreateCommunityInput carries a new community.
type CreateCommunityInput struct {
	CreatorID   uint
	Name        string
	Description string
	Image       string
	Banner      string
}

func (s *CommunityService) Create(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Community name is required")
	}
	if len(name) > 120 {
		return nil, models.NewValidationError("Community name too long (max 120 characters)")
	}

	creator, err := s.userRepo.GetByID(ctx, in.CreatorID)
	if err != nil {
		return nil, err
	}
	if creator.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot create communities")
	}

	community := &models.Community{
		Name:        name,
		Description: in.Description,
		Image:       in.Image,
		Banner:      in.Banner,
		CreatorID:   in.CreatorID,
	}
	if err := s.commRepo.Create(ctx, community); err != nil {
		return nil, models.NewInternalError(err)
	}
	return community, nil
}

func (s *CommunityService) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	return s.commRepo.GetByID(ctx, id)
}

func (s *CommunityService) List(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	return s.commRepo.List(ctx, limit, offset)
}

func (s *CommunityService) Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.commRepo.Search(ctx, query, limit, offset)
}

// Join adds the caller as a member. Joining while banned from the community
// is refused; joining twice is a no-op.
func (s *CommunityService) Join(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error) {
	if _, err := s.commRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	existing, err := s.commRepo.GetMembership(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role == models.CommunityRoleBanned {
			return nil, models.NewForbiddenError("You are banned from this community")
		}
		return existing, nil
	}

	membership := &models.CommunityMembership{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.CommunityRoleMember,
	}
	if err := s.commRepo.UpsertMembership(ctx, membership); err != nil {
		return nil, err
	}
	return membership, nil
}

// Leave removes the caller's membership. The creator cannot leave their own
// community.
func (s *CommunityService) Leave(ctx context.Context, communityID, userID uint) error {
	community, err := s.commRepo.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if community.CreatorID == userID {
		return models.NewValidationError("The creator cannot leave their own community")
	}
	return s.commRepo.RemoveMembership(ctx, communityID, userID)
}

// SetMemberRole changes a member's community role. Requires community admin
// (the creator counts) or global staff. The creator's computed admin role
// cannot be changed.
func (s *CommunityService) SetMemberRole(ctx context.Context, communityID, viewerID, targetID uint, role models.CommunityRole) (*models.CommunityMembership, error) {
	switch role {
	case models.CommunityRoleMember, models.CommunityRoleModerator, models.CommunityRoleAdmin, models.CommunityRoleBanned:
	default:
		return nil, models.NewValidationError("Unknown community role")
	}

	community, err := s.commRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community.CreatorID == targetID {
		return nil, models.NewValidationError("The creator's role cannot be changed")
	}

	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsGlobalStaff() {
		viewerRole, err := s.authz.ResolveCommunityRole(ctx, communityID, viewerID)
		if err != nil {
			return nil, err
		}
		if viewerRole != models.CommunityRoleAdmin {
			return nil, models.NewForbiddenError("Community admin access required")
		}
	}

	membership := &models.CommunityMembership{
		CommunityID: communityID,
		UserID:      targetID,
		Role:        role,
	}
	if err := s.commRepo.UpsertMembership(ctx, membership); err != nil {
		return nil, err
	}
	return membership, nil
}

// SetNickname sets the caller's per-community display name.
func (s *CommunityService) SetNickname(ctx context.Context, communityID, userID uint, nickname string) (*models.CommunityMembership, error) {
	if len(nickname) > 64 {
		return nil, models.NewValidationError("Nickname too long (max 64 characters)")
	}
	membership, err := s.commRepo.GetMembership(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Role == models.CommunityRoleBanned {
		return nil, models.NewForbiddenError("Not a member of this community")
	}
	membership.Nickname = nickname
	if err := s.commRepo.UpsertMembership(ctx, membership); err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *CommunityService) ListMembers(ctx context.Context, communityID uint, limit, offset int) ([]*models.CommunityMembership, error) {
	if _, err := s.commRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.commRepo.ListMembers(ctx, communityID, limit, offset)
}

// Delete removes a community. Creator or global staff only.
func (s *CommunityService) Delete(ctx context.Context, viewerID, communityID uint) error {
	community, err := s.commRepo.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if community.CreatorID != viewerID {
		viewer, err := s.userRepo.GetByID(ctx, viewerID)
		if err != nil {
			return err
		}
		if !viewer.IsGlobalStaff() {
			return models.NewForbiddenError("Not allowed to delete this community")
		}
	}
	return s.commRepo.Delete(ctx, communityID)
}
