package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"liberty/internal/models"
	"liberty/internal/repository"
	"liberty/internal/validation"
)

// AuthzService resolves profiles and authorization tiers. Every staff-gated
// operation in the API funnels through this service so the staff check lives
// in exactly one place.
type AuthzService struct {
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository
}

// NewAuthzService returns a new AuthzService.
func NewAuthzService(userRepo repository.UserRepository, communityRepo repository.CommunityRepository) *AuthzService {
	return &AuthzService{userRepo: userRepo, communityRepo: communityRepo}
}

// EnsureProfile resolves the profile for an authenticated identity, creating
// one on first sight. New profiles start as civilians; the derived handle is
// the email local part, lowercased and stripped to handle-safe characters,
// with a numeric suffix on collision.
func (s *AuthzService) EnsureProfile(ctx context.Context, email, name string) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	handle := deriveHandle(email)
	for i := 0; ; i++ {
		candidate := handle
		if i > 0 {
			candidate = fmt.Sprintf("%s%d", handle, i)
		}
		taken, err := s.userRepo.GetByUsername(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if taken == nil {
			handle = candidate
			break
		}
	}

	user := &models.User{
		Username:   handle,
		Email:      email,
		Name:       name,
		GlobalRole: models.GlobalRoleCivilian,
		RoleLabel:  "Civilian",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "provisioned profile", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// RequireStaff loads the user and fails with a forbidden error unless their
// effective global role grants dashboard access.
func (s *AuthzService) RequireStaff(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsGlobalStaff() {
		return nil, models.NewForbiddenError("Staff access required")
	}
	return user, nil
}

// RequireOwner loads the user and fails unless they hold the owner tier.
func (s *AuthzService) RequireOwner(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EffectiveGlobalRole() != models.GlobalRoleOwner {
		return nil, models.NewForbiddenError("Owner access required")
	}
	return user, nil
}

// ResolveCommunityRole computes a user's role inside a community. The
// creator is admin whether or not a membership row exists; everyone else
// gets their membership row's role, or empty when they never joined.
func (s *AuthzService) ResolveCommunityRole(ctx context.Context, communityID, userID uint) (models.CommunityRole, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return "", err
	}
	if community.CreatorID == userID {
		return models.CommunityRoleAdmin, nil
	}
	membership, err := s.communityRepo.GetMembership(ctx, communityID, userID)
	if err != nil {
		return "", err
	}
	if membership == nil {
		return "", nil
	}
	return membership.Role, nil
}

// CanModerateCommunity reports whether the user may moderate the community.
// Global staff can moderate any community.
func (s *AuthzService) CanModerateCommunity(ctx context.Context, communityID, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.IsGlobalStaff() {
		return true, nil
	}
	role, err := s.ResolveCommunityRole(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	return role.CanModerate(), nil
}

func deriveHandle(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	handle := b.String()
	for len(handle) > 0 && (handle[0] < 'a' || handle[0] > 'z') {
		handle = handle[1:]
	}
	if len(handle) < validation.HandleMinLen {
		handle = "user" + handle
	}
	if len(handle) > validation.HandleMaxLen {
		handle = handle[:validation.HandleMaxLen]
	}
	handle = strings.TrimRight(handle, "_")
	return handle
}
