package service

import (
	"context"
	"log/slog"

	"liberty/internal/models"
	"liberty/internal/observability"
	"liberty/internal/repository"
)

// UserService provides profile reads and staff user management.
type UserService struct {
	userRepo repository.UserRepository
	authz    *AuthzService
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, authz *AuthzService) *UserService {
	return &UserService{userRepo: userRepo, authz: authz}
}

// UpdateProfileInput carries self-service profile edits. Empty fields are
// left unchanged.
type UpdateProfileInput struct {
	UserID    uint
	Name      string
	RoleLabel string
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return s.userRepo.Search(ctx, query, limit, offset)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxNameLen = 60
	const maxRoleLabelLen = 40

	if in.Name != "" {
		if len(in.Name) > maxNameLen {
			return nil, models.NewValidationError("Name too long (max 60 characters)")
		}
		user.Name = in.Name
	}
	if in.RoleLabel != "" {
		if len(in.RoleLabel) > maxRoleLabelLen {
			return nil, models.NewValidationError("Role label too long (max 40 characters)")
		}
		user.RoleLabel = in.RoleLabel
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetGlobalRole changes a user's authorization tier. Only the owner may
// grant or revoke admin and owner tiers; other staff tiers require admin.
func (s *UserService) SetGlobalRole(ctx context.Context, viewerID, targetID uint, role models.GlobalRole) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("Unknown role")
	}
	viewer, err := s.authz.RequireStaff(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	viewerRole := viewer.EffectiveGlobalRole()
	if viewerRole != models.GlobalRoleOwner && viewerRole != models.GlobalRoleAdmin {
		return nil, models.NewForbiddenError("Admin access required")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	touchesPrivileged := role == models.GlobalRoleAdmin || role == models.GlobalRoleOwner ||
		target.EffectiveGlobalRole() == models.GlobalRoleAdmin ||
		target.EffectiveGlobalRole() == models.GlobalRoleOwner
	if touchesPrivileged && viewerRole != models.GlobalRoleOwner {
		return nil, models.NewForbiddenError("Only the owner manages admin tiers")
	}

	if err := s.userRepo.SetGlobalRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	observability.ModerationEventsTotal.WithLabelValues("role_changed").Inc()
	slog.InfoContext(ctx, "global role changed",
		"target_user_id", targetID,
		"role", role,
		"staff_id", viewerID,
	)
	return s.userRepo.GetByID(ctx, targetID)
}

// SetBanned bans or unbans a user. Staff cannot ban other staff; demote
// first.
func (s *UserService) SetBanned(ctx context.Context, viewerID, targetID uint, banned bool, reason string) (*models.User, error) {
	if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if banned && target.IsGlobalStaff() {
		return nil, models.NewForbiddenError("Cannot ban a staff member")
	}

	if err := s.userRepo.SetBanned(ctx, targetID, banned, reason); err != nil {
		return nil, err
	}
	event := "user_unbanned"
	if banned {
		event = "user_banned"
	}
	observability.ModerationEventsTotal.WithLabelValues(event).Inc()
	slog.InfoContext(ctx, event, "target_user_id", targetID, "staff_id", viewerID)
	return s.userRepo.GetByID(ctx, targetID)
}

// DeleteAccount removes the user and everything they authored. Users may
// delete themselves; staff may delete anyone but staff.
func (s *UserService) DeleteAccount(ctx context.Context, viewerID, targetID uint) error {
	if viewerID != targetID {
		if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
			return err
		}
		target, err := s.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if target.IsGlobalStaff() {
			return models.NewForbiddenError("Cannot delete a staff account")
		}
	}
	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "account deleted", "target_user_id", targetID, "by_user_id", viewerID)
	return nil
}
