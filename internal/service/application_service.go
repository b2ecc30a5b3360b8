package service

import (
	"context"
	"log/slog"

	"liberty/internal/models"
	"liberty/internal/observability"
	"liberty/internal/repository"
)

// ApplicationService runs the verification and staff application queue.
type ApplicationService struct {
	appRepo  repository.ApplicationRepository
	userRepo repository.UserRepository
	authz    *AuthzService
}

// NewApplicationService returns a new ApplicationService.
func NewApplicationService(appRepo repository.ApplicationRepository, userRepo repository.UserRepository, authz *AuthzService) *ApplicationService {
	return &ApplicationService{appRepo: appRepo, userRepo: userRepo, authz: authz}
}

// SubmitInput carries a new application. Content is the applicant's
// free-form pitch, typically a link plus a reason.
type SubmitInput struct {
	UserID  uint
	Type    models.ApplicationType
	Content string
}

// Submit files a new pending application. A user may not hold two pending
// applications of the same type at once.
func (s *ApplicationService) Submit(ctx context.Context, in SubmitInput) (*models.Application, error) {
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Unknown application type")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Application content is required")
	}
	if len(in.Content) > 2000 {
		return nil, models.NewValidationError("Application content too long (max 2000 characters)")
	}

	existing, err := s.appRepo.ListByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	for _, app := range existing {
		if app.Type == in.Type && app.Status == models.ApplicationStatusPending {
			return nil, models.NewConflictError("You already have a pending application of this type")
		}
	}

	app := &models.Application{
		UserID:  in.UserID,
		Type:    in.Type,
		Content: in.Content,
		Status:  models.ApplicationStatusPending,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "application submitted", "application_id", app.ID, "type", app.Type)
	return app, nil
}

// ListMine returns the caller's own applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, userID uint) ([]models.Application, error) {
	return s.appRepo.ListByUser(ctx, userID)
}

// ListPending returns the pending queue visible to the viewer. The owner
// sees both types; other staff see only verification applications, enforced
// in the query itself.
func (s *ApplicationService) ListPending(ctx context.Context, viewerID uint, limit, offset int) ([]models.Application, error) {
	viewer, err := s.authz.RequireStaff(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	ownerView := viewer.EffectiveGlobalRole() == models.GlobalRoleOwner
	return s.appRepo.ListPending(ctx, ownerView, limit, offset)
}

// Review decides a pending application. Approving a verification grants the
// influencer badge; approving a staff application promotes to moderator and
// is owner-only. Deciding an already-decided application returns a conflict
// and changes nothing.
func (s *ApplicationService) Review(ctx context.Context, viewerID, appID uint, approve bool) (*models.Application, error) {
	viewer, err := s.authz.RequireStaff(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Type == models.ApplicationTypeStaff && viewer.EffectiveGlobalRole() != models.GlobalRoleOwner {
		return nil, models.NewForbiddenError("Only the owner reviews staff applications")
	}

	status := models.ApplicationStatusRejected
	if approve {
		status = models.ApplicationStatusApproved
	}
	decided, err := s.appRepo.Decide(ctx, appID, status, viewerID)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, models.NewConflictError("Application already decided")
	}

	if approve {
		if err := s.applyApproval(ctx, app); err != nil {
			return nil, err
		}
	}

	observability.ModerationEventsTotal.WithLabelValues("application_" + string(status)).Inc()
	slog.InfoContext(ctx, "application decided",
		"application_id", appID,
		"type", app.Type,
		"status", status,
		"reviewer_id", viewerID,
	)
	return s.appRepo.GetByID(ctx, appID)
}

// applyApproval applies the side effect of an approval. Granting a badge the
// user already holds is a no-op, so re-running an approval cannot duplicate
// badges.
func (s *ApplicationService) applyApproval(ctx context.Context, app *models.Application) error {
	user, err := s.userRepo.GetByID(ctx, app.UserID)
	if err != nil {
		return err
	}
	switch app.Type {
	case models.ApplicationTypeVerification:
		if user.HasBadge(models.BadgeInfluencer) {
			return nil
		}
		badges := append([]string(user.Badges), models.BadgeInfluencer)
		return s.userRepo.SetBadges(ctx, user.ID, badges)
	case models.ApplicationTypeStaff:
		if user.IsGlobalStaff() {
			return nil
		}
		return s.userRepo.SetGlobalRole(ctx, user.ID, models.GlobalRoleModerator)
	}
	return nil
}
