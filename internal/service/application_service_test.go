package service

import (
	"context"
	"strings"
	"testing"

	"liberty/internal/models"
	"liberty/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newApplicationService(db *gorm.DB) *ApplicationService {
	userRepo := repository.NewUserRepository(db)
	authz := NewAuthzService(userRepo, repository.NewCommunityRepository(db))
	return NewApplicationService(repository.NewApplicationRepository(db), userRepo, authz)
}

func TestApplicationService_Submit_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	applicant := seedUser(t, db, "applicant", models.GlobalRoleCivilian)
	ctx := context.Background()

	t.Run("Unknown type", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: "vip", Content: "please"})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
	})

	t.Run("Empty content", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeVerification})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
	})

	t.Run("Content too long", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitInput{
			UserID:  applicant.ID,
			Type:    models.ApplicationTypeVerification,
			Content: strings.Repeat("a", 2001),
		})
		require.Error(t, err)
	})
}

func TestApplicationService_Submit_DuplicatePending(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	applicant := seedUser(t, db, "applicant", models.GlobalRoleCivilian)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitInput{
		UserID:  applicant.ID,
		Type:    models.ApplicationTypeVerification,
		Content: "https://example.com/profile, 50k followers",
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, SubmitInput{
		UserID:  applicant.ID,
		Type:    models.ApplicationTypeVerification,
		Content: "asking again",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", err.(*models.AppError).Code)

	// A different type is fine while the first is still pending.
	_, err = svc.Submit(ctx, SubmitInput{
		UserID:  applicant.ID,
		Type:    models.ApplicationTypeStaff,
		Content: "I want to help moderate",
	})
	assert.NoError(t, err)

	mine, err := svc.ListMine(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestApplicationService_ListPending_QueueVisibility(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	applicant := seedUser(t, db, "applicant", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)
	owner := seedUser(t, db, "owner", models.GlobalRoleOwner)

	_, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeVerification, Content: "verify me"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeStaff, Content: "hire me"})
	require.NoError(t, err)

	// Moderators never see staff applications in their queue.
	modQueue, err := svc.ListPending(ctx, mod.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, modQueue, 1)
	assert.Equal(t, models.ApplicationTypeVerification, modQueue[0].Type)

	ownerQueue, err := svc.ListPending(ctx, owner.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, ownerQueue, 2)

	_, err = svc.ListPending(ctx, applicant.ID, 20, 0)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
}

func TestApplicationService_Review_Verification(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	applicant := seedUser(t, db, "applicant", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)

	app, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeVerification, Content: "verify me"})
	require.NoError(t, err)

	decided, err := svc.Review(ctx, mod.ID, app.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, decided.Status)
	require.NotNil(t, decided.ReviewedByUserID)
	assert.Equal(t, mod.ID, *decided.ReviewedByUserID)

	var user models.User
	require.NoError(t, db.First(&user, applicant.ID).Error)
	assert.True(t, user.HasBadge(models.BadgeInfluencer))
	// Badge grant never promotes the tier.
	assert.Equal(t, models.GlobalRoleCivilian, user.EffectiveGlobalRole())

	t.Run("Already decided", func(t *testing.T) {
		_, err := svc.Review(ctx, mod.ID, app.ID, false)
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", err.(*models.AppError).Code)

		var after models.Application
		require.NoError(t, db.First(&after, app.ID).Error)
		assert.Equal(t, models.ApplicationStatusApproved, after.Status)
	})
}

func TestApplicationService_Review_BadgeNotDuplicated(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	applicant := seedUser(t, db, "applicant", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)

	first, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeVerification, Content: "one"})
	require.NoError(t, err)
	_, err = svc.Review(ctx, mod.ID, first.ID, true)
	require.NoError(t, err)

	second, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeVerification, Content: "two"})
	require.NoError(t, err)
	_, err = svc.Review(ctx, mod.ID, second.ID, true)
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, applicant.ID).Error)
	count := 0
	for _, b := range user.Badges {
		if b == models.BadgeInfluencer {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestApplicationService_Review_StaffOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	applicant := seedUser(t, db, "applicant", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)
	admin := seedUser(t, db, "admin", models.GlobalRoleAdmin)
	owner := seedUser(t, db, "owner", models.GlobalRoleOwner)

	app, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeStaff, Content: "hire me"})
	require.NoError(t, err)

	for _, viewer := range []*models.User{mod, admin} {
		_, err := svc.Review(ctx, viewer.ID, app.ID, true)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	}

	decided, err := svc.Review(ctx, owner.ID, app.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, decided.Status)

	var user models.User
	require.NoError(t, db.First(&user, applicant.ID).Error)
	assert.Equal(t, models.GlobalRoleModerator, user.EffectiveGlobalRole())
}

func TestApplicationService_Review_Reject(t *testing.T) {
	db := newTestDB(t)
	svc := newApplicationService(db)
	ctx := context.Background()

	applicant := seedUser(t, db, "applicant", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)

	app, err := svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeVerification, Content: "verify me"})
	require.NoError(t, err)

	decided, err := svc.Review(ctx, mod.ID, app.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, decided.Status)

	var user models.User
	require.NoError(t, db.First(&user, applicant.ID).Error)
	assert.False(t, user.HasBadge(models.BadgeInfluencer))

	// A rejection frees the applicant to re-apply.
	_, err = svc.Submit(ctx, SubmitInput{UserID: applicant.ID, Type: models.ApplicationTypeVerification, Content: "try again"})
	assert.NoError(t, err)
}
