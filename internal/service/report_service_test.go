package service

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"liberty/internal/models"
	"liberty/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReportService(db *gorm.DB) *ReportService {
	userRepo := repository.NewUserRepository(db)
	commRepo := repository.NewCommunityRepository(db)
	authz := NewAuthzService(userRepo, commRepo)
	return NewReportService(
		repository.NewReportRepository(db),
		userRepo,
		repository.NewPostRepository(db),
		repository.NewCommentRepository(db),
		repository.NewChatRepository(db),
		commRepo,
		authz,
	)
}

func TestReportService_File_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	reporter := seedUser(t, db, "reporter", models.GlobalRoleCivilian)
	ctx := context.Background()

	t.Run("Unknown target type", func(t *testing.T) {
		_, err := svc.File(ctx, FileReportInput{
			ReporterID: reporter.ID,
			TargetType: "video",
			TargetID:   "1",
			Reason:     "spam",
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
	})

	t.Run("Missing target id", func(t *testing.T) {
		_, err := svc.File(ctx, FileReportInput{
			ReporterID: reporter.ID,
			TargetType: models.ReportTargetPost,
			Reason:     "spam",
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
	})

	t.Run("Blank reason", func(t *testing.T) {
		_, err := svc.File(ctx, FileReportInput{
			ReporterID: reporter.ID,
			TargetType: models.ReportTargetPost,
			TargetID:   "1",
			Reason:     "   ",
		})
		require.Error(t, err)
	})

	t.Run("Reason too long", func(t *testing.T) {
		_, err := svc.File(ctx, FileReportInput{
			ReporterID: reporter.ID,
			TargetType: models.ReportTargetPost,
			TargetID:   "1",
			Reason:     strings.Repeat("a", 501),
		})
		require.Error(t, err)
	})
}

func TestReportService_File_DoesNotCheckTargetExists(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	reporter := seedUser(t, db, "reporter", models.GlobalRoleCivilian)

	// Filing against a post that never existed still succeeds; review-time
	// snapshots render the missing-content placeholder.
	report, err := svc.File(context.Background(), FileReportInput{
		ReporterID: reporter.ID,
		TargetType: models.ReportTargetPost,
		TargetID:   "99999",
		Reason:     "spam",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
}

func TestReportService_List_RequiresStaff(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	civilian := seedUser(t, db, "civilian", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)
	ctx := context.Background()

	_, err := svc.List(ctx, civilian.ID, models.ReportStatusPending, 20, 0)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)

	_, err = svc.List(ctx, mod.ID, models.ReportStatusPending, 20, 0)
	assert.NoError(t, err)
}

func TestReportService_Inspect_Snapshot(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	ctx := context.Background()

	author := seedUser(t, db, "author", models.GlobalRoleCivilian)
	reporter := seedUser(t, db, "reporter", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)

	post := &models.Post{UserID: author.ID, Content: "offensive content"}
	require.NoError(t, db.Create(post).Error)

	report, err := svc.File(ctx, FileReportInput{
		ReporterID: reporter.ID,
		TargetType: models.ReportTargetPost,
		TargetID:   strconv.FormatUint(uint64(post.ID), 10),
		Reason:     "offensive",
	})
	require.NoError(t, err)

	t.Run("Live target", func(t *testing.T) {
		got, snap, err := svc.Inspect(ctx, mod.ID, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.ID, got.ID)
		assert.True(t, snap.Found)
		assert.Equal(t, "offensive content", snap.Content)
		assert.Equal(t, "author", snap.AuthorUsername)
	})

	t.Run("Deleted target", func(t *testing.T) {
		require.NoError(t, db.Delete(&models.Post{}, post.ID).Error)

		got, snap, err := svc.Inspect(ctx, mod.ID, report.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusPending, got.Status)
		assert.False(t, snap.Found)
		assert.Equal(t, "Content not found or deleted.", snap.Content)
	})

	t.Run("Civilian forbidden", func(t *testing.T) {
		_, _, err := svc.Inspect(ctx, reporter.ID, report.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})

	t.Run("User target gets the fixed label", func(t *testing.T) {
		userReport, err := svc.File(ctx, FileReportInput{
			ReporterID: reporter.ID,
			TargetType: models.ReportTargetUser,
			TargetID:   strconv.FormatUint(uint64(author.ID), 10),
			Reason:     "impersonation",
		})
		require.NoError(t, err)

		_, snap, err := svc.Inspect(ctx, mod.ID, userReport.ID)
		require.NoError(t, err)
		assert.True(t, snap.Found)
		assert.Equal(t, "User Profile Report", snap.Content)
		require.NotNil(t, snap.AuthorID)
		assert.Equal(t, author.ID, *snap.AuthorID)
		assert.Equal(t, "author", snap.AuthorUsername)
	})
}

func TestReportService_Resolve_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	ctx := context.Background()

	reporter := seedUser(t, db, "reporter", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)
	admin := seedUser(t, db, "admin", models.GlobalRoleAdmin)

	report, err := svc.File(ctx, FileReportInput{
		ReporterID: reporter.ID,
		TargetType: models.ReportTargetUser,
		TargetID:   "1",
		Reason:     "harassment",
	})
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedByUserID)
	assert.Equal(t, mod.ID, *resolved.ResolvedByUserID)
	assert.NotNil(t, resolved.ResolvedAt)

	// A second click, or a competing dismiss, lands on the already-closed
	// report and must not rewrite the disposition.
	again, err := svc.Resolve(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, again.Status)
	assert.Equal(t, mod.ID, *again.ResolvedByUserID)

	dismissed, err := svc.Dismiss(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, dismissed.Status)
}

func TestReportService_Dismiss(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	ctx := context.Background()

	reporter := seedUser(t, db, "reporter", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)

	report, err := svc.File(ctx, FileReportInput{
		ReporterID: reporter.ID,
		TargetType: models.ReportTargetChat,
		TargetID:   "5",
		Reason:     "spam",
	})
	require.NoError(t, err)

	got, err := svc.Dismiss(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, got.Status)

	pending, err := svc.List(ctx, mod.ID, models.ReportStatusPending, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	dismissed, err := svc.List(ctx, mod.ID, models.ReportStatusDismissed, 20, 0)
	require.NoError(t, err)
	assert.Len(t, dismissed, 1)
}

func TestReportService_Warn(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	ctx := context.Background()

	target := seedUser(t, db, "target", models.GlobalRoleCivilian)
	mod := seedUser(t, db, "mod", models.GlobalRoleModerator)

	count, err := svc.Warn(ctx, mod.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), count)

	count, err = svc.Warn(ctx, mod.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), count)

	t.Run("Civilian forbidden", func(t *testing.T) {
		_, err := svc.Warn(ctx, target.ID, mod.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})

	t.Run("Unknown target", func(t *testing.T) {
		_, err := svc.Warn(ctx, mod.ID, 99999)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", err.(*models.AppError).Code)
	})
}
