package service

import (
	"context"
	"log/slog"
	"strconv"

	"liberty/internal/models"
	"liberty/internal/observability"
	"liberty/internal/repository"
	"liberty/internal/validation"
)

// ReportService implements the abuse report ledger: filing, the staff
// review queue, on-demand content snapshots, and terminal dispositions.
type ReportService struct {
	reportRepo  repository.ReportRepository
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	chatRepo    repository.ChatRepository
	commRepo    repository.CommunityRepository
	authz       *AuthzService
}

// NewReportService returns a new ReportService.
func NewReportService(
	reportRepo repository.ReportRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	chatRepo repository.ChatRepository,
	commRepo repository.CommunityRepository,
	authz *AuthzService,
) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		chatRepo:    chatRepo,
		commRepo:    commRepo,
		authz:       authz,
	}
}

// FileReportInput carries a new report. TargetID is the target's native key
// already stringified by the handler.
type FileReportInput struct {
	ReporterID uint
	TargetType models.ReportTargetType
	TargetID   string
	Reason     string
}

// File records a new pending report. Target existence is not checked at
// filing time; the snapshot at review time reflects whatever state the
// target is in then.
func (s *ReportService) File(ctx context.Context, in FileReportInput) (*models.Report, error) {
	if !in.TargetType.Valid() {
		return nil, models.NewValidationError("Unknown report target type")
	}
	if in.TargetID == "" {
		return nil, models.NewValidationError("Report target id is required")
	}
	if err := validation.ValidateReportReason(in.Reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	report := &models.Report{
		ReporterID: in.ReporterID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Reason:     in.Reason,
		Status:     models.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	observability.ModerationEventsTotal.WithLabelValues("report_filed").Inc()
	slog.InfoContext(ctx, "report filed",
		"report_id", report.ID,
		"target_type", report.TargetType,
		"target_id", report.TargetID,
	)
	return report, nil
}

// List returns reports in the given status for the staff dashboard, newest
// first.
func (s *ReportService) List(ctx context.Context, viewerID uint, status models.ReportStatus, limit, offset int) ([]models.Report, error) {
	if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
		return nil, err
	}
	return s.reportRepo.ListByStatus(ctx, status, limit, offset)
}

// Inspect fetches the report plus a live snapshot of its target. A target
// deleted since filing yields Found=false rather than an error; the report
// itself stays reviewable.
func (s *ReportService) Inspect(ctx context.Context, viewerID, reportID uint) (*models.Report, *models.ReportSnapshot, error) {
	if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
		return nil, nil, err
	}
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	snapshot := s.snapshotTarget(ctx, report)
	return report, snapshot, nil
}

func (s *ReportService) snapshotTarget(ctx context.Context, report *models.Report) *models.ReportSnapshot {
	missing := &models.ReportSnapshot{Found: false, Content: "Content not found or deleted."}

	id64, err := strconv.ParseUint(report.TargetID, 10, 64)
	if err != nil {
		return missing
	}
	id := uint(id64)

	switch report.TargetType {
	case models.ReportTargetPost:
		post, err := s.postRepo.GetByID(ctx, id)
		if err != nil || post == nil {
			return missing
		}
		return &models.ReportSnapshot{
			Found:          true,
			Content:        post.Content,
			AuthorID:       &post.UserID,
			AuthorUsername: post.User.Username,
		}
	case models.ReportTargetComment:
		comment, err := s.commentRepo.GetByID(ctx, id)
		if err != nil || comment == nil {
			return missing
		}
		return &models.ReportSnapshot{
			Found:          true,
			Content:        comment.Content,
			AuthorID:       &comment.UserID,
			AuthorUsername: comment.User.Username,
		}
	case models.ReportTargetUser:
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil || user == nil {
			return missing
		}
		// Profiles have no single reportable text, so the snapshot carries a
		// fixed label and identifies the target through the author fields.
		return &models.ReportSnapshot{
			Found:          true,
			Content:        "User Profile Report",
			AuthorID:       &user.ID,
			AuthorUsername: user.Username,
		}
	case models.ReportTargetChat:
		msg, err := s.chatRepo.GetMessage(ctx, id)
		if err != nil || msg == nil {
			return missing
		}
		return &models.ReportSnapshot{
			Found:          true,
			Content:        msg.Content,
			AuthorID:       &msg.UserID,
			AuthorUsername: msg.User.Username,
		}
	case models.ReportTargetCommunity:
		community, err := s.commRepo.GetByID(ctx, id)
		if err != nil || community == nil {
			return missing
		}
		return &models.ReportSnapshot{
			Found:    true,
			Content:  community.Name + ": " + community.Description,
			AuthorID: &community.CreatorID,
		}
	}
	return missing
}

// Resolve marks a pending report resolved. Calling it again, or on a
// dismissed report, is a no-op that still succeeds.
func (s *ReportService) Resolve(ctx context.Context, viewerID, reportID uint) (*models.Report, error) {
	return s.close(ctx, viewerID, reportID, models.ReportStatusResolved)
}

// Dismiss marks a pending report dismissed without action.
func (s *ReportService) Dismiss(ctx context.Context, viewerID, reportID uint) (*models.Report, error) {
	return s.close(ctx, viewerID, reportID, models.ReportStatusDismissed)
}

func (s *ReportService) close(ctx context.Context, viewerID, reportID uint, status models.ReportStatus) (*models.Report, error) {
	if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
		return nil, err
	}
	transitioned, err := s.reportRepo.Transition(ctx, reportID, status, viewerID)
	if err != nil {
		return nil, err
	}
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if transitioned {
		observability.ModerationEventsTotal.WithLabelValues("report_" + string(status)).Inc()
		slog.InfoContext(ctx, "report closed",
			"report_id", reportID,
			"status", status,
			"reviewer_id", viewerID,
		)
	}
	return report, nil
}

// Warn increments the target user's warning counter atomically and returns
// the new count. Concurrent warnings never lose increments.
func (s *ReportService) Warn(ctx context.Context, viewerID, targetUserID uint) (uint, error) {
	if _, err := s.authz.RequireStaff(ctx, viewerID); err != nil {
		return 0, err
	}
	count, err := s.userRepo.IncrementWarningCount(ctx, targetUserID)
	if err != nil {
		return 0, err
	}
	observability.ModerationEventsTotal.WithLabelValues("user_warned").Inc()
	slog.InfoContext(ctx, "user warned",
		"target_user_id", targetUserID,
		"warning_count", count,
		"staff_id", viewerID,
	)
	return count, nil
}
