package server

import (
	"liberty/internal/models"
	"liberty/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/reports
// @Summary File an abuse report
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Report
// @Router /api/reports [post]
func (s *Server) CreateReport(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		TargetType string `json:"target_type"`
		TargetID   string `json:"target_id"`
		Reason     string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.File(c.UserContext(), service.FileReportInput{
		ReporterID: userID,
		TargetType: models.ReportTargetType(req.TargetType),
		TargetID:   req.TargetID,
		Reason:     req.Reason,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	// New filings appear live on the staff dashboard.
	s.publishModerationEvent(EventReportFiled, map[string]interface{}{
		"report_id":   report.ID,
		"target_type": report.TargetType,
		"target_id":   report.TargetID,
	})

	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReports handles GET /api/admin/reports?status=...
func (s *Server) GetReports(c *fiber.Ctx) error {
	userID := currentUserID(c)
	status := models.ReportStatus(c.Query("status", string(models.ReportStatusPending)))
	page := parsePagination(c, 20)

	reports, err := s.reportService.List(c.UserContext(), userID, status, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(reports)
}

// GetReport handles GET /api/admin/reports/:id. The response includes a
// point-in-time snapshot of whatever the report points at.
func (s *Server) GetReport(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, snapshot, err := s.reportService.Inspect(c.UserContext(), userID, id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"report":   report,
		"snapshot": snapshot,
	})
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.reportService.Resolve(c.UserContext(), userID, id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishModerationEvent(EventReportResolved, map[string]interface{}{
		"report_id": report.ID,
		"staff_id":  userID,
	})

	return c.JSON(report)
}

// DismissReport handles POST /api/admin/reports/:id/dismiss
func (s *Server) DismissReport(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.reportService.Dismiss(c.UserContext(), userID, id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishModerationEvent(EventReportDismissed, map[string]interface{}{
		"report_id": report.ID,
		"staff_id":  userID,
	})

	return c.JSON(report)
}
