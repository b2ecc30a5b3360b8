package server

import (
	"liberty/internal/models"
	"liberty/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateApplication handles POST /api/applications
// @Summary Submit a verification or staff application
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Application
// @Router /api/applications [post]
func (s *Server) CreateApplication(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.applicationService.Submit(c.UserContext(), service.SubmitInput{
		UserID:  userID,
		Type:    models.ApplicationType(req.Type),
		Content: req.Content,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishModerationEvent(EventApplicationFiled, map[string]interface{}{
		"application_id": app.ID,
		"type":           app.Type,
		"applicant_id":   app.UserID,
	})

	return c.Status(fiber.StatusCreated).JSON(app)
}

// GetMyApplications handles GET /api/applications/me
func (s *Server) GetMyApplications(c *fiber.Ctx) error {
	userID := currentUserID(c)

	apps, err := s.applicationService.ListMine(c.UserContext(), userID)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(apps)
}

// GetPendingApplications handles GET /api/admin/applications. Staff see the
// verification queue; the owner additionally sees staff applications.
func (s *Server) GetPendingApplications(c *fiber.Ctx) error {
	userID := currentUserID(c)
	page := parsePagination(c, 20)

	apps, err := s.applicationService.ListPending(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(apps)
}

// ApproveApplication handles POST /api/admin/applications/:id/approve
func (s *Server) ApproveApplication(c *fiber.Ctx) error {
	return s.reviewApplication(c, true)
}

// RejectApplication handles POST /api/admin/applications/:id/reject
func (s *Server) RejectApplication(c *fiber.Ctx) error {
	return s.reviewApplication(c, false)
}

func (s *Server) reviewApplication(c *fiber.Ctx, approve bool) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.applicationService.Review(c.UserContext(), userID, id, approve)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	// The applicant hears the outcome on their personal channel.
	s.publishUserEvent(app.UserID, EventApplicationResult, map[string]interface{}{
		"application_id": app.ID,
		"type":           app.Type,
		"status":         app.Status,
	})
	s.publishModerationEvent(EventApplicationResult, map[string]interface{}{
		"application_id": app.ID,
		"type":           app.Type,
		"status":         app.Status,
		"staff_id":       userID,
	})

	return c.JSON(app)
}
