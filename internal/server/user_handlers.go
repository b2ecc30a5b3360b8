package server

import (
	"io"
	"time"

	"liberty/internal/models"
	"liberty/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /api/users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Name      string `json:"name"`
		RoleLabel string `json:"role_label"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    userID,
		Name:      req.Name,
		RoleLabel: req.RoleLabel,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UploadAvatar handles POST /api/users/me/avatar
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	userID := currentUserID(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	user, err := s.avatarService.Upload(c.UserContext(), service.UploadAvatarInput{
		UserID:      userID,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"avatar": user.Avatar,
	})
}

// ServeAvatar handles GET /uploads/avatars/:filename
func (s *Server) ServeAvatar(c *fiber.Ctx) error {
	path, err := s.avatarService.ServePath(c.Params("filename"))
	if err != nil {
		return s.respondServiceError(c, err)
	}

	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendFile(path)
}

// DeleteMyAccount handles DELETE /api/users/me
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if err := s.userService.DeleteAccount(c.UserContext(), userID, userID); err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Account deleted"})
}

// SearchUsers handles GET /api/users/search?q=...
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	page := parsePagination(c, 10)
	users, err := s.userService.Search(c.UserContext(), q, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 20)
	posts, err := s.postService.ListByUser(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// WarnUser handles POST /api/admin/users/:id/warn
// @Summary Issue a formal warning to a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/users/{id}/warn [post]
func (s *Server) WarnUser(c *fiber.Ctx) error {
	staffID := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.reportService.Warn(c.UserContext(), staffID, targetID)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishUserEvent(targetID, EventWarningIssued, map[string]interface{}{
		"warning_count": count,
		"issued_at":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	s.publishModerationEvent(EventWarningIssued, map[string]interface{}{
		"target_user_id": targetID,
		"warning_count":  count,
		"staff_id":       staffID,
	})

	return c.JSON(fiber.Map{
		"user_id":       targetID,
		"warning_count": count,
	})
}

// BanUser handles POST /api/admin/users/:id/ban
func (s *Server) BanUser(c *fiber.Ctx) error {
	staffID := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Reason is optional; ignore parse failures on an empty body.
	_ = c.BodyParser(&req)

	user, err := s.userService.SetBanned(c.UserContext(), staffID, targetID, true, req.Reason)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishUserEvent(targetID, EventUserBanned, map[string]interface{}{
		"reason": req.Reason,
	})
	s.publishModerationEvent(EventUserBanned, map[string]interface{}{
		"target_user_id": targetID,
		"staff_id":       staffID,
		"reason":         req.Reason,
	})

	return c.JSON(user)
}

// UnbanUser handles POST /api/admin/users/:id/unban
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	staffID := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetBanned(c.UserContext(), staffID, targetID, false, "")
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishUserEvent(targetID, EventUserUnbanned, map[string]interface{}{})
	s.publishModerationEvent(EventUserUnbanned, map[string]interface{}{
		"target_user_id": targetID,
		"staff_id":       staffID,
	})

	return c.JSON(user)
}

// SetUserRole handles PUT /api/admin/users/:id/role
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	staffID := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SetGlobalRole(c.UserContext(), staffID, targetID, models.GlobalRole(req.Role))
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishUserEvent(targetID, EventRoleChanged, map[string]interface{}{
		"role": user.EffectiveGlobalRole(),
	})
	s.publishModerationEvent(EventRoleChanged, map[string]interface{}{
		"target_user_id": targetID,
		"role":           user.EffectiveGlobalRole(),
		"staff_id":       staffID,
	})

	return c.JSON(user)
}

// DeleteUser handles DELETE /api/admin/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	staffID := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteAccount(c.UserContext(), staffID, targetID); err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishModerationEvent(EventUserDeleted, map[string]interface{}{
		"target_user_id": targetID,
		"staff_id":       staffID,
	})

	return c.JSON(fiber.Map{"message": "User deleted"})
}
