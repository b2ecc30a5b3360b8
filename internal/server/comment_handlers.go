package server

import (
	"liberty/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.Create(c.UserContext(), userID, postID, req.Content)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishBroadcastEvent(EventCommentCreated, map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.UserID,
	})

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)
	comments, err := s.commentService.ListByPost(c.UserContext(), postID, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(comments)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := currentUserID(c)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.Delete(c.UserContext(), userID, commentID); err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
