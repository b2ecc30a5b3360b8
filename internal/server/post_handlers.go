package server

import (
	"time"

	"liberty/internal/models"
	"liberty/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Content     string `json:"content"`
		ImageURL    string `json:"image_url,omitempty"`
		CommunityID *uint  `json:"community_id,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		UserID:      userID,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.publishBroadcastEvent(EventPostCreated, map[string]interface{}{
		"post_id":    post.ID,
		"author_id":  post.UserID,
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	posts, err := s.postService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetByID(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(post)
}

// SearchPosts handles GET /api/posts/search?q=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	page := parsePagination(c, 10)
	posts, err := s.postService.Search(c.UserContext(), q, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), userID, id); err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}
