package server

import (
	"liberty/internal/models"
	"liberty/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity handles POST /api/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Image       string `json:"image,omitempty"`
		Banner      string `json:"banner,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	community, err := s.communityService.Create(c.UserContext(), service.CreateCommunityInput{
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Banner:      req.Banner,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(community)
}

// GetCommunities handles GET /api/communities
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	communities, err := s.communityService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(communities)
}

// SearchCommunities handles GET /api/communities/search?q=...
func (s *Server) SearchCommunities(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	page := parsePagination(c, 10)
	communities, err := s.communityService.Search(c.UserContext(), q, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(communities)
}

// GetCommunity handles GET /api/communities/:id
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	community, err := s.communityService.GetByID(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(community)
}

// GetCommunityPosts handles GET /api/communities/:id/posts
func (s *Server) GetCommunityPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 20)
	posts, err := s.postService.ListByCommunity(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// GetCommunityMembers handles GET /api/communities/:id/members
func (s *Server) GetCommunityMembers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)
	members, err := s.communityService.ListMembers(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(members)
}

// JoinCommunity handles POST /api/communities/:id/join
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	membership, err := s.communityService.Join(c.UserContext(), id, userID)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(membership)
}

// LeaveCommunity handles POST /api/communities/:id/leave
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.Leave(c.UserContext(), id, userID); err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Left community"})
}

// SetCommunityMemberRole handles PUT /api/communities/:id/members/:userId/role
func (s *Server) SetCommunityMemberRole(c *fiber.Ctx) error {
	viewerID := currentUserID(c)
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	targetID, err := s.parseID(c, "userId")
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

	membership, err := s.communityService.SetMemberRole(c.UserContext(), communityID, viewerID, targetID, models.CommunityRole(req.Role))
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(membership)
}

// SetCommunityNickname handles PUT /api/communities/:id/nickname
func (s *Server) SetCommunityNickname(c *fiber.Ctx) error {
	userID := currentUserID(c)
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	membership, err := s.communityService.SetNickname(c.UserContext(), communityID, userID, req.Nickname)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(membership)
}

// DeleteCommunity handles DELETE /api/communities/:id
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.Delete(c.UserContext(), userID, id); err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Community deleted"})
}
