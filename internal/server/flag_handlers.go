package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/flags. The frontend fetches one evaluated
// snapshot per session instead of re-evaluating rollout buckets client-side.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	return c.JSON(fiber.Map{
		"flags": s.flags.Snapshot(userID),
	})
}
