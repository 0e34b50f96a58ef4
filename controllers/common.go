package controller

import (
	"github.com/gofiber/fiber/v2"

	"boardly/rbac"
)

// denyResponse renders a guard denial as the HTTP response the
// decision carries. Handlers never build their own denial payloads so
// messaging stays consistent.
func denyResponse(c *fiber.Ctx, decision rbac.Decision) error {
	return c.Status(decision.Status).JSON(fiber.Map{
		"error": decision.Message,
	})
}
