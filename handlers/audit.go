package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// AuditLogs returns one page of a group's audit trail (admin only)
func (h *GroupHandler) AuditLogs(c *fiber.Ctx) error {
	groupID, ok := queryID(c, "id")
	if !ok {
		return badRequest(c, "Invalid group ID")
	}

	// Out-of-range values are clamped by the service
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	trail, err := h.groups.AuditTrail(c.UserContext(), actor(c), groupID, page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(trail)
}
