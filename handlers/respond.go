package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"rallypoint/middleware"
	"rallypoint/services"
)

var statusByKind = map[services.Kind]int{
	services.KindInvalidInput:    fiber.StatusBadRequest,
	services.KindUnauthenticated: fiber.StatusUnauthorized,
	services.KindForbidden:       fiber.StatusForbidden,
	services.KindNotFound:        fiber.StatusNotFound,
	services.KindConflict:        fiber.StatusConflict,
}

// respondError writes the single error response for a failed service call.
// Internal errors are reported without detail; the cause goes to the access log.
func respondError(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) || svcErr.Kind == services.KindInternal {
		c.Locals(middleware.ErrorLocal, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.Status(statusByKind[svcErr.Kind]).JSON(fiber.Map{
		"error": svcErr.Message,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"message": msg})
}

// queryID parses a positive numeric id from the query string.
func queryID(c *fiber.Ctx, key string) (uint, bool) {
	id, err := strconv.ParseUint(c.Query(key), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func actor(c *fiber.Ctx) services.Actor {
	return services.Actor{UserID: middleware.GetUserID(c), IP: c.IP()}
}
