package handlers

import (
	"github.com/gofiber/fiber/v2"

	"rallypoint/database"
	"rallypoint/middleware"
)

// Health reports ok only when the database answers a ping.
func Health(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.Ping(c.UserContext()); err != nil {
			c.Locals(middleware.ErrorLocal, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
