package handlers

import (
	"github.com/gofiber/fiber/v2"

	"rallypoint/models"
	"rallypoint/services"
)

type ActivityHandler struct {
	activities *services.ActivityService
}

func NewActivityHandler(activities *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) Create(c *fiber.Ctx) error {
	var input models.ActivityInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	activity, err := h.activities.Create(c.UserContext(), actor(c), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "The activity has been created successfully",
		"id":      activity.ID,
	})
}

func (h *ActivityHandler) List(c *fiber.Ctx) error {
	groupID, ok := queryID(c, "groupID")
	if !ok {
		return badRequest(c, "Invalid group ID")
	}

	activities, err := h.activities.List(c.UserContext(), actor(c), groupID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(activities)
}

func (h *ActivityHandler) Delete(c *fiber.Ctx) error {
	var input models.DeleteActivityInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.activities.Delete(c.UserContext(), actor(c), input); err != nil {
		return respondError(c, err)
	}

	return message(c, "The activity has been deleted successfully")
}
