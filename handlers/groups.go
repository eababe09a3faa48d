package handlers

import (
	"github.com/gofiber/fiber/v2"

	"rallypoint/models"
	"rallypoint/services"
)

type GroupHandler struct {
	groups *services.GroupService
}

func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

func (h *GroupHandler) Create(c *fiber.Ctx) error {
	var input models.CreateGroupInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	group, err := h.groups.Create(c.UserContext(), actor(c), input.GroupName)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.CreateGroupResponse{
		Message: "The group has been created successfully.",
		ID:      group.ID,
		Code:    group.Code,
	})
}

func (h *GroupHandler) Join(c *fiber.Ctx) error {
	var input models.JoinGroupInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.groups.Join(c.UserContext(), actor(c), input.GroupCode); err != nil {
		return respondError(c, err)
	}

	return message(c, "You have successfully joined the group!")
}

// Code responds with the invite code as plain text.
func (h *GroupHandler) Code(c *fiber.Ctx) error {
	groupID, ok := queryID(c, "id")
	if !ok {
		return badRequest(c, "Invalid group ID")
	}

	code, err := h.groups.InviteCode(c.UserContext(), actor(c), groupID)
	if err != nil {
		return respondError(c, err)
	}

	return c.SendString(code)
}

func (h *GroupHandler) Members(c *fiber.Ctx) error {
	groupID, ok := queryID(c, "id")
	if !ok {
		return badRequest(c, "Invalid group ID")
	}

	members, err := h.groups.Members(c.UserContext(), actor(c), groupID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(members)
}

func (h *GroupHandler) BannedMembers(c *fiber.Ctx) error {
	groupID, ok := queryID(c, "id")
	if !ok {
		return badRequest(c, "Invalid group ID")
	}

	banned, err := h.groups.BannedMembers(c.UserContext(), actor(c), groupID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(banned)
}

func (h *GroupHandler) Ban(c *fiber.Ctx) error {
	var input models.BanInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.groups.Ban(c.UserContext(), actor(c), input); err != nil {
		return respondError(c, err)
	}

	return message(c, "The user has been banned.")
}

func (h *GroupHandler) Unban(c *fiber.Ctx) error {
	var input models.UnbanInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.groups.Unban(c.UserContext(), actor(c), input); err != nil {
		return respondError(c, err)
	}

	return message(c, "The user has been unbanned successfully. They may now rejoin the group again if they wish.")
}

// Admin answers with a bare JSON boolean.
func (h *GroupHandler) Admin(c *fiber.Ctx) error {
	groupID, ok := queryID(c, "groupID")
	if !ok {
		return badRequest(c, "Invalid group ID")
	}

	isAdmin, err := h.groups.IsAdmin(c.UserContext(), actor(c), groupID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(isAdmin)
}

func (h *GroupHandler) List(c *fiber.Ctx) error {
	groups, err := h.groups.List(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}
