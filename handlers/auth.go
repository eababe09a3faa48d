package handlers

import (
	"github.com/gofiber/fiber/v2"

	"rallypoint/middleware"
	"rallypoint/models"
	"rallypoint/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates an account. The caller still has to log in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input models.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.auth.Register(c.UserContext(), input); err != nil {
		return respondError(c, err)
	}

	return message(c, "The account was successfully created. Please log in.")
}

// Login responds with the raw session token as plain text.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input models.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	token, err := h.auth.Login(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.SendString(token)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	profile, err := h.auth.Profile(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
