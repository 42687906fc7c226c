package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-platform/support-api/internal/api/dto"
	"github.com/helpdesk-platform/support-api/internal/service"
)

// AuthHandler serves login, registration and the identity provider proxy.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler builds handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	result, err := h.service.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		UserID: result.UserID,
		Name:   result.Name,
		Role:   result.Role,
	}})
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	user, err := h.service.Register(requestContext(c), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// SignUp POST /auth/signup. The provider's response is returned as-is.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	raw, _, err := h.service.SignUp(requestContext(c), req.Email, req.Password)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// SignIn POST /auth/signin. The provider's session is returned as-is.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	raw, err := h.service.SignIn(requestContext(c), req.Email, req.Password)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}
