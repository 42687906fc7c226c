package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-platform/support-api/internal/api/dto"
	"github.com/helpdesk-platform/support-api/internal/auth"
	"github.com/helpdesk-platform/support-api/internal/service"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// UsersHandler exposes user administration and the current-caller view.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler builds handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// List GET /api/v1/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.service.List(requestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Get GET /api/v1/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Create POST /api/v1/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	user, err := h.service.Create(requestContext(c), service.UserCreateInput{
		Name:           req.Name,
		RoleID:         req.RoleID,
		StatusID:       req.StatusID,
		ExternalAuthID: req.ExternalAuthID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update PUT /api/v1/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	user, err := h.service.UpdateName(requestContext(c), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete DELETE /api/v1/users/:id marks the user deleted.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.Delete(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// AssignRole PATCH /api/v1/users/:id/roles/:roleId.
func (h *UsersHandler) AssignRole(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	roleID, err := idParam(c, "roleId")
	if err != nil {
		return err
	}
	user, err := h.service.AssignRole(requestContext(c), id, roleID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// SetStatus PUT /api/v1/users/:id/status/:statusId.
func (h *UsersHandler) SetStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	statusID, err := idParam(c, "statusId")
	if err != nil {
		return err
	}
	user, err := h.service.SetStatus(requestContext(c), id, statusID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Me GET /api/v1/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	resp := dto.MeResponse{
		Subject:     principal.Subject,
		Email:       principal.Email,
		Authorities: append([]string{}, principal.Authorities...),
	}
	if externalID, ok := principal.ExternalID(); ok {
		user, err := h.service.FindByExternalID(requestContext(c), externalID)
		if err != nil {
			return err
		}
		if user != nil {
			mapped := dto.NewUserResponse(user)
			resp.User = &mapped
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}
