package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-platform/support-api/internal/api/dto"
	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/service"
)

// ReferenceHandler serves roles and ticket statuses.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler builds handler.
func NewReferenceHandler(referenceService *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: referenceService}
}

// ListRoles GET /roles.
func (h *ReferenceHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.service.ListRoles(requestContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.ReferenceResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, dto.ReferenceResponse{ID: role.ID, Name: role.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRole GET /roles/:id.
func (h *ReferenceHandler) GetRole(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	role, err := h.service.GetRole(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReferenceResponse{ID: role.ID, Name: role.Name}})
}

// ListTicketStatuses GET /ticket-status.
func (h *ReferenceHandler) ListTicketStatuses(c *fiber.Ctx) error {
	statuses, err := h.service.ListTicketStatuses(requestContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, dto.StatusResponse{ID: status.ID, Name: status.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicketStatus GET /ticket-status/:id.
func (h *ReferenceHandler) GetTicketStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	status, err := h.service.GetTicketStatus(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusResponse{ID: status.ID, Name: status.Name}})
}

// RefreshStatuses POST /api/v1/admin/ticket-status/refresh.
func (h *ReferenceHandler) RefreshStatuses(c *fiber.Ctx) error {
	snapshot, err := h.service.RefreshStatuses(requestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"pending":    statusOrNil(snapshot.Pending),
		"inProgress": statusOrNil(snapshot.InProgress),
		"answered":   statusOrNil(snapshot.Answered),
	}})
}

func statusOrNil(status *domain.TicketStatus) *dto.StatusResponse {
	if status == nil {
		return nil
	}
	return &dto.StatusResponse{ID: status.ID, Name: status.Name}
}
