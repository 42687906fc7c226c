package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-platform/support-api/internal/api/dto"
	"github.com/helpdesk-platform/support-api/internal/service"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	if req.RequesterID == nil || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("requesterId, title and description are required", nil)
	}

	ticket, err := h.service.Create(requestContext(c), service.TicketCreateInput{
		RequesterID: *req.RequesterID,
		Title:       req.Title,
		Description: req.Description,
		AgentID:     req.AgentID,
		StatusID:    req.StatusID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets?requesterId=&agentId=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	requesterID, err := optionalIDQuery(c, "requesterId")
	if err != nil {
		return err
	}
	agentID, err := optionalIDQuery(c, "agentId")
	if err != nil {
		return err
	}
	tickets, err := h.service.List(requestContext(c), service.TicketListFilter{
		RequesterID: requesterID,
		AgentID:     agentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}

// Answer PATCH /tickets/:id/answer.
func (h *TicketsHandler) Answer(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AnswerTicketRequest
	if err := parseBody(c, &req, false); err != nil {
		return err
	}
	if strings.TrimSpace(req.Answer) == "" {
		return apperrors.NewValidationError("answer is required", nil)
	}
	ticket, err := h.service.Answer(requestContext(c), id, req.Answer, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// SetStatus PATCH /tickets/:id/status/:statusId.
func (h *TicketsHandler) SetStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	statusID, err := idParam(c, "statusId")
	if err != nil {
		return err
	}
	ticket, err := h.service.SetStatus(requestContext(c), id, statusID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AssignAgent PATCH /tickets/:id/assign/:agentId.
func (h *TicketsHandler) AssignAgent(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	agentID, err := idParam(c, "agentId")
	if err != nil {
		return err
	}
	ticket, err := h.service.AssignAgent(requestContext(c), id, agentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// MarkRead PATCH /tickets/:id/read.
func (h *TicketsHandler) MarkRead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.MarkReadRequest
	if err := parseBody(c, &req, true); err != nil {
		return err
	}
	ticket, err := h.service.MarkRead(requestContext(c), id, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}
