package dto

import (
	"time"

	"github.com/helpdesk-platform/support-api/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	RequesterID *int64 `json:"requesterId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AgentID     *int64 `json:"agentId"`
	StatusID    *int64 `json:"statusId"`
}

// AnswerTicketRequest payload.
type AnswerTicketRequest struct {
	Answer  string `json:"answer"`
	AgentID *int64 `json:"agentId"`
}

// MarkReadRequest payload. The body is optional.
type MarkReadRequest struct {
	AgentID *int64 `json:"agentId"`
}

// StatusResponse is a ticket status reference.
type StatusResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AgentResponse is the assigned agent summary.
type AgentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TicketResponse is the ticket representation.
type TicketResponse struct {
	ID          int64          `json:"id"`
	RequesterID int64          `json:"requesterId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Answer      *string        `json:"answer"`
	Status      StatusResponse `json:"status"`
	Agent       *AgentResponse `json:"agent"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID         int64          `json:"id"`
	ChangedBy  string         `json:"changedBy,omitempty"`
	ChangeType string         `json:"changeType"`
	OldValue   map[string]any `json:"oldValue,omitempty"`
	NewValue   map[string]any `json:"newValue,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewTicketResponse maps the domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          ticket.ID,
		RequesterID: ticket.RequesterID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Answer:      ticket.Answer,
		Status:      StatusResponse{ID: ticket.Status.ID, Name: ticket.Status.Name},
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
	if ticket.Agent != nil {
		resp.Agent = &AgentResponse{ID: ticket.Agent.ID, Name: ticket.Agent.Name}
	}
	return resp
}

// NewTicketResponses maps a listing.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	items := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, TicketHistoryResponse{
			ID:         entry.ID,
			ChangedBy:  entry.ChangedBy,
			ChangeType: string(entry.ChangeType),
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return items
}
