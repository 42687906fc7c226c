package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketAnswered      EventType = "ticket_answered"
)

// AllTypes lists every event type the services publish.
var AllTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketAnswered,
}

// Actor identifies who triggered an event. Subject is the token subject and
// may be empty for unauthenticated internal calls.
type Actor struct {
	Subject string `json:"subject,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	RequesterID int64  `json:"requester_id"`
	Status      string `json:"status"`
	Title       string `json:"title"`
	AgentID     *int64 `json:"agent_id,omitempty"`
}

// TicketStatusChangedPayload payload. Action names the lifecycle operation
// that caused the change.
type TicketStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Action    string `json:"action"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID         int64  `json:"agent_id"`
	PreviousAgentID *int64 `json:"previous_agent_id,omitempty"`
}

// TicketAnsweredPayload payload.
type TicketAnsweredPayload struct {
	AgentID       *int64 `json:"agent_id,omitempty"`
	AnswerPreview string `json:"answer_preview"`
}
