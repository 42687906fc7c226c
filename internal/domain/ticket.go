package domain

import "time"

// TicketStatus is a row of the ticket status reference table.
type TicketStatus struct {
	ID   int64
	Name string
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          int64
	RequesterID int64
	Status      TicketStatus
	Title       string
	Description string
	Answer      *string
	Agent       *User
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AgentID returns the assigned agent id, if any.
func (t *Ticket) AgentID() *int64 {
	if t.Agent == nil {
		return nil
	}
	id := t.Agent.ID
	return &id
}
