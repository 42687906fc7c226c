package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/events"
	"github.com/helpdesk-platform/support-api/internal/repository"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// Lifecycle action names used in events and metrics.
const (
	ActionCreate    = "create"
	ActionAssign    = "assign"
	ActionAnswer    = "answer"
	ActionMarkRead  = "mark_read"
	ActionSetStatus = "set_status"
)

// TransitionObserver records completed lifecycle actions.
type TransitionObserver interface {
	ObserveTicketTransition(action, status string)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	statuses   repository.TicketStatusRepository
	users      repository.UserRepository
	history    repository.TicketHistoryRepository
	catalog    *StatusCatalog
	dispatcher events.Dispatcher
	observer   TransitionObserver
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
// History, Dispatcher and Observer are optional.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	TicketStatusRepo repository.TicketStatusRepository
	UserRepo         repository.UserRepository
	HistoryRepo      repository.TicketHistoryRepository
	Catalog          *StatusCatalog
	Dispatcher       events.Dispatcher
	Observer         TransitionObserver
	Logger           *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequesterID int64
	Title       string
	Description string
	AgentID     *int64
	StatusID    *int64
}

// TicketListFilter narrows ticket listings. Nil fields are ignored.
type TicketListFilter struct {
	RequesterID *int64
	AgentID     *int64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		statuses:   deps.TicketStatusRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		observer:   deps.Observer,
		logger:     logger,
	}
}

// Create opens a ticket. The requested status wins when it exists, otherwise
// the ticket starts PENDING. An unknown agent is ignored.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if input.RequesterID == 0 || title == "" || description == "" {
		return nil, apperrors.NewValidationError("requesterId, title and description are required", nil)
	}

	status, err := s.initialStatus(ctx, input.StatusID)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		RequesterID: input.RequesterID,
		Status:      status,
		Title:       title,
		Description: description,
	}
	if input.AgentID != nil {
		agent, err := s.optionalUser(ctx, *input.AgentID)
		if err != nil {
			return nil, err
		}
		ticket.Agent = agent
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, ticket.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"status": ticket.Status.Name,
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			RequesterID: ticket.RequesterID,
			Status:      ticket.Status.Name,
			Title:       ticket.Title,
			AgentID:     ticket.AgentID(),
		},
	})
	s.observe(ActionCreate, ticket.Status)
	return ticket, nil
}

func (s *TicketService) initialStatus(ctx context.Context, requested *int64) (domain.TicketStatus, error) {
	if requested != nil {
		status, err := s.statuses.GetByID(ctx, *requested)
		if err == nil {
			return *status, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.TicketStatus{}, err
		}
	}
	if pending, ok := s.catalog.Pending(); ok {
		return pending, nil
	}
	return domain.TicketStatus{}, apperrors.NewInternalError(errors.New("default ticket status is not configured"))
}

// AssignAgent sets the agent and moves the ticket to IN_PROGRESS. Unlike the
// other transitions an unknown agent is an error.
func (s *TicketService) AssignAgent(ctx context.Context, ticketID, agentID int64) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agentId": agentID})
		}
		return nil, err
	}

	previousAgent := ticket.AgentID()
	oldStatus := ticket.Status
	ticket.Agent = agent
	if status, ok := s.catalog.InProgress(); ok {
		ticket.Status = status
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.saveError(err, ticketID)
	}

	s.recordHistory(ctx, ticket.ID, domain.ChangeTypeAssignee,
		map[string]any{"agent_id": previousAgent},
		map[string]any{"agent_id": agent.ID})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Payload: events.TicketAssignedPayload{
			AgentID:         agent.ID,
			PreviousAgentID: previousAgent,
		},
	})
	s.statusChanged(ctx, ticket, oldStatus, ActionAssign)
	s.observe(ActionAssign, ticket.Status)
	return ticket, nil
}

// Answer stores the reply and moves the ticket to ANSWERED. agentID is
// applied only when it resolves.
func (s *TicketService) Answer(ctx context.Context, ticketID int64, answer string, agentID *int64) (*domain.Ticket, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, apperrors.NewValidationError("answer is required", nil)
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if agentID != nil {
		agent, err := s.optionalUser(ctx, *agentID)
		if err != nil {
			return nil, err
		}
		if agent != nil {
			ticket.Agent = agent
		}
	}

	oldStatus := ticket.Status
	ticket.Answer = &answer
	if status, ok := s.catalog.Answered(); ok {
		ticket.Status = status
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.saveError(err, ticketID)
	}

	s.recordHistory(ctx, ticket.ID, domain.ChangeTypeAnswer, nil, map[string]any{
		"agent_id": ticket.AgentID(),
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAnswered,
		TicketID: ticket.ID,
		Payload: events.TicketAnsweredPayload{
			AgentID:       ticket.AgentID(),
			AnswerPreview: preview(answer, 140),
		},
	})
	s.statusChanged(ctx, ticket, oldStatus, ActionAnswer)
	s.observe(ActionAnswer, ticket.Status)
	return ticket, nil
}

// MarkRead moves the ticket to IN_PROGRESS, optionally claiming it for agentID.
func (s *TicketService) MarkRead(ctx context.Context, ticketID int64, agentID *int64) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	previousAgent := ticket.AgentID()
	if agentID != nil {
		agent, err := s.optionalUser(ctx, *agentID)
		if err != nil {
			return nil, err
		}
		if agent != nil {
			ticket.Agent = agent
		}
	}

	oldStatus := ticket.Status
	if status, ok := s.catalog.InProgress(); ok {
		ticket.Status = status
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.saveError(err, ticketID)
	}

	if current := ticket.AgentID(); current != nil && (previousAgent == nil || *previousAgent != *current) {
		s.recordHistory(ctx, ticket.ID, domain.ChangeTypeAssignee,
			map[string]any{"agent_id": previousAgent},
			map[string]any{"agent_id": *current})
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Payload: events.TicketAssignedPayload{
				AgentID:         *current,
				PreviousAgentID: previousAgent,
			},
		})
	}
	s.statusChanged(ctx, ticket, oldStatus, ActionMarkRead)
	s.observe(ActionMarkRead, ticket.Status)
	return ticket, nil
}

// SetStatus forces the ticket into statusID. Both ids must resolve.
func (s *TicketService) SetStatus(ctx context.Context, ticketID, statusID int64) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	status, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket status", map[string]any{"statusId": statusID})
		}
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = *status
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.saveError(err, ticketID)
	}

	s.statusChanged(ctx, ticket, oldStatus, ActionSetStatus)
	s.observe(ActionSetStatus, ticket.Status)
	return ticket, nil
}

// Get returns a ticket by id.
func (s *TicketService) Get(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return s.load(ctx, ticketID)
}

// List returns tickets in creation order.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		RequesterID: filter.RequesterID,
		AgentID:     filter.AgentID,
	})
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// History returns the audit trail of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	if _, err := s.load(ctx, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, ticketID)
}

func (s *TicketService) load(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// optionalUser resolves a user, treating absence as nil.
func (s *TicketService) optionalUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("agent not found, leaving ticket agent unchanged", zap.Int64("agent_id", id))
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// saveError maps a vanished row during update to NotFound.
func (s *TicketService) saveError(err error, ticketID int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	return err
}

func (s *TicketService) statusChanged(ctx context.Context, ticket *domain.Ticket, old domain.TicketStatus, action string) {
	if old.ID == ticket.Status.ID {
		return
	}
	s.recordHistory(ctx, ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"status": old.Name},
		map[string]any{"status": ticket.Status.Name})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old.Name,
			NewStatus: ticket.Status.Name,
			Action:    action,
		},
	})
}

// recordHistory appends an audit entry. The ticket is already saved, so a
// failure here is logged rather than returned.
func (s *TicketService) recordHistory(ctx context.Context, ticketID int64, change domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  actorFrom(ctx),
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record ticket history",
			zap.Int64("ticket_id", ticketID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Actor = events.Actor{Subject: actorFrom(ctx)}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) observe(action string, status domain.TicketStatus) {
	if s.observer != nil {
		s.observer.ObserveTicketTransition(action, status.Name)
	}
}

func preview(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
