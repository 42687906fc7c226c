package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-platform/support-api/internal/config"
	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/events"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

var ticketCfg = config.TicketConfig{
	PendingName: "PENDING", PendingID: 1,
	InProgressName: "IN_PROGRESS", InProgressID: 2,
	AnsweredName: "ANSWERED", AnsweredID: 3,
}

type ticketFixture struct {
	svc        *TicketService
	tickets    *memTickets
	users      *memUsers
	history    *memHistory
	dispatcher *recordingDispatcher
	observer   *recordingObserver
}

func newTicketFixture(t *testing.T, statuses *memTicketStatuses) *ticketFixture {
	t.Helper()
	catalog := NewStatusCatalog(statuses, ticketCfg, nil)
	require.NoError(t, catalog.Refresh(context.Background()))

	f := &ticketFixture{
		tickets: newMemTickets(),
		users: newMemUsers(
			domain.User{ID: 7, Name: "Ana"},
			domain.User{ID: 8, Name: "Luis"},
		),
		history:    &memHistory{},
		dispatcher: &recordingDispatcher{},
		observer:   &recordingObserver{},
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:       f.tickets,
		TicketStatusRepo: statuses,
		UserRepo:         f.users,
		HistoryRepo:      f.history,
		Catalog:          catalog,
		Dispatcher:       f.dispatcher,
		Observer:         f.observer,
	})
	return f
}

func int64p(v int64) *int64 { return &v }

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperrors.ToDomainError(err).HTTPStatus)
}

func TestCreate_DefaultsToPending(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())

	ticket, err := f.svc.Create(context.Background(), TicketCreateInput{
		RequesterID: 5, Title: "Printer", Description: "jammed",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ticket.Status.ID)
	assert.Equal(t, "PENDING", ticket.Status.Name)
	assert.Nil(t, ticket.Agent)
	assert.Nil(t, ticket.Answer)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.dispatcher.types())
	assert.Equal(t, []string{ActionCreate}, f.observer.actions)
}

func TestCreate_ExplicitStatusOverride(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())

	ticket, err := f.svc.Create(context.Background(), TicketCreateInput{
		RequesterID: 5, Title: "t", Description: "d", StatusID: int64p(2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), ticket.Status.ID)
}

func TestCreate_UnknownStatusFallsBackToPending(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())

	ticket, err := f.svc.Create(context.Background(), TicketCreateInput{
		RequesterID: 5, Title: "t", Description: "d", StatusID: int64p(99),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ticket.Status.ID)
}

func TestCreate_AgentSoftMiss(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())

	withAgent, err := f.svc.Create(context.Background(), TicketCreateInput{
		RequesterID: 5, Title: "t", Description: "d", AgentID: int64p(7),
	})
	require.NoError(t, err)
	require.NotNil(t, withAgent.Agent)
	assert.Equal(t, int64(7), withAgent.Agent.ID)

	unknown, err := f.svc.Create(context.Background(), TicketCreateInput{
		RequesterID: 5, Title: "t", Description: "d", AgentID: int64p(404),
	})
	require.NoError(t, err)
	assert.Nil(t, unknown.Agent)
}

func TestCreate_Validation(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())

	cases := []TicketCreateInput{
		{Title: "t", Description: "d"},
		{RequesterID: 5, Description: "d"},
		{RequesterID: 5, Title: "t", Description: "   "},
	}
	for _, input := range cases {
		_, err := f.svc.Create(context.Background(), input)
		assertStatus(t, err, http.StatusBadRequest)
	}
	assert.Empty(t, f.tickets.rows)
}

func TestCreate_NoDefaultStatus(t *testing.T) {
	f := newTicketFixture(t, newMemTicketStatuses(domain.TicketStatus{ID: 4, Name: "CLOSED"}))

	_, err := f.svc.Create(context.Background(), TicketCreateInput{RequesterID: 5, Title: "t", Description: "d"})
	assertStatus(t, err, http.StatusInternalServerError)
	assert.Empty(t, f.tickets.rows)
}

func TestTransitions_UnknownTicket(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	ctx := context.Background()

	_, err := f.svc.AssignAgent(ctx, 999, 7)
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.svc.Answer(ctx, 999, "hi", nil)
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.svc.MarkRead(ctx, 999, nil)
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.svc.SetStatus(ctx, 999, 1)
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.svc.Get(ctx, 999)
	assertStatus(t, err, http.StatusNotFound)

	assert.Zero(t, f.tickets.updates)
	assert.Empty(t, f.dispatcher.types())
}

func TestAssignAgent(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	answer := "already answered"
	seeded := f.tickets.seed(domain.Ticket{
		RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d",
		Answer: &answer,
	})

	ctx := WithActor(context.Background(), "sub-1")
	ticket, err := f.svc.AssignAgent(ctx, seeded.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, ticket.Agent)
	assert.Equal(t, int64(7), ticket.Agent.ID)
	assert.Equal(t, "IN_PROGRESS", ticket.Status.Name)
	require.NotNil(t, ticket.Answer)
	assert.Equal(t, answer, *ticket.Answer)

	assert.Equal(t, []events.EventType{events.EventTicketAssigned, events.EventTicketStatusChanged}, f.dispatcher.types())
	assert.Equal(t, "sub-1", f.dispatcher.events[0].Actor.Subject)
	require.Len(t, f.history.entries, 2)
	assert.Equal(t, "sub-1", f.history.entries[0].ChangedBy)
}

func TestAssignAgent_UnknownAgentDoesNotMutate(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{
		RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d",
	})

	_, err := f.svc.AssignAgent(context.Background(), seeded.ID, 404)
	assertStatus(t, err, http.StatusNotFound)

	stored, err := f.svc.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Agent)
	assert.Equal(t, int64(1), stored.Status.ID)
	assert.Zero(t, f.tickets.updates)
}

func TestAssignAgent_MissingInProgressKeepsStatus(t *testing.T) {
	statuses := newMemTicketStatuses(
		domain.TicketStatus{ID: 1, Name: "PENDING"},
		domain.TicketStatus{ID: 3, Name: "ANSWERED"},
	)
	f := newTicketFixture(t, statuses)
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d"})

	ticket, err := f.svc.AssignAgent(context.Background(), seeded.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ticket.Agent.ID)
	assert.Equal(t, int64(1), ticket.Status.ID)
	assert.Equal(t, []events.EventType{events.EventTicketAssigned}, f.dispatcher.types())
}

func TestAnswer_MissingAnsweredKeepsStatus(t *testing.T) {
	statuses := newMemTicketStatuses(
		domain.TicketStatus{ID: 1, Name: "PENDING"},
		domain.TicketStatus{ID: 2, Name: "IN_PROGRESS"},
	)
	f := newTicketFixture(t, statuses)
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 2, Name: "IN_PROGRESS"}, Title: "t", Description: "d"})

	ticket, err := f.svc.Answer(context.Background(), seeded.ID, "Restart it", int64p(7))
	require.NoError(t, err)
	require.NotNil(t, ticket.Answer)
	assert.Equal(t, "Restart it", *ticket.Answer)
	assert.Equal(t, int64(7), ticket.Agent.ID)
	assert.Equal(t, int64(2), ticket.Status.ID)
	assert.Equal(t, []events.EventType{events.EventTicketAnswered}, f.dispatcher.types())

	stored, err := f.tickets.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Status.ID)
}

func TestMarkRead_MissingInProgressKeepsStatus(t *testing.T) {
	statuses := newMemTicketStatuses(
		domain.TicketStatus{ID: 1, Name: "PENDING"},
		domain.TicketStatus{ID: 3, Name: "ANSWERED"},
	)
	f := newTicketFixture(t, statuses)
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d"})

	ticket, err := f.svc.MarkRead(context.Background(), seeded.ID, int64p(8))
	require.NoError(t, err)
	assert.Equal(t, int64(8), ticket.Agent.ID)
	assert.Equal(t, int64(1), ticket.Status.ID)
	assert.Equal(t, []events.EventType{events.EventTicketAssigned}, f.dispatcher.types())

	stored, err := f.tickets.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Status.ID)
}

func TestAnswer_KeepsPriorAgent(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{
		RequesterID: 5, Status: domain.TicketStatus{ID: 2, Name: "IN_PROGRESS"}, Title: "t", Description: "d",
		Agent: &domain.User{ID: 8, Name: "Luis"},
	})

	ticket, err := f.svc.Answer(context.Background(), seeded.ID, "Restart it", nil)
	require.NoError(t, err)
	require.NotNil(t, ticket.Answer)
	assert.Equal(t, "Restart it", *ticket.Answer)
	assert.Equal(t, "ANSWERED", ticket.Status.Name)
	assert.Equal(t, int64(8), ticket.Agent.ID)
}

func TestAnswer_AgentSoftMiss(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{
		RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d",
		Agent: &domain.User{ID: 8, Name: "Luis"},
	})

	ticket, err := f.svc.Answer(context.Background(), seeded.ID, "ok", int64p(404))
	require.NoError(t, err)
	assert.Equal(t, int64(8), ticket.Agent.ID)

	ticket, err = f.svc.Answer(context.Background(), seeded.ID, "ok", int64p(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), ticket.Agent.ID)
}

func TestAnswer_Blank(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d"})

	_, err := f.svc.Answer(context.Background(), seeded.ID, "  ", nil)
	assertStatus(t, err, http.StatusBadRequest)
	assert.Zero(t, f.tickets.updates)
}

func TestMarkRead_KeepsNilAgent(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d"})

	ticket, err := f.svc.MarkRead(context.Background(), seeded.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, ticket.Agent)
	assert.Equal(t, "IN_PROGRESS", ticket.Status.Name)
	assert.Equal(t, []events.EventType{events.EventTicketStatusChanged}, f.dispatcher.types())
}

func TestMarkRead_ClaimsForAgent(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d"})

	ticket, err := f.svc.MarkRead(context.Background(), seeded.ID, int64p(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), ticket.Agent.ID)
	assert.Equal(t, []events.EventType{events.EventTicketAssigned, events.EventTicketStatusChanged}, f.dispatcher.types())
}

func TestSetStatus(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d"})

	first, err := f.svc.SetStatus(context.Background(), seeded.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatus{ID: 4, Name: "CLOSED"}, first.Status)

	second, err := f.svc.SetStatus(context.Background(), seeded.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, []events.EventType{events.EventTicketStatusChanged}, f.dispatcher.types())

	_, err = f.svc.SetStatus(context.Background(), seeded.ID, 99)
	assertStatus(t, err, http.StatusNotFound)
	stored, _ := f.svc.Get(context.Background(), seeded.ID)
	assert.Equal(t, int64(4), stored.Status.ID)
}

func TestList_Filters(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	ctx := context.Background()
	for _, in := range []TicketCreateInput{
		{RequesterID: 5, Title: "a", Description: "d", AgentID: int64p(7)},
		{RequesterID: 6, Title: "b", Description: "d"},
		{RequesterID: 5, Title: "c", Description: "d", AgentID: int64p(8)},
	} {
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Title, all[1].Title, all[2].Title})

	byRequester, err := f.svc.List(ctx, TicketListFilter{RequesterID: int64p(5)})
	require.NoError(t, err)
	assert.Len(t, byRequester, 2)

	byAgent, err := f.svc.List(ctx, TicketListFilter{AgentID: int64p(8)})
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, "c", byAgent[0].Title)

	none, err := f.svc.List(ctx, TicketListFilter{RequesterID: int64p(42)})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestHistory(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, TicketCreateInput{RequesterID: 5, Title: "t", Description: "d"})
	require.NoError(t, err)
	_, err = f.svc.Answer(ctx, ticket.ID, "done", nil)
	require.NoError(t, err)

	entries, err := f.svc.History(ctx, ticket.ID)
	require.NoError(t, err)
	var kinds []domain.TicketChangeType
	for _, e := range entries {
		kinds = append(kinds, e.ChangeType)
	}
	assert.Equal(t, []domain.TicketChangeType{domain.ChangeTypeCreated, domain.ChangeTypeAnswer, domain.ChangeTypeStatus}, kinds)

	_, err = f.svc.History(ctx, 999)
	assertStatus(t, err, http.StatusNotFound)
}

func TestHistoryFailureDoesNotFailTransition(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	f.history.fail = true

	_, err := f.svc.Create(context.Background(), TicketCreateInput{RequesterID: 5, Title: "t", Description: "d"})
	assert.NoError(t, err)
}

func TestSaveFailureFailsOperation(t *testing.T) {
	f := newTicketFixture(t, defaultStatuses())
	seeded := f.tickets.seed(domain.Ticket{RequesterID: 5, Status: domain.TicketStatus{ID: 1, Name: "PENDING"}, Title: "t", Description: "d"})
	f.tickets.failOn = errors.New("connection reset")

	_, err := f.svc.MarkRead(context.Background(), seeded.ID, nil)
	require.Error(t, err)
	assert.Empty(t, f.dispatcher.types())
}
