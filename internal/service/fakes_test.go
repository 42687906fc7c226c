package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/events"
	"github.com/helpdesk-platform/support-api/internal/repository"
)

type memTicketStatuses struct {
	byID map[int64]domain.TicketStatus
}

func newMemTicketStatuses(statuses ...domain.TicketStatus) *memTicketStatuses {
	m := &memTicketStatuses{byID: map[int64]domain.TicketStatus{}}
	for _, st := range statuses {
		m.byID[st.ID] = st
	}
	return m
}

func defaultStatuses() *memTicketStatuses {
	return newMemTicketStatuses(
		domain.TicketStatus{ID: 1, Name: "PENDING"},
		domain.TicketStatus{ID: 2, Name: "IN_PROGRESS"},
		domain.TicketStatus{ID: 3, Name: "ANSWERED"},
		domain.TicketStatus{ID: 4, Name: "CLOSED"},
	)
}

func (m *memTicketStatuses) GetByID(_ context.Context, id int64) (*domain.TicketStatus, error) {
	st, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (m *memTicketStatuses) GetByName(_ context.Context, name string) (*domain.TicketStatus, error) {
	for _, id := range m.ids() {
		if st := m.byID[id]; strings.EqualFold(st.Name, name) {
			return &st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTicketStatuses) List(context.Context) ([]domain.TicketStatus, error) {
	var out []domain.TicketStatus
	for _, id := range m.ids() {
		out = append(out, m.byID[id])
	}
	return out, nil
}

func (m *memTicketStatuses) ids() []int64 {
	ids := make([]int64, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type memTickets struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.Ticket
	updates int
	failOn  error
}

func newMemTickets() *memTickets {
	return &memTickets{rows: map[int64]domain.Ticket{}}
}

func (m *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.nextID++
	ticket.ID = m.nextID
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	m.rows[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (m *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	if _, ok := m.rows[ticket.ID]; !ok {
		return repository.ErrNotFound
	}
	m.updates++
	ticket.UpdatedAt = time.Now()
	m.rows[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneTicket(row)
	return &out, nil
}

func (m *memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for id := int64(1); id <= m.nextID; id++ {
		row, ok := m.rows[id]
		if !ok {
			continue
		}
		if filter.RequesterID != nil && row.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.AgentID != nil {
			agent := row.AgentID()
			if agent == nil || *agent != *filter.AgentID {
				continue
			}
		}
		out = append(out, cloneTicket(row))
	}
	return out, nil
}

func (m *memTickets) seed(ticket domain.Ticket) *domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ticket.ID = m.nextID
	m.rows[ticket.ID] = cloneTicket(ticket)
	return &ticket
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.Answer != nil {
		answer := *t.Answer
		t.Answer = &answer
	}
	if t.Agent != nil {
		agent := *t.Agent
		t.Agent = &agent
	}
	return t
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.User
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{rows: map[int64]domain.User{}}
	for _, u := range users {
		m.rows[u.ID] = u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.rows[user.ID] = *user
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[user.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rows[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByExternalAuthID(_ context.Context, externalID uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ExternalAuthID != nil && *u.ExternalAuthID == externalID {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) List(context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type memRoles map[int64]domain.Role

func (m memRoles) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	r, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m memRoles) List(context.Context) ([]domain.Role, error) {
	var out []domain.Role
	for id := int64(1); id <= int64(len(m)); id++ {
		if r, ok := m[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

type memUserStatuses map[int64]domain.UserStatus

func (m memUserStatuses) GetByID(_ context.Context, id int64) (*domain.UserStatus, error) {
	s, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m memUserStatuses) List(context.Context) ([]domain.UserStatus, error) {
	var out []domain.UserStatus
	for _, s := range m {
		out = append(out, s)
	}
	return out, nil
}

type memHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
	fail    bool
}

func (m *memHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("history unavailable")
	}
	h.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *h)
	return nil
}

func (m *memHistory) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, h := range m.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memAuthentications struct {
	mu    sync.Mutex
	rows  []domain.Authentication
	users *memUsers
	// failOn makes the credentials insert of Register fail.
	failOn error
}

func (m *memAuthentications) Create(_ context.Context, a *domain.Authentication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.rows) + 1)
	a.Email = strings.ToLower(a.Email)
	m.rows = append(m.rows, *a)
	return nil
}

// Register mirrors the transactional insert: nothing is stored unless both
// rows are.
func (m *memAuthentications) Register(ctx context.Context, user *domain.User, a *domain.Authentication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	for _, row := range m.rows {
		if row.Email == strings.ToLower(a.Email) {
			return repository.ErrDuplicate
		}
	}
	if err := m.users.Create(ctx, user); err != nil {
		return err
	}
	a.UserID = &user.ID
	a.ID = int64(len(m.rows) + 1)
	a.Email = strings.ToLower(a.Email)
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAuthentications) GetByEmail(_ context.Context, email string) (*domain.Authentication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.Email == strings.ToLower(email) {
			out := a
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingObserver struct {
	actions []string
}

func (o *recordingObserver) ObserveTicketTransition(action, _ string) {
	o.actions = append(o.actions, action)
}
