package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/helpdesk-platform/support-api/internal/config"
	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/repository"
)

// StatusCatalog holds the ticket statuses the lifecycle transitions target.
// Each is resolved by name, then by the configured fallback id. A status
// that resolves neither way is reported as absent.
type StatusCatalog struct {
	statuses repository.TicketStatusRepository
	cfg      config.TicketConfig
	logger   *zap.Logger

	mu         sync.RWMutex
	pending    *domain.TicketStatus
	inProgress *domain.TicketStatus
	answered   *domain.TicketStatus
}

// NewStatusCatalog builds an empty catalog. Call Refresh before use.
func NewStatusCatalog(statuses repository.TicketStatusRepository, cfg config.TicketConfig, logger *zap.Logger) *StatusCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusCatalog{statuses: statuses, cfg: cfg, logger: logger}
}

// Refresh re-reads the three lifecycle statuses from the store.
func (c *StatusCatalog) Refresh(ctx context.Context) error {
	pending, err := c.resolve(ctx, c.cfg.PendingName, c.cfg.PendingID)
	if err != nil {
		return err
	}
	inProgress, err := c.resolve(ctx, c.cfg.InProgressName, c.cfg.InProgressID)
	if err != nil {
		return err
	}
	answered, err := c.resolve(ctx, c.cfg.AnsweredName, c.cfg.AnsweredID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.pending, c.inProgress, c.answered = pending, inProgress, answered
	c.mu.Unlock()
	return nil
}

func (c *StatusCatalog) resolve(ctx context.Context, name string, fallbackID int64) (*domain.TicketStatus, error) {
	if name != "" {
		status, err := c.statuses.GetByName(ctx, name)
		if err == nil {
			return status, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if fallbackID > 0 {
		status, err := c.statuses.GetByID(ctx, fallbackID)
		if err == nil {
			return status, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	c.logger.Warn("ticket status not configured",
		zap.String("name", name),
		zap.Int64("fallback_id", fallbackID))
	return nil, nil
}

// Pending is the status new tickets default to.
func (c *StatusCatalog) Pending() (domain.TicketStatus, bool) {
	return c.get(func() *domain.TicketStatus { return c.pending })
}

// InProgress is the status set by AssignAgent and MarkRead.
func (c *StatusCatalog) InProgress() (domain.TicketStatus, bool) {
	return c.get(func() *domain.TicketStatus { return c.inProgress })
}

// Answered is the status set by Answer.
func (c *StatusCatalog) Answered() (domain.TicketStatus, bool) {
	return c.get(func() *domain.TicketStatus { return c.answered })
}

func (c *StatusCatalog) get(pick func() *domain.TicketStatus) (domain.TicketStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status := pick()
	if status == nil {
		return domain.TicketStatus{}, false
	}
	return *status, true
}
