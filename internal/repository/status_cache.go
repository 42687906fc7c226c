package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-platform/support-api/internal/domain"
)

const statusCachePrefix = "ticket_status:"

// CachedTicketStatusRepository serves ticket status lookups from Redis and
// falls through to the wrapped repository on a miss. Redis failures are
// logged and never surface to callers.
type CachedTicketStatusRepository struct {
	next   TicketStatusRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTicketStatusRepository wraps next. A nil client disables caching.
func NewCachedTicketStatusRepository(next TicketStatusRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedTicketStatusRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTicketStatusRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedTicketStatusRepository) GetByID(ctx context.Context, id int64) (*domain.TicketStatus, error) {
	key := fmt.Sprintf("%sid:%d", statusCachePrefix, id)
	if status, ok := r.load(ctx, key); ok {
		return status, nil
	}
	status, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, status)
	return status, nil
}

func (r *CachedTicketStatusRepository) GetByName(ctx context.Context, name string) (*domain.TicketStatus, error) {
	key := statusCachePrefix + "name:" + strings.ToUpper(name)
	if status, ok := r.load(ctx, key); ok {
		return status, nil
	}
	status, err := r.next.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, status)
	return status, nil
}

// List always reads through; listings are rare and must reflect the table.
func (r *CachedTicketStatusRepository) List(ctx context.Context) ([]domain.TicketStatus, error) {
	return r.next.List(ctx)
}

// Purge drops every cached status entry.
func (r *CachedTicketStatusRepository) Purge(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	iter := r.client.Scan(ctx, 0, statusCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *CachedTicketStatusRepository) load(ctx context.Context, key string) (*domain.TicketStatus, bool) {
	if r.client == nil {
		return nil, false
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("status cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var entry cachedStatus
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.logger.Warn("status cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &domain.TicketStatus{ID: entry.ID, Name: entry.Name}, true
}

func (r *CachedTicketStatusRepository) store(ctx context.Context, key string, status *domain.TicketStatus) {
	if r.client == nil {
		return
	}
	raw, err := json.Marshal(cachedStatus{ID: status.ID, Name: status.Name})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("status cache write failed", zap.String("key", key), zap.Error(err))
	}
}

type cachedStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
