package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/helpdesk-platform/support-api/internal/events"
)

// ErrRelayFull is returned when the queue cannot accept another event.
var ErrRelayFull = errors.New("event relay queue full")

// ErrRelayStopped is returned after Stop.
var ErrRelayStopped = errors.New("event relay stopped")

// EventRelay moves events off the request path: Enqueue buffers them and a
// pool of workers hands each one to the sink. Each worker owns a queue and
// events are routed by ticket id, so one ticket's events reach the sink in
// the order they were enqueued.
type EventRelay struct {
	sink   events.EventHandler
	shards []chan events.Event
	logger *zap.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewEventRelay builds a relay with the given total queue capacity spread
// over workers queues.
func NewEventRelay(sink events.EventHandler, capacity, workers int, logger *zap.Logger) *EventRelay {
	if capacity <= 0 {
		capacity = 256
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	perShard := (capacity + workers - 1) / workers
	shards := make([]chan events.Event, workers)
	for i := range shards {
		shards[i] = make(chan events.Event, perShard)
	}
	return &EventRelay{
		sink:   sink,
		shards: shards,
		logger: logger,
	}
}

// Enqueue buffers an event without blocking. It satisfies events.EventHandler.
func (r *EventRelay) Enqueue(_ context.Context, event events.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return ErrRelayStopped
	}
	select {
	case r.shardFor(event.TicketID) <- event:
		return nil
	default:
		return ErrRelayFull
	}
}

func (r *EventRelay) shardFor(ticketID int64) chan events.Event {
	idx := ticketID % int64(len(r.shards))
	if idx < 0 {
		idx = -idx
	}
	return r.shards[idx]
}

// Start launches one worker per queue. They run until Stop drains the queues.
// Calling Start again has no effect.
func (r *EventRelay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	for _, shard := range r.shards {
		r.wg.Add(1)
		go r.run(shard)
	}
}

func (r *EventRelay) run(queue <-chan events.Event) {
	defer r.wg.Done()
	for event := range queue {
		if err := r.sink(context.Background(), event); err != nil {
			r.logger.Error("event relay delivery failed",
				zap.String("event_type", string(event.Type)),
				zap.Int64("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}

// Stop rejects new events, delivers what is queued and waits for the workers.
func (r *EventRelay) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	for _, shard := range r.shards {
		close(shard)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
