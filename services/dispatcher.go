package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"facebook-ingest/models"
)

// HandlerFunc is one category-specific side-effect function. Errors are
// absorbed by the dispatcher; they never reach the HTTP response.
type HandlerFunc func(ctx context.Context, event models.NormalizedEvent) error

// RouteKey selects a handler by delivery object and event category
type RouteKey struct {
	Object   string
	Category models.Category
}

// IdempotencyGuard is the dedup check-and-set. MarkProcessed returns true
// when this call claimed the eventID, false when a non-expired record
// already exists.
type IdempotencyGuard interface {
	MarkProcessed(ctx context.Context, eventID string, receivedAt time.Time) (bool, error)
}

// Dispatcher routes normalized events to registered handlers, isolating
// each sub-event's failure from its siblings
type Dispatcher struct {
	registry map[RouteKey]HandlerFunc
	guard    IdempotencyGuard
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher. timeout bounds every handler
// invocation so a slow collaborator cannot stall the delivery.
func NewDispatcher(guard IdempotencyGuard, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry: make(map[RouteKey]HandlerFunc),
		guard:    guard,
		timeout:  timeout,
	}
}

// Register binds a handler to an (object, category) pair
func (d *Dispatcher) Register(object string, category models.Category, fn HandlerFunc) {
	d.registry[RouteKey{Object: object, Category: category}] = fn
}

// Dispatch runs one normalized event through dedup and its handler.
// Every failure is logged and absorbed: the caller processes siblings and
// acks the delivery no matter what happened here.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.NormalizedEvent) {
	logger := slog.With(
		"eventID", event.EventID,
		"resourceID", event.ResourceID,
		"category", string(event.Category),
	)

	if event.Category == models.CategoryUnhandled {
		logger.Info("Skipping unhandled event", "field", event.Field)
		return
	}

	handler, ok := d.registry[RouteKey{Object: event.Object, Category: event.Category}]
	if !ok {
		logger.Warn("No handler registered for event", "object", event.Object)
		return
	}

	first, err := d.guard.MarkProcessed(ctx, event.EventID, event.ReceivedAt)
	if err != nil {
		// Without a working dedup store we cannot prove the event is new;
		// skipping risks loss, proceeding risks a duplicate. Duplicates
		// are the recoverable failure, so proceed.
		logger.Error("Idempotency check failed, processing anyway", "error", err)
	} else if !first {
		logger.Info("Duplicate event, skipping handler")
		return
	}

	if err := d.invoke(ctx, handler, event); err != nil {
		logger.Error("Handler failed", "error", err)
	}
}

// invoke runs the handler under a bounded timeout, converting panics to
// errors so one bad sub-event cannot take down the delivery goroutine
func (d *Dispatcher) invoke(ctx context.Context, handler HandlerFunc, event models.NormalizedEvent) (err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler(ctx, event)
}
