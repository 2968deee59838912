package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/viha/freshmart-api/internal/kafka"
	"github.com/viha/freshmart-api/internal/orders"
	"github.com/viha/freshmart-api/internal/redisx"
)

// ReservationStore is the slice of the reservation repo the handler needs.
type ReservationStore interface {
	AlreadyReserved(ctx context.Context, orderID string, itemCount int) (bool, error)
	ReserveAll(ctx context.Context, orderID string, items []orders.ItemQty) (bool, []orders.StockRejectedDetail, error)
}

// StatusStore applies order status transitions.
type StatusStore interface {
	SetStatus(ctx context.Context, orderID string, to orders.Status) error
}

// EventDedup tracks which event ids have reached a terminal outcome.
type EventDedup interface {
	Seen(ctx context.Context, eventID string) bool
	Mark(ctx context.Context, eventID string)
}

// EventPublisher is satisfied by kafka.Producer.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

var _ EventPublisher = (*kafkax.Producer)(nil)
var _ ReservationStore = (*orders.ReservationRepo)(nil)
var _ StatusStore = (*orders.Repo)(nil)

// RedisDedup backs EventDedup with the shared dedup keys.
type RedisDedup struct {
	Redis *redis.Client
}

func (d *RedisDedup) Seen(ctx context.Context, eventID string) bool {
	key := fmt.Sprintf(redisx.KeyDedup, "fulfillment", eventID)
	exists, _ := redisx.Exists(ctx, d.Redis, key)
	return exists
}

func (d *RedisDedup) Mark(ctx context.Context, eventID string) {
	key := fmt.Sprintf(redisx.KeyDedup, "fulfillment", eventID)
	_ = d.Redis.Set(ctx, key, "1", redisx.TTLDedup).Err()
}

type Service struct {
	Repo           ReservationStore
	Orders         StatusStore
	Dedup          EventDedup
	Redis          *redis.Client // order status cache
	ProducerOK     EventPublisher // publishes order.stock.reserved
	ProducerReject EventPublisher // publishes order.stock.rejected
	ServiceName    string
}

// HandleOrderPlaced is wired as the consumer handler for order.placed.
// The event is marked processed only once a terminal outcome (reserved or
// rejected) is reached: a transient repo error returns before the mark, so the
// uncommitted offset gets redelivered and retried instead of short-circuiting
// on a stale dedup key. AlreadyReserved keeps replays of a completed reserve
// idempotent.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil // ignore
	}

	if s.Dedup.Seen(ctx, env.EventID) {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	items := make([]orders.ItemQty, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, orders.ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}

	// replayed event whose reserve already committed
	if ok, _ := s.Repo.AlreadyReserved(ctx, p.OrderID, len(items)); ok {
		s.Dedup.Mark(ctx, env.EventID)
		return s.publishReserved(ctx, p.OrderID, items, env.TraceID)
	}

	ok, details, err := s.Repo.ReserveAll(ctx, p.OrderID, items)
	if err != nil {
		return err // not marked: redelivery retries the reserve
	}
	if ok {
		s.markOrder(ctx, p.OrderID, orders.StatusStockReserved)
		s.Dedup.Mark(ctx, env.EventID)
		return s.publishReserved(ctx, p.OrderID, items, env.TraceID)
	}
	s.markOrder(ctx, p.OrderID, orders.StatusFailed)
	s.Dedup.Mark(ctx, env.EventID)
	return s.publishRejected(ctx, p.OrderID, details, env.TraceID)
}

// markOrder applies the status transition and refreshes the status cache.
// Best effort: a failed write here never blocks the event flow.
func (s *Service) markOrder(ctx context.Context, orderID string, to orders.Status) {
	if err := s.Orders.SetStatus(ctx, orderID, to); err != nil {
		slog.Warn("order status update failed", "order", orderID, "to", to, "err", err)
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = s.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, to), redisx.TTLStatusCache).Err()
}

func (s *Service) publishReserved(ctx context.Context, orderID string, items []orders.ItemQty, trace string) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStockReserved,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(orders.StockReservedPayload{OrderID: orderID, Items: items}),
	}
	s.ProducerOK.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockReserved)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

func (s *Service) publishRejected(ctx context.Context, orderID string, details []orders.StockRejectedDetail, trace string) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStockRejected,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.StockRejectedPayload{
			OrderID: orderID, Reason: "OUT_OF_STOCK", Details: details,
		}),
	}
	s.ProducerReject.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}
