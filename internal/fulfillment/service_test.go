package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/viha/freshmart-api/internal/kafka"
	"github.com/viha/freshmart-api/internal/orders"
)

type fakeReservations struct {
	alreadyReserved bool
	reserveErr      error
	rejects         []orders.StockRejectedDetail
	reserveCalls    int
}

func (f *fakeReservations) AlreadyReserved(ctx context.Context, orderID string, n int) (bool, error) {
	return f.alreadyReserved, nil
}

func (f *fakeReservations) ReserveAll(ctx context.Context, orderID string, items []orders.ItemQty) (bool, []orders.StockRejectedDetail, error) {
	f.reserveCalls++
	if f.reserveErr != nil {
		return false, nil, f.reserveErr
	}
	if len(f.rejects) > 0 {
		return false, f.rejects, nil
	}
	return true, nil, nil
}

type fakeStatuses struct {
	transitions []orders.Status
}

func (f *fakeStatuses) SetStatus(ctx context.Context, orderID string, to orders.Status) error {
	f.transitions = append(f.transitions, to)
	return nil
}

type memDedup struct {
	seen map[string]bool
}

func newMemDedup() *memDedup { return &memDedup{seen: map[string]bool{}} }

func (d *memDedup) Seen(ctx context.Context, eventID string) bool { return d.seen[eventID] }
func (d *memDedup) Mark(ctx context.Context, eventID string)      { d.seen[eventID] = true }

type capturingPublisher struct {
	events []orders.Envelope
}

func (p *capturingPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(value, &env); err == nil {
		p.events = append(p.events, env)
	}
}

type fixture struct {
	svc      *Service
	repo     *fakeReservations
	statuses *fakeStatuses
	dedup    *memDedup
	ok       *capturingPublisher
	reject   *capturingPublisher
}

func newFixture() *fixture {
	f := &fixture{
		repo:     &fakeReservations{},
		statuses: &fakeStatuses{},
		dedup:    newMemDedup(),
		ok:       &capturingPublisher{},
		reject:   &capturingPublisher{},
	}
	f.svc = &Service{
		Repo:           f.repo,
		Orders:         f.statuses,
		Dedup:          f.dedup,
		// nothing listens here; status cache writes are best effort and their
		// errors are swallowed
		Redis:          redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		ProducerOK:     f.ok,
		ProducerReject: f.reject,
		ServiceName:    "test-fulfillment",
	}
	return f
}

func placedMessage(t *testing.T, eventID, orderID string) kafkago.Message {
	t.Helper()
	ev := orders.Envelope{
		EventID:      eventID,
		EventType:    orders.EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID: orderID,
			Items:   []orders.ItemPrice{{ProductID: "p-1", Qty: 2}},
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(ev)}
}

func TestHandleReservesAndMarks(t *testing.T) {
	f := newFixture()
	eventID := uuid.NewString()

	err := f.svc.HandleOrderPlaced(context.Background(), placedMessage(t, eventID, "o-1"))
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.reserveCalls)
	assert.Equal(t, []orders.Status{orders.StatusStockReserved}, f.statuses.transitions)
	require.Len(t, f.ok.events, 1)
	assert.Equal(t, orders.EventStockReserved, f.ok.events[0].EventType)
	assert.Empty(t, f.reject.events)
	assert.True(t, f.dedup.seen[eventID])
}

func TestHandleSkipsSeenEvent(t *testing.T) {
	f := newFixture()
	eventID := uuid.NewString()
	f.dedup.seen[eventID] = true

	err := f.svc.HandleOrderPlaced(context.Background(), placedMessage(t, eventID, "o-1"))
	require.NoError(t, err)

	assert.Zero(t, f.repo.reserveCalls)
	assert.Empty(t, f.ok.events)
	assert.Empty(t, f.reject.events)
}

func TestHandleIgnoresOtherEventTypes(t *testing.T) {
	f := newFixture()
	ev := orders.Envelope{EventID: uuid.NewString(), EventType: orders.EventStockReserved}

	err := f.svc.HandleOrderPlaced(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(ev)})
	require.NoError(t, err)
	assert.Zero(t, f.repo.reserveCalls)
}

// Replay after a committed reserve re-publishes without touching stock again.
func TestHandleAlreadyReservedShortCircuit(t *testing.T) {
	f := newFixture()
	f.repo.alreadyReserved = true
	eventID := uuid.NewString()

	err := f.svc.HandleOrderPlaced(context.Background(), placedMessage(t, eventID, "o-1"))
	require.NoError(t, err)

	assert.Zero(t, f.repo.reserveCalls)
	require.Len(t, f.ok.events, 1)
	assert.True(t, f.dedup.seen[eventID])
	assert.Empty(t, f.statuses.transitions)
}

func TestHandleRejectsOnShortStock(t *testing.T) {
	f := newFixture()
	f.repo.rejects = []orders.StockRejectedDetail{{ProductID: "p-1", Required: 2, Available: 1}}
	eventID := uuid.NewString()

	err := f.svc.HandleOrderPlaced(context.Background(), placedMessage(t, eventID, "o-1"))
	require.NoError(t, err)

	assert.Empty(t, f.ok.events)
	require.Len(t, f.reject.events, 1)
	assert.Equal(t, orders.EventStockRejected, f.reject.events[0].EventType)
	assert.Equal(t, []orders.Status{orders.StatusFailed}, f.statuses.transitions)
	assert.True(t, f.dedup.seen[eventID])
}

// A transient reserve error must leave the event unmarked so the redelivery
// actually retries instead of short-circuiting on the dedup key.
func TestHandleTransientErrorRetriesOnRedelivery(t *testing.T) {
	f := newFixture()
	f.repo.reserveErr = errors.New("db connection reset")
	eventID := uuid.NewString()
	msg := placedMessage(t, eventID, "o-1")

	err := f.svc.HandleOrderPlaced(context.Background(), msg)
	require.Error(t, err)
	assert.False(t, f.dedup.seen[eventID], "failed attempt must not mark the event processed")
	assert.Empty(t, f.ok.events)

	// redelivery after the DB recovers
	f.repo.reserveErr = nil
	err = f.svc.HandleOrderPlaced(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.reserveCalls)
	require.Len(t, f.ok.events, 1)
	assert.True(t, f.dedup.seen[eventID])
}
