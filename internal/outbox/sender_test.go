package outbox_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/outbox"
	"github.com/josh-kwaku/payments-processing/internal/repository"
	"github.com/josh-kwaku/payments-processing/internal/testutil"
)

type mockConduit struct {
	mock.Mock
}

func (m *mockConduit) Send(ctx context.Context, event domain.PaymentEvent) error {
	return m.Called(ctx, event).Error(0)
}

type harness struct {
	pool      *sql.DB
	db        *repository.DB
	publisher *outbox.Publisher
	conduit   *mockConduit
	sender    *outbox.Sender
}

func setup(t *testing.T) *harness {
	t.Helper()

	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	store := repository.NewOutboxRepository(pool)
	conduit := &mockConduit{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &harness{
		pool:      pool,
		db:        db,
		publisher: outbox.NewPublisher(store, domain.SystemClock{}),
		conduit:   conduit,
		sender:    outbox.NewSender(store, db, conduit, logger, 10*time.Millisecond),
	}
}

func (h *harness) publish(t *testing.T, events ...domain.PaymentEvent) {
	t.Helper()
	for _, ev := range events {
		err := h.db.WithinTx(context.Background(), func(tx *sql.Tx) error {
			return h.publisher.Publish(context.Background(), tx, ev)
		})
		require.NoError(t, err)
	}
}

func TestSender_DeliversAndDeletes(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	event := domain.NewPaymentCreated(uuid.New(), domain.PaymentTypeOne)
	h.publish(t, event)
	h.conduit.On("Send", mock.Anything, domain.PaymentEvent(event)).Return(nil).Once()

	delivered, err := h.sender.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, 0, testutil.CountRows(t, h.pool, "outbox_events"))
	h.conduit.AssertExpectations(t)
}

func TestSender_EmptyOutbox(t *testing.T) {
	h := setup(t)

	delivered, err := h.sender.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, delivered)
	h.conduit.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSender_FailureKeepsRecordForRetry(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	event := domain.NewPaymentCancelled(uuid.New())
	h.publish(t, event)

	h.conduit.On("Send", mock.Anything, domain.PaymentEvent(event)).Return(errors.New("sink unavailable")).Once()
	_, err := h.sender.RunOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, testutil.CountRows(t, h.pool, "outbox_events"))

	h.conduit.On("Send", mock.Anything, domain.PaymentEvent(event)).Return(nil).Once()
	delivered, err := h.sender.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, 0, testutil.CountRows(t, h.pool, "outbox_events"))
	h.conduit.AssertExpectations(t)
}

func TestSender_DeliversInInsertionOrder(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	paymentID := uuid.New()
	created := domain.NewPaymentCreated(paymentID, domain.PaymentTypeTwo)
	cancelled := domain.NewPaymentCancelled(paymentID)
	h.publish(t, created, cancelled)

	var order []domain.EventName
	h.conduit.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		order = append(order, args.Get(1).(domain.PaymentEvent).Name())
	}).Return(nil)

	n, err := h.sender.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []domain.EventName{domain.EventPaymentCreated, domain.EventPaymentCancelled}, order)
}

func TestSender_MalformedRecordStaysAtHead(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	_, err := h.pool.Exec(
		`INSERT INTO outbox_events (event_id, event_name, payload, created_at) VALUES ($1, $2, $3, now())`,
		uuid.New(), "paymentCreatedEvent", `{"event-type":"paymentRefundedEvent"}`,
	)
	require.NoError(t, err)

	_, err = h.sender.RunOnce(ctx)
	require.ErrorIs(t, err, domain.ErrUnknownEvent)
	assert.Equal(t, 1, testutil.CountRows(t, h.pool, "outbox_events"))
	h.conduit.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSender_StartStopsOnCancel(t *testing.T) {
	h := setup(t)
	h.publish(t, domain.NewPaymentCancelled(uuid.New()))
	h.conduit.On("Send", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.sender.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var n int
		err := h.pool.QueryRow(`SELECT count(*) FROM outbox_events`).Scan(&n)
		return err == nil && n == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sender did not stop")
	}
}

func TestSender_RecordsDeliverySpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := setup(t)
	ctx := context.Background()

	ok := domain.NewPaymentCreated(uuid.New(), domain.PaymentTypeOne)
	failing := domain.NewPaymentCancelled(uuid.New())
	h.publish(t, ok, failing)
	h.conduit.On("Send", mock.Anything, domain.PaymentEvent(ok)).Return(nil).Once()
	h.conduit.On("Send", mock.Anything, domain.PaymentEvent(failing)).Return(errors.New("downstream unavailable")).Once()

	_, err := h.sender.RunOnce(ctx)
	require.NoError(t, err)
	_, err = h.sender.RunOnce(ctx)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "outbox.deliver", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("event.id", ok.EventID.String()))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Contains(t, spans[1].Attributes(), attribute.String("event.type", string(domain.EventPaymentCancelled)))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
