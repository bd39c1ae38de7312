package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/repository"
	"github.com/josh-kwaku/payments-processing/internal/testutil"
)

var created = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func createPayment(t *testing.T, db *repository.DB, repo *repository.PaymentRepository, p *domain.Payment) {
	t.Helper()
	err := db.WithinTx(context.Background(), func(tx *sql.Tx) error {
		return repo.Create(context.Background(), tx, p)
	})
	require.NoError(t, err)
}

func TestPaymentRepository_CreateAndGet(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	repo := repository.NewPaymentRepository(pool)
	ctx := context.Background()

	p := testutil.NewPayment(t, domain.PaymentTypeThree, "1500.75", created)
	createPayment(t, db, repo, p)

	got, err := repo.GetByPaymentID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, p.ID(), got.ID())
	assert.Equal(t, domain.PaymentTypeThree, got.Type())
	assert.True(t, p.Amount().Equal(got.Amount()))
	assert.True(t, created.Equal(got.Created()))
	assert.Equal(t, domain.PaymentStateCreated, got.State())

	bic, ok := got.CreditorBic()
	require.True(t, ok)
	assert.Equal(t, testutil.CreditorBic, bic.String())
	_, ok = got.Details()
	assert.False(t, ok)
}

func TestPaymentRepository_GetMissing(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := repository.NewPaymentRepository(pool)

	_, err := repo.GetByPaymentID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetCancellationFee(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaymentRepository_UpdateCancellation(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	repo := repository.NewPaymentRepository(pool)
	ctx := context.Background()

	p := testutil.NewPayment(t, domain.PaymentTypeTwo, "100", created)
	createPayment(t, db, repo, p)

	_, err := repo.GetCancellationFee(ctx, p.ID())
	require.ErrorIs(t, err, domain.ErrNotFound, "active payment has no fee")

	err = db.WithinTx(ctx, func(tx *sql.Tx) error {
		locked, err := repo.GetForUpdate(ctx, tx, p.ID())
		if err != nil {
			return err
		}
		if _, err := locked.Cancel(created.Add(3*time.Hour), domain.HourlyFeePolicy{}); err != nil {
			return err
		}
		return repo.Update(ctx, tx, locked)
	})
	require.NoError(t, err)

	fee, err := repo.GetCancellationFee(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, p.ID(), fee.PaymentID)
	assert.True(t, fee.Fee.Equal(domain.NewMoney(decimal.RequireFromString("0.3"), domain.CurrencyEUR)))

	got, err := repo.GetByPaymentID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStateCancelled, got.State())
	assert.Equal(t, int64(1), got.Version())
}

func TestPaymentRepository_UpdateStaleVersion(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	repo := repository.NewPaymentRepository(pool)
	ctx := context.Background()

	p := testutil.NewPayment(t, domain.PaymentTypeOne, "10", created)
	createPayment(t, db, repo, p)

	stale, err := repo.GetByPaymentID(ctx, p.ID())
	require.NoError(t, err)
	fresh, err := repo.GetByPaymentID(ctx, p.ID())
	require.NoError(t, err)

	_, err = fresh.Cancel(created.Add(time.Hour), domain.HourlyFeePolicy{})
	require.NoError(t, err)
	require.NoError(t, db.WithinTx(ctx, func(tx *sql.Tx) error { return repo.Update(ctx, tx, fresh) }))

	_, err = stale.Cancel(created.Add(2*time.Hour), domain.HourlyFeePolicy{})
	require.NoError(t, err)
	err = db.WithinTx(ctx, func(tx *sql.Tx) error { return repo.Update(ctx, tx, stale) })
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestPaymentRepository_ListActive(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	repo := repository.NewPaymentRepository(pool)
	ctx := context.Background()

	small := testutil.NewPayment(t, domain.PaymentTypeOne, "5", created)
	medium := testutil.NewPayment(t, domain.PaymentTypeTwo, "50", created)
	large := testutil.NewPayment(t, domain.PaymentTypeThree, "500", created)
	cancelled := testutil.NewPayment(t, domain.PaymentTypeTwo, "60", created)
	for _, p := range []*domain.Payment{small, medium, large, cancelled} {
		createPayment(t, db, repo, p)
	}
	_, err := cancelled.Cancel(created.Add(time.Hour), domain.HourlyFeePolicy{})
	require.NoError(t, err)
	require.NoError(t, db.WithinTx(ctx, func(tx *sql.Tx) error { return repo.Update(ctx, tx, cancelled) }))

	dec := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name   string
		filter domain.PaymentFilter
		want   []uuid.UUID
	}{
		{name: "no filter", filter: domain.PaymentFilter{}, want: []uuid.UUID{small.ID(), medium.ID(), large.ID()}},
		{name: "min amount", filter: domain.PaymentFilter{MinAmount: dec("50")}, want: []uuid.UUID{medium.ID(), large.ID()}},
		{name: "max amount", filter: domain.PaymentFilter{MaxAmount: dec("50")}, want: []uuid.UUID{small.ID(), medium.ID()}},
		{name: "currency", filter: domain.PaymentFilter{Currency: domain.CurrencyUSD}, want: []uuid.UUID{small.ID()}},
		{name: "limit", filter: domain.PaymentFilter{Limit: 1}, want: []uuid.UUID{small.ID()}},
		{name: "empty range", filter: domain.PaymentFilter{MinAmount: dec("1000")}, want: []uuid.UUID{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := repo.ListActive(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestOutboxRepository_FIFOAndDelete(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	repo := repository.NewOutboxRepository(pool)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		rec := &domain.OutboxRecord{
			EventID:   uuid.New(),
			EventName: "paymentCancelledEvent",
			Payload:   `{}`,
			CreatedAt: created,
		}
		require.NoError(t, db.WithinTx(ctx, func(tx *sql.Tx) error { return repo.Create(ctx, tx, rec) }))
		ids = append(ids, rec.ID)
	}

	n, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	for _, want := range ids {
		err := db.WithinTx(ctx, func(tx *sql.Tx) error {
			rec, err := repo.GetOldestForUpdate(ctx, tx)
			if err != nil {
				return err
			}
			assert.Equal(t, want, rec.ID)
			return repo.Delete(ctx, tx, rec.ID)
		})
		require.NoError(t, err)
	}

	err = db.WithinTx(ctx, func(tx *sql.Tx) error {
		_, err := repo.GetOldestForUpdate(ctx, tx)
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOutboxRepository_SkipLocked(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	repo := repository.NewOutboxRepository(pool)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rec := &domain.OutboxRecord{EventID: uuid.New(), EventName: "paymentCancelledEvent", Payload: `{}`, CreatedAt: created}
		require.NoError(t, db.WithinTx(ctx, func(tx *sql.Tx) error { return repo.Create(ctx, tx, rec) }))
	}

	first, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer first.Rollback()
	a, err := repo.GetOldestForUpdate(ctx, first)
	require.NoError(t, err)

	second, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer second.Rollback()
	b, err := repo.GetOldestForUpdate(ctx, second)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestRollbackDiscardsPaymentAndOutbox(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	db := repository.NewDB(pool)
	payments := repository.NewPaymentRepository(pool)
	outbox := repository.NewOutboxRepository(pool)
	ctx := context.Background()

	p := testutil.NewPayment(t, domain.PaymentTypeOne, "10", created)
	err := db.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := payments.Create(ctx, tx, p); err != nil {
			return err
		}
		rec := &domain.OutboxRecord{EventID: uuid.New(), EventName: "paymentCreatedEvent", Payload: `{}`, CreatedAt: created}
		if err := outbox.Create(ctx, tx, rec); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, 0, testutil.CountRows(t, pool, "payments"))
	assert.Equal(t, 0, testutil.CountRows(t, pool, "outbox_events"))
}

func TestReceivedEventRepository_Dedupes(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := repository.NewReceivedEventRepository(pool)
	ctx := context.Background()

	ev := &repository.ReceivedEvent{
		EventID:    uuid.New(),
		EventName:  "paymentCreatedEvent",
		PaymentID:  uuid.New(),
		Payload:    `{}`,
		ReceivedAt: created,
	}

	isNew, err := repo.Record(ctx, ev)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = repo.Record(ctx, ev)
	require.NoError(t, err)
	assert.False(t, isNew)

	cancelled := &repository.ReceivedEvent{
		EventID:    uuid.New(),
		EventName:  "paymentCancelledEvent",
		PaymentID:  ev.PaymentID,
		Payload:    `{}`,
		ReceivedAt: created.Add(time.Minute),
	}
	_, err = repo.Record(ctx, cancelled)
	require.NoError(t, err)

	events, err := repo.ListByPayment(ctx, ev.PaymentID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ev.EventID, events[0].EventID)
	assert.Equal(t, "paymentCancelledEvent", events[1].EventName)

	none, err := repo.ListByPayment(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIdempotencyRepository_ReserveCompleteGet(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(pool)
	ctx := context.Background()

	k := repository.IdempotencyKey{Key: "key-1", ClientID: "client-a", Route: "POST /api/v1/payments"}

	reserved, err := repo.Reserve(ctx, k, "abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)

	pending, err := repo.Get(ctx, k)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.False(t, pending.Completed())
	assert.Equal(t, "abc", pending.RequestHash)

	again, err := repo.Reserve(ctx, k, "abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, again, "a live key cannot be reserved twice")

	require.NoError(t, repo.Complete(ctx, k, 201, []byte(`{"success":true}`), time.Hour))

	got, err := repo.Get(ctx, k)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Completed())
	assert.Equal(t, 201, got.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(got.ResponseBody))
	assert.True(t, got.ExpiresAt.After(time.Now().Add(50*time.Minute)))

	require.NoError(t, repo.Release(ctx, k))
	kept, err := repo.Get(ctx, k)
	require.NoError(t, err)
	assert.NotNil(t, kept, "release leaves completed entries alone")
}

func TestIdempotencyRepository_Scoping(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(pool)
	ctx := context.Background()

	base := repository.IdempotencyKey{Key: "key-1", ClientID: "client-a", Route: "POST /api/v1/payments"}
	otherClient := base
	otherClient.ClientID = "client-b"
	otherRoute := base
	otherRoute.Route = "PUT /api/v1/payments/{id}/cancellation"

	for _, k := range []repository.IdempotencyKey{base, otherClient, otherRoute} {
		reserved, err := repo.Reserve(ctx, k, "abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, reserved, "%+v", k)
	}
	assert.Equal(t, 3, testutil.CountRows(t, pool, "idempotency_cache"))
}

func TestIdempotencyRepository_ReleaseAndExpiry(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(pool)
	ctx := context.Background()

	k := repository.IdempotencyKey{Key: "key-1", ClientID: "client-a", Route: "POST /api/v1/payments"}

	_, err := repo.Reserve(ctx, k, "abc", time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.Release(ctx, k))
	assert.Zero(t, testutil.CountRows(t, pool, "idempotency_cache"))

	_, err = repo.Reserve(ctx, k, "abc", time.Minute)
	require.NoError(t, err)
	_, err = pool.ExecContext(ctx, `UPDATE idempotency_cache SET expires_at = now() - interval '1 second'`)
	require.NoError(t, err)

	expired, err := repo.Get(ctx, k)
	require.NoError(t, err)
	assert.Nil(t, expired)

	reclaimed, err := repo.Reserve(ctx, k, "def", time.Minute)
	require.NoError(t, err)
	assert.True(t, reclaimed, "expired entries are reclaimed")

	got, err := repo.Get(ctx, k)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "def", got.RequestHash)

	_, err = pool.ExecContext(ctx, `UPDATE idempotency_cache SET expires_at = now() - interval '1 second'`)
	require.NoError(t, err)
	n, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRunMigrations_SkipsApplied(t *testing.T) {
	pool := testutil.SetupTestDB(t)

	applied, err := repository.RunMigrations(context.Background(), pool, repository.FindMigrationsDir())
	require.NoError(t, err)
	assert.Empty(t, applied)
}
