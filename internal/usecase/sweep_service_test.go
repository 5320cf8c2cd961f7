package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

func newTestSweep(store *memStore, querier *MockQuerier) *SweepService {
	purchases := &memPurchases{s: store}
	reconciler := NewReconciliationService(store, purchases, &memActivity{s: store}, nil, zap.NewNop())
	return NewSweepService(store, purchases, querier, reconciler, zap.NewNop())
}

func backdate(store *memStore, id uuid.UUID, age time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()
	p := store.purchases[id]
	p.CreatedAt = time.Now().Add(-age)
	store.purchases[id] = p
}

func TestSweepService_RepairGrants(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestSweep(store, new(MockQuerier))

	orphan := pendingPurchase(store, 300, 0, 2990)
	c := store.purchases[orphan.ID]
	c.Status = model.PurchaseStatusConfirmed
	store.purchases[orphan.ID] = c
	pendingPurchase(store, 100, 0, 990)

	report, err := svc.RepairGrants(ctx, 100)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, int64(300), store.balance(orphan.UserID))

	report, err = svc.RepairGrants(ctx, 100)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, int64(300), store.balance(orphan.UserID))
}

func TestSweepService_RepairGrantsLedgerFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestSweep(store, new(MockQuerier))

	orphan := pendingPurchase(store, 300, 0, 2990)
	c := store.purchases[orphan.ID]
	c.Status = model.PurchaseStatusConfirmed
	store.purchases[orphan.ID] = c
	store.failIncrement = errBoom

	report, err := svc.RepairGrants(ctx, 100)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 0, report.Repaired)
	assert.Equal(t, 0, store.grantCount())
}

func TestSweepService_ResolveStalePending(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves old purchases only", func(t *testing.T) {
		store := newMemStore()
		querier := new(MockQuerier)
		svc := newTestSweep(store, querier)

		paid := pendingPurchase(store, 100, 0, 990)
		backdate(store, paid.ID, 2*time.Hour)
		expired := pendingPurchase(store, 100, 0, 990)
		backdate(store, expired.ID, 2*time.Hour)
		waiting := pendingPurchase(store, 100, 0, 990)
		backdate(store, waiting.ID, 2*time.Hour)
		down := pendingPurchase(store, 100, 0, 990)
		backdate(store, down.ID, 2*time.Hour)
		fresh := pendingPurchase(store, 100, 0, 990)

		byID := func(id string) interface{} {
			return mock.MatchedBy(func(ref provider.Reference) bool { return ref.ID == id })
		}
		querier.On("QueryStatus", mock.Anything, byID(paid.ExternalID())).
			Return(&provider.StatusResult{Outcome: provider.OutcomePaid, PurchaseReference: paid.ID.String()}, nil)
		querier.On("QueryStatus", mock.Anything, byID(expired.ExternalID())).
			Return(&provider.StatusResult{Outcome: provider.OutcomeNotPaid, RawStatus: "expired"}, nil)
		querier.On("QueryStatus", mock.Anything, byID(waiting.ExternalID())).
			Return(&provider.StatusResult{Outcome: provider.OutcomeUnknown, RawStatus: "open"}, nil)
		querier.On("QueryStatus", mock.Anything, byID(down.ExternalID())).
			Return(nil, provider.NewUnavailableError("timeout", "stripe request timed out", ""))

		report, err := svc.ResolveStalePending(ctx, time.Hour, 100)

		require.NoError(t, err)
		assert.Equal(t, 4, report.Scanned)
		assert.Equal(t, 1, report.Confirmed)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 1, report.Pending)
		assert.Equal(t, 1, report.Errors)
		assert.Equal(t, int64(100), store.balance(paid.UserID))
		assert.Equal(t, model.PurchaseStatusPending, store.purchase(fresh.ID).Status)
		assert.Contains(t, report.String(), "confirmed=1")
	})

	t.Run("rejects non-positive age", func(t *testing.T) {
		svc := newTestSweep(newMemStore(), new(MockQuerier))

		_, err := svc.ResolveStalePending(ctx, 0, 10)

		var validationErr *domainErrors.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}
