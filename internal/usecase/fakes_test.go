package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
	"github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

// memStore is an in-memory database. A transaction holds the lock for its whole
// duration and restores a snapshot when it fails, like a serializable transaction.
type memStore struct {
	mu        sync.Mutex
	purchases map[uuid.UUID]model.CreditPurchase
	grants    map[uuid.UUID]model.CreditGrant
	balances  map[uuid.UUID]int64
	activity  []model.ActivityLog

	incrementCalls int
	failIncrement  error
	failActivity   error
}

func newMemStore() *memStore {
	return &memStore{
		purchases: make(map[uuid.UUID]model.CreditPurchase),
		grants:    make(map[uuid.UUID]model.CreditGrant),
		balances:  make(map[uuid.UUID]int64),
	}
}

func (s *memStore) addPurchase(p model.CreditPurchase) *model.CreditPurchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = model.PurchaseStatusPending
	}
	p.TotalCredits = p.BaseCredits + p.BonusCredits
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.purchases[p.ID] = p
	return &p
}

func (s *memStore) purchase(id uuid.UUID) model.CreditPurchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchases[id]
}

func (s *memStore) balance(userID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

func (s *memStore) grantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

func (s *memStore) increments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementCalls
}

func (s *memStore) activityEntries() []model.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ActivityLog(nil), s.activity...)
}

// WithinTransaction implements repository.Transactor
func (s *memStore) WithinTransaction(_ context.Context, fn func(repository.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchases := make(map[uuid.UUID]model.CreditPurchase, len(s.purchases))
	for k, v := range s.purchases {
		purchases[k] = v
	}
	grants := make(map[uuid.UUID]model.CreditGrant, len(s.grants))
	for k, v := range s.grants {
		grants[k] = v
	}
	balances := make(map[uuid.UUID]int64, len(s.balances))
	for k, v := range s.balances {
		balances[k] = v
	}
	increments := s.incrementCalls

	err := fn(repository.Stores{
		Purchases: &memPurchases{s: s, inTx: true},
		Ledger:    &memLedger{s: s, inTx: true},
	})
	if err != nil {
		s.purchases, s.grants, s.balances, s.incrementCalls = purchases, grants, balances, increments
	}
	return err
}

func (s *memStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memPurchases struct {
	s    *memStore
	inTx bool
}

func (r *memPurchases) Create(_ context.Context, in *model.NewPurchase) (*model.CreditPurchase, error) {
	if in.BaseCredits <= 0 || in.PriceMinor <= 0 || in.BonusCredits < 0 {
		return nil, domainErrors.NewValidationError("economics", "must be positive")
	}
	if !in.PaymentProvider.IsValid() || !in.PaymentMethod.IsValid() {
		return nil, domainErrors.NewValidationError("provider", "invalid")
	}
	return r.s.addPurchase(model.CreditPurchase{
		UserID:          in.UserID,
		PackageID:       in.PackageID,
		BaseCredits:     in.BaseCredits,
		BonusCredits:    in.BonusCredits,
		PriceMinor:      in.PriceMinor,
		Currency:        in.Currency,
		PaymentProvider: in.PaymentProvider,
		PaymentMethod:   in.PaymentMethod,
	}), nil
}

func (r *memPurchases) GetByID(_ context.Context, id uuid.UUID) (*model.CreditPurchase, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.purchases[id]
	if !ok {
		return nil, domainErrors.ErrPurchaseNotFound
	}
	return &p, nil
}

func (r *memPurchases) GetByExternalID(_ context.Context, prov model.PaymentProvider, externalID string) (*model.CreditPurchase, error) {
	defer r.s.lock(r.inTx)()
	for _, p := range r.s.purchases {
		if p.PaymentProvider == prov && p.ExternalID() == externalID {
			return &p, nil
		}
	}
	return nil, domainErrors.ErrPurchaseNotFound
}

func (r *memPurchases) ClaimPendingForTransition(_ context.Context, id uuid.UUID, target model.PurchaseStatus) (*model.CreditPurchase, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.purchases[id]
	if !ok || p.Status != model.PurchaseStatusPending {
		return nil, domainErrors.ErrPurchaseNotFound
	}
	now := time.Now()
	p.Status = target
	p.UpdatedAt = now
	p.ResolvedAt = &now
	r.s.purchases[id] = p
	return &p, nil
}

func (r *memPurchases) AttachExternalID(_ context.Context, id uuid.UUID, externalID string) error {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.purchases[id]
	if !ok {
		return domainErrors.ErrPurchaseNotFound
	}
	for otherID, other := range r.s.purchases {
		if otherID != id && other.PaymentProvider == p.PaymentProvider && other.ExternalID() == externalID {
			return domainErrors.ErrExternalIDConflict
		}
	}
	if p.HasExternalID() {
		if p.ExternalID() == externalID {
			return nil
		}
		return domainErrors.ErrExternalIDConflict
	}
	p.ExternalPaymentID = &externalID
	r.s.purchases[id] = p
	return nil
}

func (r *memPurchases) ListPendingOlderThan(_ context.Context, cutoff time.Time, _ int) ([]*model.CreditPurchase, error) {
	defer r.s.lock(r.inTx)()
	var out []*model.CreditPurchase
	for _, p := range r.s.purchases {
		p := p
		if p.Status == model.PurchaseStatusPending && p.HasExternalID() && p.CreatedAt.Before(cutoff) {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *memPurchases) ListConfirmedWithoutGrant(_ context.Context, _ int) ([]*model.CreditPurchase, error) {
	defer r.s.lock(r.inTx)()
	var out []*model.CreditPurchase
	for _, p := range r.s.purchases {
		p := p
		if _, granted := r.s.grants[p.ID]; p.Status == model.PurchaseStatusConfirmed && !granted {
			out = append(out, &p)
		}
	}
	return out, nil
}

type memLedger struct {
	s    *memStore
	inTx bool
}

func (l *memLedger) IncrementBalance(_ context.Context, userID uuid.UUID, credits int64) error {
	defer l.s.lock(l.inTx)()
	if l.s.failIncrement != nil {
		return l.s.failIncrement
	}
	l.s.incrementCalls++
	l.s.balances[userID] += credits
	return nil
}

func (l *memLedger) RecordGrant(_ context.Context, grant *model.CreditGrant) (bool, error) {
	defer l.s.lock(l.inTx)()
	if _, exists := l.s.grants[grant.PurchaseID]; exists {
		return false, nil
	}
	l.s.grants[grant.PurchaseID] = *grant
	return true, nil
}

func (l *memLedger) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	defer l.s.lock(l.inTx)()
	return l.s.balances[userID], nil
}

type memActivity struct{ s *memStore }

func (a *memActivity) Append(_ context.Context, entry *model.ActivityLog) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if a.s.failActivity != nil {
		return a.s.failActivity
	}
	a.s.activity = append(a.s.activity, *entry)
	return nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []interface{}
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, message)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// MockQuerier is a mock implementation of provider.StatusQuerier
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) QueryStatus(ctx context.Context, ref provider.Reference) (*provider.StatusResult, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.StatusResult), args.Error(1)
}

// MockGateway is a mock implementation of provider.Gateway
type MockGateway struct {
	mock.Mock
	name model.PaymentProvider
}

func (m *MockGateway) Name() model.PaymentProvider { return m.name }

func (m *MockGateway) QueryStatus(ctx context.Context, ref provider.Reference) (*provider.StatusResult, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.StatusResult), args.Error(1)
}

func (m *MockGateway) CreateCheckout(ctx context.Context, req *provider.CheckoutRequest) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, headers http.Header) (*provider.WebhookEvent, error) {
	args := m.Called(payload, headers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.WebhookEvent), args.Error(1)
}

// gatewaySet resolves gateways from a map
type gatewaySet map[model.PaymentProvider]provider.Gateway

func (g gatewaySet) Gateway(p model.PaymentProvider) (provider.Gateway, error) {
	gw, ok := g[p]
	if !ok {
		return nil, domainErrors.ErrProviderNotConfigured
	}
	return gw, nil
}

var errBoom = errors.New("boom")
