package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
	"github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

// SweepReport counts what a sweep did
type SweepReport struct {
	Scanned   int
	Confirmed int
	Failed    int
	Pending   int
	Repaired  int
	Errors    int
}

// SweepService repairs purchases that no trigger finished. It is run by an operator, not on a timer.
type SweepService struct {
	transactor repository.Transactor
	purchases  repository.PurchaseRepository
	querier    provider.StatusQuerier
	reconciler Resolver
	logger     *zap.Logger
}

// NewSweepService creates a new sweep service
func NewSweepService(
	transactor repository.Transactor,
	purchases repository.PurchaseRepository,
	querier provider.StatusQuerier,
	reconciler Resolver,
	logger *zap.Logger,
) *SweepService {
	return &SweepService{
		transactor: transactor,
		purchases:  purchases,
		querier:    querier,
		reconciler: reconciler,
		logger:     logger,
	}
}

// RepairGrants credits confirmed purchases that have no grant row,
// e.g. purchases confirmed by an older deployment or by hand.
func (s *SweepService) RepairGrants(ctx context.Context, limit int) (*SweepReport, error) {
	purchases, err := s.purchases.ListConfirmedWithoutGrant(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(purchases)}
	for _, p := range purchases {
		granted := false
		err := s.transactor.WithinTransaction(ctx, func(stores repository.Stores) error {
			inserted, err := stores.Ledger.RecordGrant(ctx, &model.CreditGrant{
				PurchaseID: p.ID,
				UserID:     p.UserID,
				Credits:    p.TotalCredits,
			})
			if err != nil || !inserted {
				return err
			}
			granted = true
			return stores.Ledger.IncrementBalance(ctx, p.UserID, p.TotalCredits)
		})
		if err != nil {
			report.Errors++
			s.logger.Error("Failed to repair grant",
				zap.String("purchase_id", p.ID.String()),
				zap.Error(err))
			continue
		}
		if granted {
			report.Repaired++
			s.logger.Info("Repaired missing credit grant",
				zap.String("purchase_id", p.ID.String()),
				zap.String("user_id", p.UserID.String()),
				zap.Int64("credits", p.TotalCredits))
		}
	}

	return report, nil
}

// ResolveStalePending asks the provider about pending purchases older than olderThan,
// through the same path a client poll takes.
func (s *SweepService) ResolveStalePending(ctx context.Context, olderThan time.Duration, limit int) (*SweepReport, error) {
	if olderThan <= 0 {
		return nil, domainErrors.NewValidationError("older_than", "must be positive")
	}

	purchases, err := s.purchases.ListPendingOlderThan(ctx, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(purchases)}
	for _, p := range purchases {
		status, err := resolveFromProvider(ctx, s.querier, s.reconciler, p, s.logger)
		if err != nil {
			report.Errors++
			level := s.logger.Warn
			if !provider.IsRetryable(err) && !errors.Is(err, provider.ErrInvalidReference) {
				level = s.logger.Error
			}
			level("Failed to resolve stale purchase",
				zap.String("purchase_id", p.ID.String()),
				zap.String("provider", string(p.PaymentProvider)),
				zap.Error(err))
			continue
		}

		switch status {
		case model.PurchaseStatusConfirmed:
			report.Confirmed++
		case model.PurchaseStatusFailed:
			report.Failed++
		default:
			report.Pending++
		}
	}

	return report, nil
}

func (r *SweepReport) String() string {
	return fmt.Sprintf("scanned=%d confirmed=%d failed=%d pending=%d repaired=%d errors=%d",
		r.Scanned, r.Confirmed, r.Failed, r.Pending, r.Repaired, r.Errors)
}
