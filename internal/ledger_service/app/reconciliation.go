package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

const reconciliationTimeout = 2 * time.Minute

// Reconciler periodically compares each balance with the sum of its
// transactions. It only reports; it never corrects balances.
type Reconciler struct {
	db       database.Querier
	txns     repository.TransactionRepository
	schedule string
	logger   *slog.Logger
}

func NewReconciler(db database.Querier, txns repository.TransactionRepository, schedule string, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		db:       db,
		txns:     txns,
		schedule: schedule,
		logger:   logger.With("component", "reconciler"),
	}
}

// RunOnce performs a single reconciliation pass.
func (r *Reconciler) RunOnce(ctx context.Context) ([]domain.BalanceDrift, error) {
	defer observe("reconcile", time.Now())

	drifts, err := r.txns.FindBalanceDrift(ctx, r.db)
	if err != nil {
		return nil, err
	}
	reconciliationMismatchGauge.Set(float64(len(drifts)))
	for _, d := range drifts {
		r.logger.ErrorContext(ctx, "Balance does not match transaction log",
			"user_id", d.UserID,
			"balance", d.Balance.StringFixed(2),
			"computed", d.Computed.StringFixed(2),
		)
	}
	if len(drifts) == 0 {
		r.logger.DebugContext(ctx, "Reconciliation clean")
	}
	return drifts, nil
}

// Start schedules RunOnce and blocks until ctx is done.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.schedule == "" {
		r.logger.Info("Reconciliation disabled")
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, reconciliationTimeout)
		defer cancel()
		if _, err := r.RunOnce(runCtx); err != nil {
			r.logger.Error("Reconciliation run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconciliation schedule %q: %w", r.schedule, err)
	}

	c.Start()
	r.logger.Info("Reconciliation scheduled", "schedule", r.schedule)
	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("Reconciliation stopped")
	return nil
}
