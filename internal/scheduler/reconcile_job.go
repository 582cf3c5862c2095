package scheduler

import (
	"context"
	"fmt"

	"gala-ops/internal/guest"
	"gala-ops/internal/notify"

	"go.uber.org/zap"
)

// ReconcileJob periodically re-derives every guest's summary from the ledger
// and reports anomalies to the ops chat
type ReconcileJob struct {
	guestService *guest.Service
	notifier     *notify.Notifier
	logger       *zap.Logger
}

// NewReconcileJob creates the reconciliation job
func NewReconcileJob(guestService *guest.Service, notifier *notify.Notifier, logger *zap.Logger) *ReconcileJob {
	return &ReconcileJob{
		guestService: guestService,
		notifier:     notifier,
		logger:       logger,
	}
}

// Run performs one reconciliation sweep
func (j *ReconcileJob) Run(ctx context.Context) error {
	findings, err := j.guestService.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation sweep failed: %w", err)
	}

	if len(findings) == 0 {
		return nil
	}

	for _, f := range findings {
		j.logger.Warn("reconciliation finding",
			zap.String("guest_id", f.GuestID),
			zap.String("kind", f.Kind),
			zap.String("detail", f.Detail))
	}

	// One digest per sweep, not one alert per finding
	j.notifier.Alert("%s", guest.FindingsDigest(findings))

	return nil
}
