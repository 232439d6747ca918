package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"gan-backend/models"
	"gan-backend/services"

	"gorm.io/gorm"
)

// PaymentReconcileWorker sweeps purchases stuck in processing. Gateways
// occasionally drop callbacks; anything still processing past the cutoff is
// failed so the user can retry instead of waiting forever.
type PaymentReconcileWorker struct {
	db       *gorm.DB
	payments *services.PaymentService
	interval time.Duration
	cutoff   time.Duration
}

func NewPaymentReconcileWorker(db *gorm.DB, payments *services.PaymentService) *PaymentReconcileWorker {
	return &PaymentReconcileWorker{
		db:       db,
		payments: payments,
		interval: 5 * time.Minute,
		cutoff:   30 * time.Minute,
	}
}

func (w *PaymentReconcileWorker) Start(ctx context.Context) {
	log.Println("[Reconcile] payment reconcile worker started")
	go w.run(ctx)
}

func (w *PaymentReconcileWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sweep(); err != nil {
				log.Printf("[Reconcile] sweep failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("[Reconcile] payment reconcile worker stopped")
			return
		}
	}
}

func (w *PaymentReconcileWorker) sweep() error {
	deadline := time.Now().UTC().Add(-w.cutoff)

	var stale []models.Transaction
	err := w.db.Where("type = ? AND status IN ? AND created_at < ?",
		models.TransactionTypePurchase,
		[]models.TransactionStatus{models.TransactionPending, models.TransactionProcessing},
		deadline).
		Limit(100).
		Find(&stale).Error
	if err != nil {
		return err
	}

	for _, txn := range stale {
		// SettlePurchase re-checks status under lock, so a callback racing
		// this sweep still wins only once.
		err := w.payments.SettlePurchase(txn.ID, false, "", "expired: no gateway confirmation received")
		if err != nil && !errors.Is(err, services.ErrDuplicateCallback) {
			log.Printf("[Reconcile] failed to expire txn %s: %v", txn.ID, err)
			continue
		}
		if err == nil {
			log.Printf("[Reconcile] expired stale purchase %s (user %s)", txn.ID, txn.UserID)
		}
	}
	return nil
}
