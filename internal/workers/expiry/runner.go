package expiry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"prismfinance/internal/domain"
	"prismfinance/internal/ports"
)

// Runner polls for contracts whose expires_at has passed and moves them to
// expired. Signed and already-terminal contracts are never touched: the
// repository only returns draft and pending ids, and Expire re-checks under
// the row lock.
type Runner struct {
	repo         ports.ContractRepository
	pollInterval time.Duration
	batchSize    int
}

func New(repo ports.ContractRepository, pollInterval time.Duration, batchSize int) *Runner {
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Runner{repo: repo, pollInterval: pollInterval, batchSize: batchSize}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

func (r *Runner) sweep(ctx context.Context) error {
	now := time.Now().UTC()
	ids, err := r.repo.ListOverdue(ctx, now, r.batchSize)
	if err != nil {
		return err
	}
	for _, id := range ids {
		_, err := r.repo.MutateContract(ctx, id, func(c *domain.Contract) error {
			return c.Expire(now)
		})
		switch {
		case err == nil:
			slog.Info("contract expired", "contract_id", id)
		case errors.Is(err, domain.ErrContractAlreadyFinal), errors.Is(err, domain.ErrNotFound):
			// Raced with a sign, cancel or delete between the listing and the
			// lock. Nothing to do.
		default:
			return err
		}
	}
	return nil
}
