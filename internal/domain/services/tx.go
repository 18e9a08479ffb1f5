package services

import (
	"context"
	"time"

	"github.com/ersonp/connexions/internal/domain/ports"
)

// withinTx runs fn in a transaction when tx is set, otherwise directly.
func withinTx(ctx context.Context, tx ports.Transactor, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.WithinTx(ctx, fn)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string) {}
func (noopMetrics) ObserveRevisionConflict() {}
func (noopMetrics) ObserveMerge(time.Duration) {}
