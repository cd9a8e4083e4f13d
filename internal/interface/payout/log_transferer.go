package payout

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/pkg/logger"
)

// LogTransferer records payouts in the log only. It is used when no payment
// service is configured.
type LogTransferer struct {
	logger logger.Logger
}

// NewLogTransferer creates a new log-only transferer
func NewLogTransferer(logger logger.Logger) *LogTransferer {
	return &LogTransferer{logger: logger}
}

func (t *LogTransferer) Transfer(_ context.Context, to entity.Identity, amount int64) error {
	t.logger.Info("Payout released", "passenger", to, "amount", amount)
	return nil
}
