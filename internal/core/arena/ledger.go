package arena

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeusync/arena/internal/core/observability/log"
)

// Ledger is the external currency account store. Deposits happen when
// a participant's match points convert on reward.
type Ledger interface {
	Deposit(id uuid.UUID, amount float64) error
}

// LogLedger records deposits to the log only. Used when no account
// backend is wired.
type LogLedger struct {
	Log log.Log
}

func (l *LogLedger) Deposit(id uuid.UUID, amount float64) error {
	l.Log.Info("deposited currency",
		zap.String("player", id.String()),
		zap.Float64("amount", amount))

	return nil
}
