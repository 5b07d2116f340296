package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

const ledgerKeyPrefix = "checkout:"

// CheckoutLedger records each issued transaction id with its grand total.
// SETNX makes the first writer win, which is how duplicate ids are detected
// across server instances.
type CheckoutLedger struct {
	client *redis.Client
	logger *logger.Logger
}

func NewCheckoutLedger(conn *Connection, log *logger.Logger) *CheckoutLedger {
	return &CheckoutLedger{
		client: conn.GetClient(),
		logger: log,
	}
}

func (l *CheckoutLedger) Reserve(ctx context.Context, transactionID, total string, ttl time.Duration) (bool, error) {
	reserved, err := l.client.SetNX(ctx, ledgerKey(transactionID), total, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", transactionID, err)
	}
	monitoring.RecordLedgerReservation(reserved)
	if !reserved {
		l.logger.Debug("Transaction id already in ledger", "transaction_uuid", transactionID)
	}
	return reserved, nil
}

func (l *CheckoutLedger) Lookup(ctx context.Context, transactionID string) (string, bool, error) {
	total, err := l.client.Get(ctx, ledgerKey(transactionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", transactionID, err)
	}
	return total, true, nil
}

func ledgerKey(transactionID string) string {
	return ledgerKeyPrefix + transactionID
}
