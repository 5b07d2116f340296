package ports

import (
	"context"
	"time"
)

// CheckoutLedger remembers the transaction ids handed to the gateway and the
// grand total each was issued for.
type CheckoutLedger interface {
	Reserve(ctx context.Context, transactionID, total string, ttl time.Duration) (bool, error)
	Lookup(ctx context.Context, transactionID string) (string, bool, error)
}
