package ports

import (
	"context"
	"time"

	"github.com/yuzvak/storefront/internal/domain/payment"
)

type PaymentRecord struct {
	OrderID    string
	Amount     string
	RefID      string
	Status     payment.Status
	Message    string
	VerifiedAt time.Time
}

type PaymentRecorder interface {
	Record(ctx context.Context, record PaymentRecord) error
}
