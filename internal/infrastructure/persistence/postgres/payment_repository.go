package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/yuzvak/storefront/internal/application/ports"
	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
)

// PaymentRepository is the audit trail of gateway verifications.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(conn *Connection) *PaymentRepository {
	return &PaymentRepository{db: conn.GetDB()}
}

func (r *PaymentRepository) Record(ctx context.Context, record ports.PaymentRecord) error {
	query := `
		INSERT INTO payment_verifications (order_id, amount, ref_id, status, message, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := monitoring.InstrumentExec(ctx, r.db, "INSERT", "payment_verifications", query,
		record.OrderID,
		record.Amount,
		record.RefID,
		string(record.Status),
		record.Message,
		record.VerifiedAt,
	)
	return err
}

func (r *PaymentRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM payment_verifications WHERE verified_at < $1`

	result, err := monitoring.InstrumentExec(ctx, r.db, "DELETE", "payment_verifications", query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
