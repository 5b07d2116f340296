package monitoring

import (
	"errors"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
)

type CheckoutMetrics struct{}

func NewCheckoutMetrics() *CheckoutMetrics {
	return &CheckoutMetrics{}
}

func (m *CheckoutMetrics) RecordAttempt() {
	RecordCheckoutAttempt()
}

func (m *CheckoutMetrics) RecordSuccess() {
	RecordCheckoutSuccess()
}

// RecordFailure labels by error kind so the reason label stays low-cardinality.
func (m *CheckoutMetrics) RecordFailure(err error) {
	RecordCheckoutFailure(FailureReason(err))
}

func FailureReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domainErrors.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domainErrors.ErrTransactionIDCollision):
		return "transaction_id_collision"
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		return "gateway_unavailable"
	default:
		return "internal"
	}
}

type CartMetrics struct{}

func NewCartMetrics() *CartMetrics {
	return &CartMetrics{}
}

func (m *CartMetrics) Added()   { RecordCartMutation("add") }
func (m *CartMetrics) Updated() { RecordCartMutation("update") }
func (m *CartMetrics) Removed() { RecordCartMutation("remove") }
func (m *CartMetrics) Cleared() { RecordCartMutation("clear") }
