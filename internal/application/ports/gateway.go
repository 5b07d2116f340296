package ports

import (
	"context"

	"github.com/yuzvak/storefront/internal/domain/payment"
)

// Gateway is the payment processor's server-to-server verification surface.
// Verify returns an error only for transport or protocol failures; a payment the
// gateway does not confirm is a StatusFailed result.
type Gateway interface {
	Verify(ctx context.Context, req payment.VerificationRequest) (payment.VerificationResult, error)
	FormURL() string
	MerchantCode() string
}
