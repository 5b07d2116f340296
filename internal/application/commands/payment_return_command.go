package commands

import (
	"context"
	"net/url"

	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

type PaymentReturnResult struct {
	Params       payment.ReturnParams       `json:"params"`
	Verification payment.VerificationResult `json:"verification"`
}

// PaymentReturnHandler handles the shopper landing back from the gateway.
type PaymentReturnHandler struct {
	signer *payment.Signer
	verify *VerifyPaymentHandler
	log    *logger.Logger
}

func NewPaymentReturnHandler(signer *payment.Signer, verify *VerifyPaymentHandler, log *logger.Logger) *PaymentReturnHandler {
	return &PaymentReturnHandler{
		signer: signer,
		verify: verify,
		log:    log,
	}
}

// HandleSuccess never trusts the redirect on its own: the payment is confirmed
// with the gateway before the result reports success.
func (h *PaymentReturnHandler) HandleSuccess(ctx context.Context, query url.Values) (*PaymentReturnResult, error) {
	params, err := payment.ParseReturn(query, h.signer)
	if err != nil {
		h.log.Warn("Rejected payment return", "error", err)
		return nil, err
	}

	result, err := h.verify.Handle(ctx, VerifyPaymentCommand{Request: params.VerificationRequest()})
	if err != nil {
		return nil, err
	}

	return &PaymentReturnResult{Params: params, Verification: result}, nil
}

// HandleFailure only reports what the gateway sent back; nothing is verified.
func (h *PaymentReturnHandler) HandleFailure(query url.Values) payment.ReturnParams {
	params, err := payment.ParseReturn(query, h.signer)
	if err != nil {
		h.log.Debug("Payment failure return without usable parameters", "error", err)
		return payment.ReturnParams{OrderID: query.Get("oid")}
	}
	h.log.Info("Payment not completed", "order_id", params.OrderID)
	return params
}
