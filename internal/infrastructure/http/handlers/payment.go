package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yuzvak/storefront/internal/application/commands"
	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/infrastructure/http/middleware"
	"github.com/yuzvak/storefront/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

type PaymentHandler struct {
	sessions *CartSessions
	verify   *commands.VerifyPaymentHandler
	returns  *commands.PaymentReturnHandler
	log      *logger.Logger
}

func NewPaymentHandler(
	sessions *CartSessions,
	verify *commands.VerifyPaymentHandler,
	returns *commands.PaymentReturnHandler,
	log *logger.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		sessions: sessions,
		verify:   verify,
		returns:  returns,
		log:      log,
	}
}

type PaymentReturnResponse struct {
	Status  payment.Status `json:"status"`
	OrderID string         `json:"order_id,omitempty"`
	RefID   string         `json:"ref_id,omitempty"`
	Amount  string         `json:"amount,omitempty"`
	Message string         `json:"message,omitempty"`
}

// HandleVerify relays {oid, amt, refId} to the gateway. The body is always a
// {status, message} result; error results are served with 502.
func (h *PaymentHandler) HandleVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req payment.VerificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, payment.Errored("Request body must be JSON with oid, amt and refId"))
			return
		}

		result, err := h.verify.Handle(r.Context(), commands.VerifyPaymentCommand{Request: req})
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, payment.Errored(err.Error()))
			return
		}
		monitoring.RecordPaymentVerification(string(result.Status))

		if result.Succeeded() {
			h.sessions.Open(w, r).Clear()
		}

		response.WriteJSON(w, statusCodeFor(result), result)
	}
}

func (h *PaymentHandler) HandleSuccess() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.LoggerFrom(r.Context(), h.log)

		result, err := h.returns.HandleSuccess(r.Context(), r.URL.Query())
		if err != nil {
			if errors.Is(err, domainErrors.ErrMissingVerificationParams) {
				response.WriteJSON(w, http.StatusBadRequest, PaymentReturnResponse{
					Status:  payment.StatusError,
					Message: err.Error(),
				})
				return
			}
			response.WriteDomainError(w, err)
			return
		}
		monitoring.RecordPaymentVerification(string(result.Verification.Status))

		if result.Verification.Succeeded() {
			h.sessions.Open(w, r).Clear()
			log.Info("Payment confirmed, cart cleared", "order_id", result.Params.OrderID)
		}

		response.WriteJSON(w, statusCodeFor(result.Verification), PaymentReturnResponse{
			Status:  result.Verification.Status,
			OrderID: result.Params.OrderID,
			RefID:   result.Params.RefID,
			Amount:  result.Params.Amount,
			Message: result.Verification.Message,
		})
	}
}

func (h *PaymentHandler) HandleFailure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := h.returns.HandleFailure(r.URL.Query())

		response.WriteJSON(w, http.StatusOK, PaymentReturnResponse{
			Status:  payment.StatusFailed,
			OrderID: params.OrderID,
			Message: "Payment was not completed. Your cart has been kept.",
		})
	}
}

func statusCodeFor(result payment.VerificationResult) int {
	if result.Status == payment.StatusError {
		return http.StatusBadGateway
	}
	return http.StatusOK
}
