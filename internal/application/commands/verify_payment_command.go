package commands

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront/internal/application/ports"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/pkg/clock"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

type VerifyPaymentCommand struct {
	Request payment.VerificationRequest
}

type VerifyPaymentHandler struct {
	gateway  ports.Gateway
	ledger   ports.CheckoutLedger
	recorder ports.PaymentRecorder
	clock    clock.Clock
	log      *logger.Logger
}

func NewVerifyPaymentHandler(
	gateway ports.Gateway,
	ledger ports.CheckoutLedger,
	recorder ports.PaymentRecorder,
	clk clock.Clock,
	log *logger.Logger,
) *VerifyPaymentHandler {
	if ledger == nil {
		ledger = NopLedger{}
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &VerifyPaymentHandler{
		gateway:  gateway,
		ledger:   ledger,
		recorder: recorder,
		clock:    clk,
		log:      log,
	}
}

// Handle asks the gateway whether the payment settled. The result is always one
// of success, failed or error; a validation problem is returned as an error so the
// caller can reject the request before anything goes upstream.
func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (payment.VerificationResult, error) {
	req := payment.VerificationRequest{
		OrderID: strings.TrimSpace(cmd.Request.OrderID),
		Amount:  strings.TrimSpace(cmd.Request.Amount),
		RefID:   strings.TrimSpace(cmd.Request.RefID),
	}
	if err := req.Validate(); err != nil {
		return payment.VerificationResult{}, err
	}

	log := h.log.With("order_id", req.OrderID).With("ref_id", req.RefID)

	h.checkLedger(ctx, log, req)

	result, err := h.gateway.Verify(ctx, req)
	if err != nil {
		log.Error("Payment verification failed", "error", err)
		result = payment.Errored("")
	}

	log.Info("Payment verification finished", "status", string(result.Status))

	record := ports.PaymentRecord{
		OrderID:    req.OrderID,
		Amount:     req.Amount,
		RefID:      req.RefID,
		Status:     result.Status,
		Message:    result.Message,
		VerifiedAt: h.clock.Now(),
	}
	if err := h.recorder.Record(ctx, record); err != nil {
		log.Warn("Failed to record payment verification", "error", err)
	}

	return result, nil
}

func (h *VerifyPaymentHandler) checkLedger(ctx context.Context, log *logger.Logger, req payment.VerificationRequest) {
	issued, ok, err := h.ledger.Lookup(ctx, req.OrderID)
	if err != nil {
		log.Warn("Checkout ledger lookup failed", "error", err)
		return
	}
	if !ok {
		log.Debug("Order id not found in checkout ledger")
		return
	}

	claimed, err := decimal.NewFromString(strings.ReplaceAll(req.Amount, ",", ""))
	if err != nil {
		log.Warn("Verification amount is not a number", "amount", req.Amount)
		return
	}
	expected, err := decimal.NewFromString(issued)
	if err != nil {
		return
	}
	if !claimed.Equal(expected) {
		log.Warn("Verification amount differs from checkout total", "amount", req.Amount, "expected", issued)
	}
}

// NopLedger is used when no Redis is configured.
type NopLedger struct{}

func (NopLedger) Reserve(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}

func (NopLedger) Lookup(context.Context, string) (string, bool, error) {
	return "", false, nil
}

// NopRecorder is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, ports.PaymentRecord) error {
	return nil
}
