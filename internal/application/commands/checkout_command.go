package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront/internal/application/ports"
	"github.com/yuzvak/storefront/internal/domain/cart"
	"github.com/yuzvak/storefront/internal/domain/catalog"
	"github.com/yuzvak/storefront/internal/domain/errors"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/pkg/generator"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

const maxReserveAttempts = 3

type CheckoutCommand struct {
	Lines []cart.Line
}

type CheckoutResponse struct {
	Action         string              `json:"action"`
	TransactionID  string              `json:"transaction_uuid"`
	Subtotal       string              `json:"subtotal"`
	DeliveryCharge string              `json:"delivery_charge"`
	Total          string              `json:"total"`
	Fields         []payment.FormField `json:"fields"`
}

type CheckoutSettings struct {
	Charges    payment.Charges
	SuccessURL string
	FailureURL string
	LedgerTTL  time.Duration
}

type CheckoutHandler struct {
	catalog  *catalog.Catalog
	gateway  ports.Gateway
	ledger   ports.CheckoutLedger
	signer   *payment.Signer
	idGen    *generator.TransactionIDGenerator
	settings CheckoutSettings
	log      *logger.Logger
}

func NewCheckoutHandler(
	products *catalog.Catalog,
	gateway ports.Gateway,
	ledger ports.CheckoutLedger,
	signer *payment.Signer,
	idGen *generator.TransactionIDGenerator,
	settings CheckoutSettings,
	log *logger.Logger,
) *CheckoutHandler {
	if ledger == nil {
		ledger = NopLedger{}
	}
	return &CheckoutHandler{
		catalog:  products,
		gateway:  gateway,
		ledger:   ledger,
		signer:   signer,
		idGen:    idGen,
		settings: settings,
		log:      log,
	}
}

// Handle prices the cart from the catalog and builds the signed redirect for the
// gateway. Prices carried by the client-held cart are not trusted.
func (h *CheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*CheckoutResponse, error) {
	subtotal := h.subtotal(cmd.Lines)
	if !subtotal.IsPositive() {
		return nil, errors.ErrEmptyCart
	}

	charges := h.settings.Charges
	total := subtotal.Add(charges.Tax).Add(charges.Service).Add(charges.Delivery)

	transactionID, err := h.reserveTransactionID(ctx, payment.FormatAmount(total))
	if err != nil {
		return nil, err
	}

	req, err := payment.NewCheckoutRequest(subtotal, h.settings.Charges, transactionID, h.gateway.MerchantCode(), h.settings.SuccessURL, h.settings.FailureURL)
	if err != nil {
		return nil, err
	}
	req.Sign(h.signer)

	h.log.Info("Checkout request built",
		"transaction_uuid", req.TransactionID,
		"subtotal", payment.FormatAmount(req.Subtotal),
		"total", payment.FormatAmount(req.Total),
	)

	return &CheckoutResponse{
		Action:         h.gateway.FormURL(),
		TransactionID:  req.TransactionID,
		Subtotal:       payment.FormatAmount(req.Subtotal),
		DeliveryCharge: payment.FormatAmount(req.DeliveryCharge),
		Total:          payment.FormatAmount(req.Total),
		Fields:         req.FormFields(),
	}, nil
}

func (h *CheckoutHandler) subtotal(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		product, ok := h.catalog.Lookup(line.ID)
		if !ok {
			h.log.Warn("Skipping cart line for product no longer in catalog", "product_id", line.ID)
			continue
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func (h *CheckoutHandler) reserveTransactionID(ctx context.Context, total string) (string, error) {
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		id := h.idGen.Generate()

		reserved, err := h.ledger.Reserve(ctx, id, total, h.settings.LedgerTTL)
		if err != nil {
			// Ledger outage does not block checkout; the id goes out unrecorded.
			h.log.Error("Failed to reserve transaction id", "error", err, "transaction_uuid", id)
			return id, nil
		}
		if reserved {
			return id, nil
		}

		h.log.Warn("Transaction id collision", "transaction_uuid", id, "attempt", attempt+1)
	}
	return "", fmt.Errorf("%w after %d attempts", errors.ErrTransactionIDCollision, maxReserveAttempts)
}
