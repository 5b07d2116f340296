package payment

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
)

const (
	FieldAmount           = "amount"
	FieldTaxAmount        = "tax_amount"
	FieldTotalAmount      = "total_amount"
	FieldTransactionUUID  = "transaction_uuid"
	FieldProductCode      = "product_code"
	FieldServiceCharge    = "product_service_charge"
	FieldDeliveryCharge   = "product_delivery_charge"
	FieldSuccessURL       = "success_url"
	FieldFailureURL       = "failure_url"
	FieldSignedFieldNames = "signed_field_names"
	FieldSignature        = "signature"
)

// SignedFields is the canonical field order of the redirect signature.
var SignedFields = []string{FieldTotalAmount, FieldTransactionUUID, FieldProductCode}

// Charges are the fixed amounts added on top of the cart subtotal.
type Charges struct {
	Delivery decimal.Decimal
	Tax      decimal.Decimal
	Service  decimal.Decimal
}

type CheckoutRequest struct {
	TransactionID  string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ServiceCharge  decimal.Decimal
	DeliveryCharge decimal.Decimal
	Total          decimal.Decimal
	ProductCode    string
	SuccessURL     string
	FailureURL     string
	Signature      string
}

type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func NewCheckoutRequest(subtotal decimal.Decimal, charges Charges, transactionID, productCode, successURL, failureURL string) (*CheckoutRequest, error) {
	if !subtotal.IsPositive() {
		return nil, domainErrors.ErrEmptyCart
	}
	if transactionID == "" {
		return nil, errors.New("transaction id cannot be empty")
	}
	if productCode == "" {
		return nil, errors.New("product code cannot be empty")
	}

	total := subtotal.Add(charges.Tax).Add(charges.Service).Add(charges.Delivery)

	return &CheckoutRequest{
		TransactionID:  transactionID,
		Subtotal:       subtotal,
		TaxAmount:      charges.Tax,
		ServiceCharge:  charges.Service,
		DeliveryCharge: charges.Delivery,
		Total:          total,
		ProductCode:    productCode,
		SuccessURL:     successURL,
		FailureURL:     failureURL,
	}, nil
}

func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

func (r *CheckoutRequest) SigningString() string {
	return SigningString(SignedFields, map[string]string{
		FieldTotalAmount:     FormatAmount(r.Total),
		FieldTransactionUUID: r.TransactionID,
		FieldProductCode:     r.ProductCode,
	})
}

func (r *CheckoutRequest) Sign(signer *Signer) {
	r.Signature = signer.Sign(r.SigningString())
}

// FormFields returns the hidden inputs of the gateway redirect form.
func (r *CheckoutRequest) FormFields() []FormField {
	return []FormField{
		{Name: FieldAmount, Value: FormatAmount(r.Subtotal)},
		{Name: FieldTaxAmount, Value: FormatAmount(r.TaxAmount)},
		{Name: FieldTotalAmount, Value: FormatAmount(r.Total)},
		{Name: FieldTransactionUUID, Value: r.TransactionID},
		{Name: FieldProductCode, Value: r.ProductCode},
		{Name: FieldServiceCharge, Value: FormatAmount(r.ServiceCharge)},
		{Name: FieldDeliveryCharge, Value: FormatAmount(r.DeliveryCharge)},
		{Name: FieldSuccessURL, Value: r.SuccessURL},
		{Name: FieldFailureURL, Value: r.FailureURL},
		{Name: FieldSignedFieldNames, Value: strings.Join(SignedFields, ",")},
		{Name: FieldSignature, Value: r.Signature},
	}
}
