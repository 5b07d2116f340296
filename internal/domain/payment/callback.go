package payment

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
)

// ReturnParams are the identifiers the gateway appends when redirecting the shopper back.
type ReturnParams struct {
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount,omitempty"`
	RefID         string `json:"ref_id,omitempty"`
	GatewayStatus string `json:"gateway_status,omitempty"`
}

func (p ReturnParams) VerificationRequest() VerificationRequest {
	return VerificationRequest{
		OrderID: p.OrderID,
		Amount:  p.Amount,
		RefID:   p.RefID,
	}
}

// ParseReturn reads either the legacy oid/amt/refId query parameters or the
// base64 JSON "data" parameter. A "data" payload must carry a valid signature.
func ParseReturn(query url.Values, signer *Signer) (ReturnParams, error) {
	if data := query.Get("data"); data != "" {
		return parseSignedData(data, signer)
	}

	params := ReturnParams{
		OrderID: strings.TrimSpace(query.Get("oid")),
		Amount:  strings.TrimSpace(query.Get("amt")),
		RefID:   strings.TrimSpace(query.Get("refId")),
	}
	if params.OrderID == "" {
		return ReturnParams{}, fmt.Errorf("%w: missing oid", domainErrors.ErrInvalidCallback)
	}
	return params, nil
}

func parseSignedData(data string, signer *Signer) (ReturnParams, error) {
	raw, err := decodeBase64(data)
	if err != nil {
		return ReturnParams{}, fmt.Errorf("%w: %v", domainErrors.ErrInvalidCallback, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		return ReturnParams{}, fmt.Errorf("%w: %v", domainErrors.ErrInvalidCallback, err)
	}

	values := make(map[string]string, len(payload))
	for k, v := range payload {
		values[k] = stringify(v)
	}

	signedNames := values[FieldSignedFieldNames]
	signature := values[FieldSignature]
	if signedNames == "" || signature == "" {
		return ReturnParams{}, fmt.Errorf("%w: unsigned payload", domainErrors.ErrInvalidCallback)
	}
	if signer == nil || !signer.Verify(SigningString(strings.Split(signedNames, ","), values), signature) {
		return ReturnParams{}, domainErrors.ErrSignatureMismatch
	}

	params := ReturnParams{
		OrderID:       values[FieldTransactionUUID],
		Amount:        strings.ReplaceAll(values[FieldTotalAmount], ",", ""),
		RefID:         values["transaction_code"],
		GatewayStatus: values["status"],
	}
	if params.OrderID == "" {
		return ReturnParams{}, fmt.Errorf("%w: missing transaction_uuid", domainErrors.ErrInvalidCallback)
	}
	return params, nil
}

// decodeBase64 accepts standard or URL-safe alphabets. A "+" left unescaped in
// the query string arrives as a space and is restored first.
func decodeBase64(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, " ", "+")
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

func stringify(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
