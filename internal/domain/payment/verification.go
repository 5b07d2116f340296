package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// SuccessMarker is what the gateway's verification endpoint returns for a settled payment.
const SuccessMarker = "<response_code>Success</response_code>"

// VerificationRequest carries the identifiers the gateway appended to the return URL.
type VerificationRequest struct {
	OrderID string `json:"oid"`
	Amount  string `json:"amt"`
	RefID   string `json:"refId"`
}

// UnmarshalJSON accepts each field as a JSON string or a bare number, keeping a
// number's literal text so "1450.0" and 1450.0 verify the same amount.
func (r *VerificationRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		OrderID json.RawMessage `json:"oid"`
		Amount  json.RawMessage `json:"amt"`
		RefID   json.RawMessage `json:"refId"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var err error
	if r.OrderID, err = scalarText("oid", raw.OrderID); err != nil {
		return err
	}
	if r.Amount, err = scalarText("amt", raw.Amount); err != nil {
		return err
	}
	r.RefID, err = scalarText("refId", raw.RefID)
	return err
}

func scalarText(field string, raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("%s: %w", field, err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", fmt.Errorf("%s must be a string or number", field)
	}
	return n.String(), nil
}

func (r VerificationRequest) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" || strings.TrimSpace(r.Amount) == "" || strings.TrimSpace(r.RefID) == "" {
		return domainErrors.ErrMissingVerificationParams
	}
	return nil
}

type VerificationResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

func (r VerificationResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

func Succeeded() VerificationResult {
	return VerificationResult{Status: StatusSuccess}
}

func Failed() VerificationResult {
	return VerificationResult{Status: StatusFailed}
}

func Errored(message string) VerificationResult {
	if message == "" {
		message = "Verification failed"
	}
	return VerificationResult{Status: StatusError, Message: message}
}

// ClassifyResponse maps a verification response body to success or failed.
func ClassifyResponse(body []byte) VerificationResult {
	if bytes.Contains(body, []byte(SuccessMarker)) {
		return Succeeded()
	}
	return Failed()
}
