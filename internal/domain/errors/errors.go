package errors

import (
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCatalog  = errors.New("invalid catalog")

	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyCart       = errors.New("cannot proceed with an empty cart")
	ErrCartFull        = errors.New("cart cannot hold any more items")

	ErrTransactionIDCollision = errors.New("could not allocate a unique transaction id")

	ErrMissingVerificationParams = errors.New("order id, amount and reference id are required")
	ErrInvalidCallback           = errors.New("invalid gateway callback parameters")
	ErrSignatureMismatch         = errors.New("gateway callback signature mismatch")

	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
	ErrUnexpectedGatewayResponse = errors.New("unexpected payment gateway response")
)
