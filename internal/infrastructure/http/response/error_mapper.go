package response

import (
	"errors"
	"net/http"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
)

type ErrorMapping struct {
	Err        error
	HTTPStatus int
	Status     Status
	Message    string
}

var errorMappings = []ErrorMapping{
	{
		Err:        domainErrors.ErrProductNotFound,
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Product not found",
	},
	{
		Err:        domainErrors.ErrInvalidQuantity,
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Invalid quantity",
	},
	{
		Err:        domainErrors.ErrEmptyCart,
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusError,
		Message:    "Cannot proceed with an empty cart",
	},
	{
		Err:        domainErrors.ErrCartFull,
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Cart is full",
	},
	{
		Err:        domainErrors.ErrMissingVerificationParams,
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "oid, amt and refId are required",
	},
	{
		Err:        domainErrors.ErrInvalidCallback,
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Invalid payment callback",
	},
	{
		Err:        domainErrors.ErrSignatureMismatch,
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusError,
		Message:    "Payment callback signature mismatch",
	},
	{
		Err:        domainErrors.ErrTransactionIDCollision,
		HTTPStatus: http.StatusServiceUnavailable,
		Status:     StatusServiceUnavailable,
		Message:    "Could not start checkout, please retry",
	},
	{
		Err:        domainErrors.ErrGatewayUnavailable,
		HTTPStatus: http.StatusBadGateway,
		Status:     StatusBadGateway,
		Message:    "Payment gateway unavailable",
	},
	{
		Err:        domainErrors.ErrUnexpectedGatewayResponse,
		HTTPStatus: http.StatusBadGateway,
		Status:     StatusBadGateway,
		Message:    "Unexpected payment gateway response",
	},
}

// MapDomainError never echoes unmapped error text to the client.
func MapDomainError(err error) (int, *ErrorResponse) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.Err) {
			return mapping.HTTPStatus, Error(mapping.Status, mapping.Message, err.Error())
		}
	}

	return http.StatusInternalServerError, Error(StatusInternalError, "Internal server error")
}

func WriteDomainError(w http.ResponseWriter, err error) {
	statusCode, errorResponse := MapDomainError(err)
	WriteJSON(w, statusCode, errorResponse)
}
