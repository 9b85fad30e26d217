package api

import (
	"errors"
	"net/http"

	"erpsheets/pkg/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse builds an error body.
func NewErrorResponse(code int, message, details string) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, models.ErrNoValidID),
		errors.Is(err, models.ErrWrongValueType),
		errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, models.ErrNotANumber),
		errors.Is(err, models.ErrEmptyNote),
		errors.Is(err, models.ErrInvalidNoteEntity):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoData),
		errors.Is(err, models.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
