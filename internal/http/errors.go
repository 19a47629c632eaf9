package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"payflow/internal/core"
	"payflow/internal/log"
	"payflow/internal/services"
	"payflow/internal/storage"
)

// AppError is an error with the HTTP status and code it renders as.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Fields     map[string]string
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// inputErrors are domain validation failures reported as 400.
var inputErrors = []error{
	core.ErrInvalidClock,
	core.ErrMissingDate,
	core.ErrMissingStartTime,
	core.ErrMissingEndTime,
	core.ErrMissingHourlyWage,
	core.ErrInvalidHourlyWage,
	core.ErrInvalidDate,
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrEmptyName,
	core.ErrEmptyCategory,
	core.ErrInvalidColor,
	core.ErrNoReceiptItems,
	core.ErrDescriptionLong,
	core.ErrInvalidJobWage,
	core.ErrInvalidQuantity,
	core.ErrInvalidUnitPrice,
	core.ErrInvalidTaxRate,
}

func isInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// toAppError classifies err into the response it should produce.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &AppError{
			Code:       "validation_failed",
			Message:    "request validation failed",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
			Fields:     fieldMessages(verrs),
		}
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NewAppError("not_found", "resource not found", http.StatusNotFound, err)
	case errors.Is(err, services.ErrInvalidJob):
		return NewAppError("invalid_job", services.ErrInvalidJob.Error(), http.StatusBadRequest, err)
	case isInputError(err):
		return NewAppError("invalid_input", err.Error(), http.StatusBadRequest, err)
	}
	return NewAppError("internal", "internal server error", http.StatusInternalServerError, err)
}

// writeError renders err as the canonical error body. Server errors are
// logged with their cause; the client only sees a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
	}
	writeJSON(w, appErr.HTTPStatus, map[string]errorBody{
		"error": {
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
