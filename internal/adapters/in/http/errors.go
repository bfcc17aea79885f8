package http

import (
	"errors"
	"log/slog"
	"net/http"

	"separation/internal/core/application/usecases/commands"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error codes of ErrorResponse.
const (
	CodeInvalidTransition          = "invalid_transition"
	CodeIncompleteOrder            = "incomplete_order"
	CodeAlreadyFinalized           = "already_finalized"
	CodeDuplicateExternalReference = "duplicate_external_reference"
	CodePackagingLogisticsMismatch = "packaging_logistics_mismatch"
	CodeEmptySubstituteDescription = "empty_substitute_description"
	CodeNotFound                   = "not_found"
	CodeInvalidRequest             = "invalid_request"
	CodeStorageUnavailable         = "storage_unavailable"
	CodeInternal                   = "internal_error"
)

// statusOf maps an error returned by a handler to its status and body.
func statusOf(err error) (int, ErrorResponse) {
	var (
		invalidTransition *order.InvalidTransitionError
		incomplete        *order.IncompleteOrderError
		httpErr           *echo.HTTPError
	)

	switch {
	case errors.As(err, &invalidTransition):
		return http.StatusConflict, ErrorResponse{
			Code:      CodeInvalidTransition,
			Message:   err.Error(),
			HandledBy: invalidTransition.HandledBy,
		}
	case errors.As(err, &incomplete):
		missing := incomplete.Missing()
		return http.StatusConflict, ErrorResponse{
			Code:    CodeIncompleteOrder,
			Message: err.Error(),
			Missing: &missing,
		}
	case errors.Is(err, order.ErrAlreadyFinalized):
		return http.StatusConflict, ErrorResponse{Code: CodeAlreadyFinalized, Message: err.Error()}
	case errors.Is(err, commands.ErrDuplicateExternalReference):
		return http.StatusConflict, ErrorResponse{Code: CodeDuplicateExternalReference, Message: err.Error()}
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, ErrorResponse{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, order.ErrPackagingLogisticsMismatch):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Code:    CodePackagingLogisticsMismatch,
			Message: err.Error(),
		}
	case errors.Is(err, order.ErrEmptySubstituteDescription):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Code:    CodeEmptySubstituteDescription,
			Message: err.Error(),
		}
	case errors.Is(err, errs.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{
			Code:    CodeStorageUnavailable,
			Message: "storage is unavailable, retry later",
		}
	case isRequestInvalid(err):
		return http.StatusUnprocessableEntity, ErrorResponse{Code: CodeInvalidRequest, Message: err.Error()}
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorResponse{Code: codeOfStatus(httpErr.Code), Message: messageOf(httpErr)}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Message: "internal error"}
	}
}

func isRequestInvalid(err error) bool {
	var reqErr *RequestInvalidError
	return errors.As(err, &reqErr) ||
		errors.Is(err, errs.ErrValueIsRequired) ||
		errors.Is(err, errs.ErrValueIsInvalid) ||
		errors.Is(err, errs.ErrValueIsOutOfRange)
}

func codeOfStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusInternalServerError:
		return CodeInternal
	default:
		return CodeInvalidRequest
	}
}

func messageOf(httpErr *echo.HTTPError) string {
	if msg, ok := httpErr.Message.(string); ok {
		return msg
	}
	return http.StatusText(httpErr.Code)
}

// NewErrorHandler writes ErrorResponse bodies. Server faults are logged,
// domain rejections are not.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}
		status, body := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", ctx.Request().Method,
				"path", ctx.Path(),
				"status", status,
				"error", err,
			)
		}

		var writeErr error
		if ctx.Request().Method == http.MethodHead {
			writeErr = ctx.NoContent(status)
		} else {
			writeErr = ctx.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("failed to write error response", "error", writeErr)
		}
	}
}
