package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput          = "SERVICE_BAD_INPUT"
	ServiceErrorUnauthenticated   = "SERVICE_UNAUTHENTICATED"
	ServiceErrorExchangeFailed    = "SERVICE_EXCHANGE_FAILED"
	ServiceErrorRefreshFailed     = "SERVICE_REFRESH_FAILED"
	ServiceErrorOAuthStateInvalid = "SERVICE_OAUTH_STATE_INVALID"
	ServiceErrorTransport         = "SERVICE_TRANSPORT_ERROR"
	ServiceErrorStorage           = "SERVICE_STORAGE_ERROR"
	ServiceErrorForbidden         = "SERVICE_FORBIDDEN"
	ServiceErrorInternal          = "SERVICE_INTERNAL_ERROR"
)

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "credential not found"), strings.Contains(msg, "not authenticated"):
		return newServiceError(err.Error(), goerrors.CategoryAuth, ServiceErrorUnauthenticated)
	case strings.Contains(msg, "oauth callback state"), strings.Contains(msg, "oauth state"):
		return newServiceError(err.Error(), goerrors.CategoryAuth, ServiceErrorOAuthStateInvalid)
	case strings.Contains(msg, "payload corrupt"):
		return newServiceError(err.Error(), goerrors.CategoryOperation, ServiceErrorStorage)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryAuth:
		return ServiceErrorUnauthenticated
	case goerrors.CategoryAuthz:
		return ServiceErrorForbidden
	case goerrors.CategoryExternal:
		return ServiceErrorTransport
	case goerrors.CategoryOperation:
		return ServiceErrorStorage
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsUnauthenticated reports whether err carries the unauthenticated envelope,
// i.e. no credential record exists and the caller must re-authorize.
func IsUnauthenticated(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return strings.EqualFold(strings.TrimSpace(richErr.TextCode), ServiceErrorUnauthenticated)
	}
	return false
}
