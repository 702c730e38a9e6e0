package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeInvalidArgument        = "INVALID_ARGUMENT"
	CodeNotFound               = "NOT_FOUND"
	CodeFailedPrecondition     = "FAILED_PRECONDITION"
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeGatewayRejected        = "GATEWAY_REJECTED"
	CodeGatewayUnavailable     = "GATEWAY_UNAVAILABLE"
	CodeInternal               = "INTERNAL"
	CodeTooManyRequests        = "TOO_MANY_REQUESTS"
	CodeMustWithdrawFirst      = "MUST_WITHDRAW_FIRST"
	CodeHasBalanceBelowMinimum = "HAS_BALANCE_BELOW_MINIMUM"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func InvalidArgument(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInvalidArgument,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthenticated(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func PermissionDenied(message string, err error) *AppError {
	return &AppError{
		Code:    CodePermissionDenied,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// FailedPrecondition reports a request that is well formed but cannot run
// against the current state (balances, missing PIX key, ...).
func FailedPrecondition(message string, err error) *AppError {
	return &AppError{
		Code:    CodeFailedPrecondition,
		Message: message,
		Status:  http.StatusPreconditionFailed,
		Err:     err,
	}
}

func GatewayRejected(message string, err error) *AppError {
	return &AppError{
		Code:    CodeGatewayRejected,
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

func GatewayUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:    CodeGatewayUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// Is reports whether any AppError in err's chain carries code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code returns the code of the outermost AppError, or CodeInternal.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
