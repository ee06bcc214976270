// Package errors provides structured application errors over errbuilder
// plus the Gin middleware that turns them into JSON responses.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for handling and logging.
type ErrorCategory string

const (
	CategoryValidation   ErrorCategory = "validation"
	CategoryNotFound     ErrorCategory = "not_found"
	CategoryNetwork      ErrorCategory = "network"
	CategoryTimeout      ErrorCategory = "timeout"
	CategoryRateLimit    ErrorCategory = "rate_limit"
	CategoryInternal     ErrorCategory = "internal"
	CategoryExternalAPI  ErrorCategory = "external_api"
	CategoryUnauthorized ErrorCategory = "unauthorized"
)

// AppError wraps an errbuilder error with the HTTP context handlers need.
// Details carries the response-visible key/value context; the builder's
// details mirror it for log consumers.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory     `json:"category"`
	HTTPStatus int               `json:"http_status"`
	Details    map[string]string `json:"details,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	StackTrace string            `json:"stack_trace,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(e.Category)), e.ErrBuilder.Msg)
}

// MarshalJSON renders the wire shape of the error. The embedded builder
// is never serialized directly: its marshaler dereferences the cause,
// which request-level errors do not carry.
func (e *AppError) MarshalJSON() ([]byte, error) {
	payload := map[string]interface{}{
		"category":    e.Category,
		"message":     e.ErrBuilder.Msg,
		"http_status": e.HTTPStatus,
		"timestamp":   e.Timestamp.Format(time.RFC3339),
	}
	if len(e.Details) > 0 {
		payload["details"] = e.Details
	}
	if cause := e.ErrBuilder.Unwrap(); cause != nil {
		payload["cause"] = cause.Error()
	}
	if e.StackTrace != "" {
		payload["stack_trace"] = e.StackTrace
	}
	return json.Marshal(payload)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from an errbuilder with HTTP context.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError reports a bad request parameter or payload.
func NewValidationError(message string, details map[string]string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if len(details) > 0 {
		errorMap := errbuilder.ErrorMap{}
		for field, msg := range details {
			errorMap.Set(field, errors.New(msg))
		}
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}

	appErr := NewAppError(builder, CategoryValidation, http.StatusBadRequest)
	appErr.Details = details
	return appErr
}

// NewNotFoundError reports a missing resource, e.g. an unknown repo id.
func NewNotFoundError(resource, id string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("resource", errors.New(resource))
	errorMap.Set("id", errors.New(id))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s not found", resource)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	appErr := NewAppError(builder, CategoryNotFound, http.StatusNotFound)
	appErr.Details = map[string]string{"resource": resource, "id": id}
	return appErr
}

// NewUnauthorizedError reports a missing or invalid credential.
func NewUnauthorizedError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnauthenticated).
		WithMsg(message)

	return NewAppError(builder, CategoryUnauthorized, http.StatusUnauthorized)
}

// NewNetworkError reports a failed upstream connection.
func NewNetworkError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryNetwork, http.StatusBadGateway)
}

// NewTimeoutError reports an exceeded deadline.
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewRateLimitError reports request throttling, with a retry hint.
func NewRateLimitError(retryAfter string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	appErr := NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
	appErr.Details = map[string]string{"retry_after": retryAfter}
	return appErr
}

// NewExternalAPIError reports a failure in an upstream API such as GitHub.
func NewExternalAPIError(apiName string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("api_name", errors.New(apiName))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s API error", apiName)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryExternalAPI, http.StatusBadGateway)
	appErr.Details = map[string]string{"api_name": apiName}
	return appErr
}

// NewInternalError reports an unexpected server-side failure.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error")

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))
	builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware providing centralized error handling.
// Handlers attach errors with c.Error and the middleware renders the last
// one as a structured JSON response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			appErr := ToAppError(c.Errors.Last().Err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses.
func RecoveryHandler() gin.HandlerFunc {
	return gin.RecoveryWithWriter(nil, func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
	})
}

// ToAppError converts any error to an AppError, classifying common
// network and timeout failures.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") {
		return NewNetworkError("Network connection failed", err)
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}
	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return NewTimeoutError("Request timeout", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError logs an error with a level matching its category.
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	errorMsg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryRateLimit, CategoryUnauthorized:
		logEntry.Warn(errorMsg)
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI:
		if cause != nil {
			logEntry.Info(errorMsg, "cause", cause)
		} else {
			logEntry.Info(errorMsg)
		}
	default:
		if cause != nil {
			logEntry.Error(errorMsg, "cause", cause)
		} else {
			logEntry.Error(errorMsg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError reports whether an error should trigger a retry.
func IsRetryableError(err error) bool {
	switch ToAppError(err).Category {
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI, CategoryRateLimit:
		return true
	default:
		return false
	}
}

// GetRetryDelay returns a retry delay scaled to the error type.
func GetRetryDelay(err error, attempt int) time.Duration {
	baseDelay := time.Duration(100*attempt) * time.Millisecond

	switch ToAppError(err).Category {
	case CategoryRateLimit:
		return time.Duration(attempt*attempt) * time.Second
	case CategoryNetwork, CategoryTimeout:
		return baseDelay * time.Duration(1<<attempt)
	case CategoryExternalAPI:
		return baseDelay * time.Duration(attempt)
	default:
		return baseDelay
	}
}

// WrapError wraps an error with formatted context.
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}

// SafeClose closes a resource and logs instead of returning the error.
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
