package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy shared by ingestion, extraction and export.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrIngestion     = errors.New("document could not be read")
	ErrMissingInput  = errors.New("missing input")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("configuration error")
	ErrMissingAPIKey = fmt.Errorf("%w: api key not configured", ErrConfiguration)
	ErrModelResponse = errors.New("model response error")
	ErrProvider      = errors.New("model provider request failed")
	ErrNotReady      = errors.New("required tables not produced yet")
	ErrInternal      = errors.New("internal error")
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// MissingInput reports an action triggered without its required input.
func MissingInput(what string) error {
	return NewAppError("MISSING_INPUT", what+" is required", ErrMissingInput)
}

// InvalidInput reports a request argument that names something unknown or malformed.
func InvalidInput(format string, args ...any) error {
	return NewAppError("INVALID_INPUT", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// IsConfigurationError reports whether err is a configuration problem, a missing API key included.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ToStatus maps an application error onto a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrIngestion):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrConfiguration):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrModelResponse):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, ErrProvider):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
