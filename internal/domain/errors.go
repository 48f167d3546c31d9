package domain

import "fmt"

type ErrCode string

const (
	CodeValidation  ErrCode = "validation_error"
	CodeRateLimited ErrCode = "rate_limited"
	CodeNotFound    ErrCode = "not_found"
	CodeCorrupted   ErrCode = "corrupted"
	CodeUnavailable ErrCode = "unavailable"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrRateLimited(msg string) error { return &AppError{Code: CodeRateLimited, Message: msg} }
func ErrNotFound(msg string) error    { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrCorrupted(msg string) error   { return &AppError{Code: CodeCorrupted, Message: msg} }
func ErrUnavailable(msg string) error { return &AppError{Code: CodeUnavailable, Message: msg} }
