package domain

import "fmt"

type ErrCode string

const (
	CodeValidation ErrCode = "validation_error"
	CodeNotFound   ErrCode = "not_found"
)

type AppError struct {
	Code    ErrCode
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrNotFound(msg string) error   { return &AppError{Code: CodeNotFound, Message: msg} }

// ErrMissingEventID is returned by hype mutations without an event id.
var ErrMissingEventID = ErrValidation("Missing eventId")
