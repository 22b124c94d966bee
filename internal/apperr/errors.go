package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code - тип ошибки, видимый клиенту.
type Code string

const (
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeConflict         Code = "CONFLICT"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeInternal         Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodePermissionDenied: http.StatusForbidden,
	CodeUnauthenticated:  http.StatusUnauthorized,
	CodeNotFound:         http.StatusNotFound,
	CodeValidation:       http.StatusUnprocessableEntity,
	CodeConflict:         http.StatusConflict,
	CodeStoreUnavailable: http.StatusServiceUnavailable,
	CodeInternal:         http.StatusInternalServerError,
}

// StatusCode возвращает HTTP-статус для кода ошибки.
func (c Code) StatusCode() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Retryable - можно ли повторить запрос без изменений.
func (c Code) Retryable() bool {
	return c == CodeStoreUnavailable
}

// Error - ошибка приложения с кодом из таксономии.
type Error struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Field != "" {
		msg += " (field: " + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет сравнивать ошибки по коду: errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// Шаблоны для errors.Is.
var (
	ErrPermissionDenied = &Error{Code: CodePermissionDenied}
	ErrNotFound         = &Error{Code: CodeNotFound}
	ErrValidation       = &Error{Code: CodeValidation}
	ErrConflict         = &Error{Code: CodeConflict}
	ErrStoreUnavailable = &Error{Code: CodeStoreUnavailable}
)

func PermissionDenied(format string, args ...any) *Error {
	return &Error{Code: CodePermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(message string, err error) *Error {
	return &Error{Code: CodeUnauthenticated, Message: message, Err: err}
}

func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Message: resource + " not found"}
}

func Validation(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// StoreUnavailable оборачивает сбой хранилища.
func StoreUnavailable(op string, err error) *Error {
	return &Error{Code: CodeStoreUnavailable, Message: op + " failed", Err: err}
}

// CodeOf извлекает код из цепочки ошибок. Неизвестные ошибки - CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
