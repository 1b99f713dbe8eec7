package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	Validation
	TooManyRequests
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Validation:
		return "validation_error"
	case TooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Status переводит вид ошибки в HTTP-код.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Validation:
		return http.StatusBadRequest
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Fields     map[string]string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.Message != "":
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// PublicCode - код ошибки для клиента.
func (e *Error) PublicCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticatedf(format string, args ...any) *Error {
	return newf(Unauthenticated, format, args...)
}

func Forbiddenf(format string, args ...any) *Error { return newf(Forbidden, format, args...) }
func NotFoundf(format string, args ...any) *Error  { return newf(NotFound, format, args...) }
func Conflictf(format string, args ...any) *Error  { return newf(Conflict, format, args...) }

func Validationf(format string, args ...any) *Error {
	return newf(Validation, format, args...)
}

// ValidationFields собирает ошибку валидации с ошибками по полям.
func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: message, Fields: fields}
}

func TooMany(retryAfter time.Duration) *Error {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &Error{
		Kind:       TooManyRequests,
		Message:    fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", secs),
		RetryAfter: time.Duration(secs) * time.Second,
	}
}

// Wrap помечает неожиданную ошибку как Internal.
func Wrap(err error, op string) *Error {
	return &Error{Kind: Internal, Message: op, Err: err}
}

func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf возвращает Internal для любых ошибок вне таксономии.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
