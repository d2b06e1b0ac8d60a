// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
)

// Kind classifies an Error. The set of kinds is closed.
type Kind string

// All error kinds.
const (
	KindValidation         Kind = "validation"
	KindFinancialIntegrity Kind = "financial_integrity"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindExternalService    Kind = "external_service"
)

// Error is a kinded domain error with a structured payload.
//
// TotalDebit and TotalCredit are set for financial integrity failures,
// Service and StatusCode for external service failures.
type Error struct {
	Kind        Kind
	Message     string
	TotalDebit  int64
	TotalCredit int64
	Service     string
	StatusCode  int
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}

	switch e.Kind {
	case KindFinancialIntegrity:
		if e.TotalDebit != 0 || e.TotalCredit != 0 {
			msg = fmt.Sprintf("%s: total debit %s, total credit %s",
				msg, moneypkg.Display(e.TotalDebit), moneypkg.Display(e.TotalCredit))
		}
	case KindExternalService:
		msg = fmt.Sprintf("%s: %s responded %d", msg, e.Service, e.StatusCode)
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a target *Error of the same kind. A target carrying a message
// only matches errors with that exact message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.Message == "" || t.Message == e.Message
}

// Kind sentinels, usable with errors.Is.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrFinancialIntegrity = &Error{Kind: KindFinancialIntegrity}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrExternalService    = &Error{Kind: KindExternalService}
)

// KindOf returns the kind of err, or "" when err is not a domain Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	return ""
}

// NewValidationError returns a validation error with the given message.
func NewValidationError(msg string, err error) error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// NewIntegrityError returns an unbalanced-totals error.
func NewIntegrityError(msg string, totalDebit, totalCredit int64) error {
	return &Error{
		Kind:        KindFinancialIntegrity,
		Message:     msg,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	}
}

// NewExternalServiceError wraps a backend failure. Only 503 and 504 are kept,
// any other status is reported as 502.
func NewExternalServiceError(service string, statusCode int, err error) error {
	switch statusCode {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
	default:
		statusCode = http.StatusBadGateway
	}

	return &Error{
		Kind:       KindExternalService,
		Message:    "external service failure",
		Service:    service,
		StatusCode: statusCode,
		Err:        err,
	}
}

// HTTPStatus maps err to the HTTP status its kind stands for.
func HTTPStatus(err error) int {
	var de *Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}

	switch de.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindFinancialIntegrity:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindExternalService:
		return de.StatusCode
	}

	return http.StatusInternalServerError
}
