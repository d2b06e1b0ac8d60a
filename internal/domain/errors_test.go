package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIs(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("approve: %w", ErrStateConflict)

	if !errors.Is(wrapped, ErrForbidden) {
		t.Errorf("errors.Is(%v, ErrForbidden) = false, want true", wrapped)
	}

	if !errors.Is(wrapped, ErrStateConflict) {
		t.Errorf("errors.Is(%v, ErrStateConflict) = false, want true", wrapped)
	}

	if errors.Is(wrapped, ErrTenantMismatch) {
		t.Errorf("errors.Is(%v, ErrTenantMismatch) = true, want false", wrapped)
	}

	if errors.Is(wrapped, ErrNotFound) {
		t.Errorf("errors.Is(%v, ErrNotFound) = true, want false", wrapped)
	}
}

func TestIntegrityErrorPayload(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("record: %w", NewIntegrityError(ErrUnbalancedEntry.Message, 10000, 9000))

	if !errors.Is(err, ErrUnbalancedEntry) {
		t.Fatalf("errors.Is(%v, ErrUnbalancedEntry) = false, want true", err)
	}

	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("errors.As(%v, *Error) = false, want true", err)
	}

	if de.TotalDebit != 10000 || de.TotalCredit != 9000 {
		t.Errorf("totals = %d/%d, want 10000/9000", de.TotalDebit, de.TotalCredit)
	}

	want := "record: ledger entry is unbalanced: total debit 100.00, total credit 90.00"
	if err.Error() != want {
		t.Errorf("err.Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewExternalServiceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")

	testCases := []struct {
		status int
		want   int
	}{
		{status: http.StatusServiceUnavailable, want: http.StatusServiceUnavailable},
		{status: http.StatusGatewayTimeout, want: http.StatusGatewayTimeout},
		{status: http.StatusInternalServerError, want: http.StatusBadGateway},
		{status: 0, want: http.StatusBadGateway},
	}

	for _, tc := range testCases {
		err := NewExternalServiceError("postgres", tc.status, cause)

		if got := HTTPStatus(err); got != tc.want {
			t.Errorf("HTTPStatus(NewExternalServiceError(%d)) = %d, want %d", tc.status, got, tc.want)
		}

		if !errors.Is(err, cause) {
			t.Errorf("errors.Is(%v, cause) = false, want true", err)
		}

		if KindOf(err) != KindExternalService {
			t.Errorf("KindOf(%v) = %q, want %q", err, KindOf(err), KindExternalService)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		want int
	}{
		{err: ErrInvalidAmount, want: http.StatusBadRequest},
		{err: ErrAlreadyVoided, want: http.StatusUnprocessableEntity},
		{err: ErrJournalNotFound, want: http.StatusNotFound},
		{err: ErrStateConflict, want: http.StatusForbidden},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestValidAccountPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want bool
	}{
		{path: "Assets:Cash", want: true},
		{path: "Expenses", want: true},
		{path: "Expenses:Travel:Taxi", want: true},
		{path: "", want: false},
		{path: "Assets:", want: false},
		{path: ":Cash", want: false},
		{path: "Assets::Cash", want: false},
		{path: " Assets:Cash", want: false},
		{path: "Assets: Cash", want: false},
	}

	for _, tc := range testCases {
		if got := ValidAccountPath(tc.path); got != tc.want {
			t.Errorf("ValidAccountPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
