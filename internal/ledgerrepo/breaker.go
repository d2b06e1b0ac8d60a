package ledgerrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Backend is the set of ledger operations a Breaker guards.
type Backend interface {
	Name() string
	Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error)
	Get(ctx context.Context, journalID string) (domain.LedgerTransaction, error)
	GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error)
	Reverse(ctx context.Context, journalID string, compensating domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error)
	Balance(ctx context.Context, clientID, account string) (int64, error)
	TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) ([]domain.AccountBalance, error)
}

// UnavailableError is returned while the breaker rejects calls.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("ledger backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// StatusCode reports the HTTP status the failure maps to.
func (e *UnavailableError) StatusCode() int {
	return http.StatusServiceUnavailable
}

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Breaker stops calling a failing backend after MaxFailures consecutive
// infrastructure errors and lets a probe through after OpenTimeout.
// Domain errors such as not found and canceled requests never count as
// failures.
type Breaker struct {
	next Backend
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Backend, config BreakerConfig, logger zerolog.Logger) *Breaker {
	if config.MaxFailures == 0 {
		config.MaxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "ledger-" + next.Name(),
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || domain.KindOf(err) != "" || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("ledger backend circuit breaker changed state")
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns the wrapped backend name.
func (b *Breaker) Name() string {
	return b.next.Name()
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Record calls the backend through the breaker.
func (b *Breaker) Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.Record(ctx, entry, correlationID)
	})
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	return res.(domain.LedgerTransaction), nil
}

// Get calls the backend through the breaker.
func (b *Breaker) Get(ctx context.Context, journalID string) (domain.LedgerTransaction, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.Get(ctx, journalID)
	})
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	return res.(domain.LedgerTransaction), nil
}

// GetByCorrelation calls the backend through the breaker.
func (b *Breaker) GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.GetByCorrelation(ctx, clientID, correlationID)
	})
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	return res.(domain.LedgerTransaction), nil
}

// Reverse calls the backend through the breaker.
func (b *Breaker) Reverse(ctx context.Context, journalID string, compensating domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.Reverse(ctx, journalID, compensating, correlationID)
	})
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	return res.(domain.LedgerTransaction), nil
}

// Balance calls the backend through the breaker.
func (b *Breaker) Balance(ctx context.Context, clientID, account string) (int64, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.Balance(ctx, clientID, account)
	})
	if err != nil {
		return 0, err
	}

	return res.(int64), nil
}

// TrialBalance calls the backend through the breaker.
func (b *Breaker) TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) ([]domain.AccountBalance, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.TrialBalance(ctx, clientID, dateRange)
	})
	if err != nil {
		return nil, err
	}

	return res.([]domain.AccountBalance), nil
}

func (b *Breaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &UnavailableError{Backend: b.next.Name(), Err: err}
	}

	return res, err
}
