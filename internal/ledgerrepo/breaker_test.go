package ledgerrepo_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/internal/ledgerrepo"
	"github.com/go-petr/receipt-ledger/pkg/randompkg"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

// flakyBackend fails Record with err and delegates everything else.
type flakyBackend struct {
	*ledgerrepo.RepoMem
	err   error
	calls int
}

func (f *flakyBackend) Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	f.calls++
	if f.err != nil {
		return domain.LedgerTransaction{}, f.err
	}

	return f.RepoMem.Record(ctx, entry, correlationID)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	backend := &flakyBackend{RepoMem: ledgerrepo.NewRepoMem(), err: errors.New("connection refused")}
	breaker := ledgerrepo.NewBreaker(backend, ledgerrepo.BreakerConfig{
		MaxFailures: 2,
		OpenTimeout: time.Hour,
	}, zerolog.Nop())

	ctx := context.Background()
	entry := randomEntry(randompkg.ClientID())

	for i := 0; i < 2; i++ {
		_, err := breaker.Record(ctx, entry, "")
		require.EqualError(t, err, "connection refused")
	}

	require.Equal(t, gobreaker.StateOpen, breaker.State())

	_, err := breaker.Record(ctx, entry, "")

	var unavailable *ledgerrepo.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, http.StatusServiceUnavailable, unavailable.StatusCode())
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, 2, backend.calls)
}

func TestBreakerIgnoresDomainErrors(t *testing.T) {
	t.Parallel()

	breaker := ledgerrepo.NewBreaker(ledgerrepo.NewRepoMem(), ledgerrepo.BreakerConfig{
		MaxFailures: 1,
		OpenTimeout: time.Hour,
	}, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := breaker.Get(context.Background(), "missing")
		require.ErrorIs(t, err, domain.ErrJournalNotFound)
	}

	require.Equal(t, gobreaker.StateClosed, breaker.State())
	require.Equal(t, ledgerrepo.NameMemory, breaker.Name())
}

func TestBreakerIgnoresCanceledRequests(t *testing.T) {
	t.Parallel()

	backend := &flakyBackend{RepoMem: ledgerrepo.NewRepoMem(), err: context.Canceled}
	breaker := ledgerrepo.NewBreaker(backend, ledgerrepo.BreakerConfig{
		MaxFailures: 1,
		OpenTimeout: time.Hour,
	}, zerolog.Nop())

	entry := randomEntry(randompkg.ClientID())

	for i := 0; i < 3; i++ {
		_, err := breaker.Record(context.Background(), entry, "")
		require.ErrorIs(t, err, context.Canceled)
	}

	require.Equal(t, gobreaker.StateClosed, breaker.State())
	require.Equal(t, 3, backend.calls)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	t.Parallel()

	backend := &flakyBackend{RepoMem: ledgerrepo.NewRepoMem(), err: errors.New("timeout")}
	breaker := ledgerrepo.NewBreaker(backend, ledgerrepo.BreakerConfig{
		MaxFailures: 1,
		OpenTimeout: 10 * time.Millisecond,
	}, zerolog.Nop())

	ctx := context.Background()
	entry := randomEntry(randompkg.ClientID())

	_, err := breaker.Record(ctx, entry, "")
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, breaker.State())

	time.Sleep(20 * time.Millisecond)
	backend.err = nil

	got, err := breaker.Record(ctx, entry, "")
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	require.Equal(t, gobreaker.StateClosed, breaker.State())

	balance, err := breaker.Balance(ctx, entry.ClientID, "Assets:Cash")
	require.NoError(t, err)
	require.Equal(t, entry.Postings["Assets:Cash"], balance)

	rows, err := breaker.TrialBalance(ctx, entry.ClientID, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
