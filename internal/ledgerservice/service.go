// Package ledgerservice manages the double-entry ledger engine.
package ledgerservice

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
	"github.com/rs/zerolog"
)

// ErrReverseReversal indicates an attempt to reverse a compensating transaction.
var ErrReverseReversal = &domain.Error{Kind: domain.KindValidation, Message: "reversal entries cannot be reversed"}

// Repo is the ledger backend adapter contract.
//
// Record and Reverse must be atomic: all postings of a transaction become
// visible together or not at all. A non-empty correlation id is unique per
// client; replaying it returns the transaction recorded the first time, or
// domain.ErrCorrelationConflict when that transaction is a different kind of
// write (a reversal replayed by Record, or a reversal of another journal).
// Reverse appends the compensating transaction and flips the original's
// voided flag in one step, failing with domain.ErrAlreadyVoided when the flag
// is already set. TrialBalance must read from a single consistent snapshot.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Name() string
	Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error)
	Get(ctx context.Context, journalID string) (domain.LedgerTransaction, error)
	GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error)
	Reverse(ctx context.Context, journalID string, compensating domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error)
	Balance(ctx context.Context, clientID, account string) (int64, error)
	TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) ([]domain.AccountBalance, error)
}

// Service facilitates ledger engine logic on top of a backend adapter.
type Service struct {
	repo Repo
	now  func() time.Time
}

// New returns the ledger engine for the given backend.
func New(r Repo) *Service {
	return &Service{
		repo: r,
		now:  time.Now,
	}
}

// Record validates entry and persists it as a posted ledger transaction.
func (s *Service) Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	l := zerolog.Ctx(ctx)

	if err := Validate(entry); err != nil {
		l.Info().Err(err).Str("client_id", entry.ClientID).Msg("ledger entry rejected")
		return domain.LedgerTransaction{}, err
	}

	if entry.Date.IsZero() {
		entry.Date = s.now().UTC()
	}

	t, err := s.repo.Record(ctx, entry, correlationID)
	if err != nil {
		l.Error().Err(err).Str("client_id", entry.ClientID).Str("correlation_id", correlationID).Send()
		return domain.LedgerTransaction{}, s.wrap(err)
	}

	l.Info().
		Str("journal_id", t.ID).
		Str("client_id", t.ClientID).
		Str("correlation_id", correlationID).
		Msg("ledger entry recorded")

	return t, nil
}

// Get returns the ledger transaction with the given id if it belongs to clientID.
func (s *Service) Get(ctx context.Context, journalID, clientID string) (domain.LedgerTransaction, error) {
	t, err := s.repo.Get(ctx, journalID)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("journal_id", journalID).Send()
		return domain.LedgerTransaction{}, s.wrap(err)
	}

	if t.ClientID != clientID {
		zerolog.Ctx(ctx).Warn().Str("journal_id", journalID).Str("client_id", clientID).Msg("cross-tenant ledger access")
		return domain.LedgerTransaction{}, domain.ErrTenantMismatch
	}

	return t, nil
}

// GetByCorrelation returns the client's ledger transaction recorded under
// correlationID.
func (s *Service) GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error) {
	if clientID == "" || correlationID == "" {
		return domain.LedgerTransaction{}, domain.NewValidationError("client id and correlation id are required", nil)
	}

	t, err := s.repo.GetByCorrelation(ctx, clientID, correlationID)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("correlation_id", correlationID).Send()
		return domain.LedgerTransaction{}, s.wrap(err)
	}

	return t, nil
}

// Reverse records a compensating transaction with every posting inverted and
// marks the original voided. The original postings are never modified.
func (s *Service) Reverse(ctx context.Context, journalID, clientID, correlationID string) (domain.LedgerTransaction, error) {
	l := zerolog.Ctx(ctx)

	original, err := s.Get(ctx, journalID, clientID)
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	if original.Voided {
		l.Info().Str("journal_id", journalID).Msg("ledger transaction already voided")
		return domain.LedgerTransaction{}, domain.ErrAlreadyVoided
	}

	if original.ReversalOf != "" {
		return domain.LedgerTransaction{}, ErrReverseReversal
	}

	compensating := domain.LedgerEntryRequest{
		ClientID:   original.ClientID,
		Memo:       "Reversal: " + original.Memo,
		Date:       s.now().UTC(),
		Postings:   invert(original),
		ReversalOf: original.ID,
	}

	if err := Validate(compensating); err != nil {
		// The original passed validation, so this means stored data is corrupt.
		l.Error().Err(err).Str("journal_id", journalID).Msg("stored ledger transaction does not balance")
		return domain.LedgerTransaction{}, err
	}

	reversal, err := s.repo.Reverse(ctx, journalID, compensating, correlationID)
	if err != nil {
		l.Error().Err(err).Str("journal_id", journalID).Str("correlation_id", correlationID).Send()
		return domain.LedgerTransaction{}, s.wrap(err)
	}

	l.Info().
		Str("journal_id", journalID).
		Str("reversal_id", reversal.ID).
		Msg("ledger transaction reversed")

	return reversal, nil
}

// Balance returns the signed balance (debits minus credits) of an account.
func (s *Service) Balance(ctx context.Context, account, clientID string) (int64, error) {
	if clientID == "" {
		return 0, domain.NewValidationError("client id is required", nil)
	}

	if !domain.ValidAccountPath(account) {
		return 0, domain.ErrInvalidAccount
	}

	balance, err := s.repo.Balance(ctx, clientID, account)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("account", account).Send()
		return 0, s.wrap(err)
	}

	return balance, nil
}

// TrialBalance aggregates every account balance of the client for the date
// range and checks that total debits equal total credits.
func (s *Service) TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) (domain.TrialBalance, error) {
	l := zerolog.Ctx(ctx)

	if clientID == "" {
		return domain.TrialBalance{}, domain.NewValidationError("client id is required", nil)
	}

	if !dateRange.From.IsZero() && !dateRange.To.IsZero() && dateRange.To.Before(dateRange.From) {
		return domain.TrialBalance{}, domain.NewValidationError("date range ends before it starts", nil)
	}

	rows, err := s.repo.TrialBalance(ctx, clientID, dateRange)
	if err != nil {
		l.Error().Err(err).Str("client_id", clientID).Send()
		return domain.TrialBalance{}, s.wrap(err)
	}

	tb := domain.TrialBalance{
		ClientID: clientID,
		Range:    dateRange,
		Accounts: make([]domain.AccountBalance, 0, len(rows)),
	}

	for _, row := range rows {
		tb.TotalDebit, err = moneypkg.Add(tb.TotalDebit, row.Debit)
		if err != nil {
			return domain.TrialBalance{}, domain.NewValidationError("trial balance totals out of range", err)
		}

		tb.TotalCredit, err = moneypkg.Add(tb.TotalCredit, row.Credit)
		if err != nil {
			return domain.TrialBalance{}, domain.NewValidationError("trial balance totals out of range", err)
		}

		row.Balance = row.Debit.Int64() - row.Credit.Int64()
		tb.Accounts = append(tb.Accounts, row)
	}

	sort.Slice(tb.Accounts, func(i, j int) bool {
		return tb.Accounts[i].Account < tb.Accounts[j].Account
	})

	if tb.TotalDebit != tb.TotalCredit {
		l.Error().
			Str("severity", "critical").
			Str("client_id", clientID).
			Int64("total_debit", tb.TotalDebit.Int64()).
			Int64("total_credit", tb.TotalCredit.Int64()).
			Msg("trial balance mismatch, ledger requires manual investigation")

		return tb, domain.NewIntegrityError(domain.ErrTrialBalanceMismatch.Message, tb.TotalDebit.Int64(), tb.TotalCredit.Int64())
	}

	return tb, nil
}

type statusCoder interface {
	StatusCode() int
}

// wrap passes domain errors through and reports anything else as an
// external service failure of the backend.
func (s *Service) wrap(err error) error {
	if domain.KindOf(err) != "" {
		return err
	}

	status := http.StatusBadGateway

	var sc statusCoder
	switch {
	case errors.As(err, &sc):
		status = sc.StatusCode()
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	return domain.NewExternalServiceError(s.repo.Name(), status, err)
}
