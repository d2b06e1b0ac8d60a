// Package transactionservice manages the draft transaction lifecycle:
// draft to posted to voided, or draft to deleted.
package transactionservice

import (
	"context"
	"errors"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/internal/ledgerdelivery"
	"github.com/go-petr/receipt-ledger/internal/ledgerevents"
	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
	"github.com/rs/zerolog"
)

// Correlation id prefixes of the ledger writes made on behalf of a draft.
const (
	approvePrefix    = "approve:"
	voidPrefix       = "void:"
	compensatePrefix = "compensate:"
)

// ErrClientRequired indicates a request without a tenant.
var ErrClientRequired = &domain.Error{Kind: domain.KindValidation, Message: "client id is required"}

// Repo provides data access layer interface needed by transaction service layer.
//
// MarkPosted, MarkVoided and Delete are compare-and-set transitions: they
// fail with domain.ErrStateConflict when the draft is not in the source state.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateDraftParams) (domain.DraftTransaction, error)
	CreateMany(ctx context.Context, args []domain.CreateDraftParams) ([]domain.DraftTransaction, error)
	Get(ctx context.Context, id string) (domain.DraftTransaction, error)
	List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.DraftTransaction, error)
	MarkPosted(ctx context.Context, id, ledgerTransactionID string) (domain.DraftTransaction, error)
	MarkVoided(ctx context.Context, id, reason, voidedBy string) (domain.DraftTransaction, error)
	Delete(ctx context.Context, id string) error
}

// Publisher delivers lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e ledgerevents.Event) error
}

// Service facilitates transaction service layer logic.
type Service struct {
	repo      Repo
	ledger    ledgerdelivery.Service
	publisher Publisher
	now       func() time.Time
}

// New returns transaction service. A nil publisher discards events.
func New(r Repo, ls ledgerdelivery.Service, p Publisher) *Service {
	if p == nil {
		p = ledgerevents.Nop{}
	}

	return &Service{
		repo:      r,
		ledger:    ls,
		publisher: p,
		now:       time.Now,
	}
}

func validateDraft(arg domain.CreateDraftParams) error {
	if arg.ClientID == "" {
		return ErrClientRequired
	}

	if !domain.ValidAccountPath(arg.DebitAccount) || !domain.ValidAccountPath(arg.CreditAccount) {
		return domain.ErrInvalidAccount
	}

	if arg.DebitAccount == arg.CreditAccount {
		return domain.ErrSameAccount
	}

	if arg.Amount <= 0 || !arg.Amount.Valid() {
		return domain.ErrInvalidAmount
	}

	return nil
}

// CreateDraft persists the intent to move an amount. Nothing reaches the ledger.
func (s *Service) CreateDraft(ctx context.Context, arg domain.CreateDraftParams) (domain.DraftTransaction, error) {
	l := zerolog.Ctx(ctx)

	if err := validateDraft(arg); err != nil {
		l.Info().Err(err).Msgf("CreateDraft(ctx, %+v)", arg)
		return domain.DraftTransaction{}, err
	}

	if arg.Date.IsZero() {
		arg.Date = s.now().UTC()
	}

	return s.repo.Create(ctx, arg)
}

// CreateSplit divides the receipt total across its lines with the plug method
// and creates one draft per line, all credited to the same account. The
// first line absorbs the remainder.
func (s *Service) CreateSplit(ctx context.Context, arg domain.CreateSplitParams) ([]domain.DraftTransaction, error) {
	l := zerolog.Ctx(ctx)

	if len(arg.Lines) == 0 {
		return nil, domain.ErrNoSplitLines
	}

	shares, err := moneypkg.PlugSplit(arg.Total, len(arg.Lines))
	if err != nil {
		l.Info().Err(err).Int64("total", arg.Total.Int64()).Int("lines", len(arg.Lines)).Send()
		return nil, domain.NewValidationError(err.Error(), err)
	}

	if arg.Date.IsZero() {
		arg.Date = s.now().UTC()
	}

	params := make([]domain.CreateDraftParams, len(arg.Lines))

	for i, line := range arg.Lines {
		params[i] = domain.CreateDraftParams{
			ClientID:      arg.ClientID,
			ReceiptID:     arg.ReceiptID,
			DebitAccount:  line.DebitAccount,
			CreditAccount: arg.CreditAccount,
			Amount:        shares[i],
			Description:   line.Description,
			Date:          arg.Date,
		}

		if err := validateDraft(params[i]); err != nil {
			l.Info().Err(err).Int("line", i).Msg("split line rejected")
			return nil, err
		}
	}

	return s.repo.CreateMany(ctx, params)
}

// Get returns the draft with the given id if it belongs to clientID.
func (s *Service) Get(ctx context.Context, clientID, id string) (domain.DraftTransaction, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.DraftTransaction{}, err
	}

	if d.ClientID != clientID {
		zerolog.Ctx(ctx).Warn().Str("transaction_id", id).Str("client_id", clientID).Msg("cross-tenant transaction access")
		return domain.DraftTransaction{}, domain.ErrTenantMismatch
	}

	return d, nil
}

// List returns a page of the client's drafts, optionally filtered by status.
func (s *Service) List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.DraftTransaction, error) {
	if arg.ClientID == "" {
		return nil, ErrClientRequired
	}

	if arg.Status != "" && !arg.Status.Valid() {
		return nil, domain.NewValidationError("unknown status "+string(arg.Status), nil)
	}

	if arg.Limit < 0 || arg.Offset < 0 {
		return nil, domain.NewValidationError("limit and offset must not be negative", nil)
	}

	return s.repo.List(ctx, arg)
}

// Approve records the draft in the ledger and moves it to posted.
//
// The ledger write is keyed by the draft id, so concurrent or repeated
// approvals produce a single ledger transaction. When another caller wins the
// transition, the already posted draft is returned. On failure the draft
// stays in draft and the error is returned unchanged.
func (s *Service) Approve(ctx context.Context, clientID, id string) (domain.DraftTransaction, error) {
	l := zerolog.Ctx(ctx)

	d, err := s.Get(ctx, clientID, id)
	if err != nil {
		return domain.DraftTransaction{}, err
	}

	if d.Status != domain.StatusDraft {
		l.Info().Str("transaction_id", id).Str("status", string(d.Status)).Msg("approve rejected")
		return domain.DraftTransaction{}, domain.ErrStateConflict
	}

	metadata := map[string]string{domain.MetaTransactionID: d.ID}
	if d.ReceiptID != "" {
		metadata[domain.MetaReceiptID] = d.ReceiptID
	}

	entry := domain.LedgerEntryRequest{
		ClientID: d.ClientID,
		Memo:     d.Description,
		Date:     d.Date,
		Postings: map[string]int64{
			d.DebitAccount:  d.Amount.Int64(),
			d.CreditAccount: -d.Amount.Int64(),
		},
		Metadata: metadata,
	}

	lt, err := s.ledger.Record(ctx, entry, approvePrefix+d.ID)
	if err != nil {
		return domain.DraftTransaction{}, err
	}

	posted, err := s.repo.MarkPosted(ctx, d.ID, lt.ID)

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStateConflict):
		current, gerr := s.repo.Get(ctx, d.ID)
		if gerr != nil {
			return domain.DraftTransaction{}, gerr
		}

		if current.LedgerTransactionID == lt.ID {
			l.Info().Str("transaction_id", id).Msg("approve lost the race to a concurrent approve")
			return current, nil
		}

		return domain.DraftTransaction{}, err
	case errors.Is(err, domain.ErrTransactionNotFound):
		s.compensate(ctx, d, lt)
		return domain.DraftTransaction{}, err
	default:
		return domain.DraftTransaction{}, err
	}

	l.Info().Str("transaction_id", id).Str("journal_id", lt.ID).Msg("transaction posted")

	s.publish(ctx, ledgerevents.Event{
		Type:                ledgerevents.TypeTransactionPosted,
		ClientID:            posted.ClientID,
		TransactionID:       posted.ID,
		LedgerTransactionID: lt.ID,
		Amount:              posted.Amount,
		OccurredAt:          s.now().UTC(),
	})

	return posted, nil
}

// compensate reverses a ledger transaction whose draft was deleted before
// the approve that recorded it could mark the draft posted.
func (s *Service) compensate(ctx context.Context, d domain.DraftTransaction, lt domain.LedgerTransaction) {
	l := zerolog.Ctx(ctx)

	l.Warn().Str("transaction_id", d.ID).Str("journal_id", lt.ID).Msg("draft deleted after its ledger entry was recorded, reversing ledger entry")

	if _, err := s.ledger.Reverse(ctx, lt.ID, d.ClientID, compensatePrefix+d.ID); err != nil && !errors.Is(err, domain.ErrAlreadyVoided) {
		l.Error().
			Err(err).
			Str("severity", "critical").
			Str("transaction_id", d.ID).
			Str("journal_id", lt.ID).
			Msg("orphaned ledger transaction")
	}
}

// Void reverses the posted transaction's ledger entry and moves it to voided.
//
// A ledger entry that is already voided means an earlier attempt reversed it
// but did not finish the transition, so the transition is completed.
func (s *Service) Void(ctx context.Context, clientID, id, reason, voidedBy string) (domain.DraftTransaction, error) {
	l := zerolog.Ctx(ctx)

	d, err := s.Get(ctx, clientID, id)
	if err != nil {
		return domain.DraftTransaction{}, err
	}

	if d.Status != domain.StatusPosted {
		l.Info().Str("transaction_id", id).Str("status", string(d.Status)).Msg("void rejected")
		return domain.DraftTransaction{}, domain.ErrStateConflict
	}

	reversal, err := s.ledger.Reverse(ctx, d.LedgerTransactionID, clientID, voidPrefix+d.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyVoided) {
			return domain.DraftTransaction{}, err
		}

		l.Warn().Str("transaction_id", id).Str("journal_id", d.LedgerTransactionID).Msg("ledger entry already reversed, completing void")
	}

	voided, err := s.repo.MarkVoided(ctx, d.ID, reason, voidedBy)
	if err != nil {
		return domain.DraftTransaction{}, err
	}

	l.Info().Str("transaction_id", id).Str("reversal_id", reversal.ID).Str("voided_by", voidedBy).Msg("transaction voided")

	s.publish(ctx, ledgerevents.Event{
		Type:                ledgerevents.TypeTransactionVoided,
		ClientID:            voided.ClientID,
		TransactionID:       voided.ID,
		LedgerTransactionID: voided.LedgerTransactionID,
		ReversalID:          reversal.ID,
		Amount:              voided.Amount,
		OccurredAt:          s.now().UTC(),
	})

	return voided, nil
}

// DeleteDraft removes a draft. Posted and voided transactions are kept forever.
func (s *Service) DeleteDraft(ctx context.Context, clientID, id string) error {
	d, err := s.Get(ctx, clientID, id)
	if err != nil {
		return err
	}

	if d.Status != domain.StatusDraft {
		zerolog.Ctx(ctx).Info().Str("transaction_id", id).Str("status", string(d.Status)).Msg("delete rejected")
		return domain.ErrStateConflict
	}

	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}

	// An approve that recorded the ledger entry but failed to mark the draft
	// posted leaves an entry under the approve correlation id.
	lt, err := s.ledger.GetByCorrelation(ctx, d.ClientID, approvePrefix+d.ID)

	switch {
	case err == nil:
		if !lt.Voided {
			s.compensate(ctx, d, lt)
		}
	case errors.Is(err, domain.ErrJournalNotFound):
	default:
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("severity", "critical").
			Str("transaction_id", d.ID).
			Msg("cannot check deleted draft for a recorded ledger entry")
	}

	return nil
}

// TODO: write events to an outbox table in the same store transaction as
// the state change so a failed publish can be retried.
func (s *Service) publish(ctx context.Context, e ledgerevents.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("type", e.Type).
			Str("transaction_id", e.TransactionID).
			Msg("publishing lifecycle event")
	}
}
