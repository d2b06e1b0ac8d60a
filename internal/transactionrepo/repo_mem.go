// Package transactionrepo manages repository layer of draft transactions.
package transactionrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/google/uuid"
)

// RepoMem keeps draft transactions in process memory.
type RepoMem struct {
	mu     sync.RWMutex
	drafts map[string]domain.DraftTransaction
	now    func() time.Time
}

// NewRepoMem returns an empty in-memory draft store.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		drafts: make(map[string]domain.DraftTransaction),
		now:    time.Now,
	}
}

// Create stores a new draft.
func (r *RepoMem) Create(ctx context.Context, arg domain.CreateDraftParams) (domain.DraftTransaction, error) {
	drafts, err := r.CreateMany(ctx, []domain.CreateDraftParams{arg})
	if err != nil {
		return domain.DraftTransaction{}, err
	}

	return drafts[0], nil
}

// CreateMany stores all drafts or none.
func (r *RepoMem) CreateMany(ctx context.Context, args []domain.CreateDraftParams) ([]domain.DraftTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	drafts := make([]domain.DraftTransaction, 0, len(args))

	for _, arg := range args {
		d := newDraft(uuid.NewString(), arg, now)
		r.drafts[d.ID] = d
		drafts = append(drafts, d)
	}

	return drafts, nil
}

// Get returns the draft with the given id.
func (r *RepoMem) Get(ctx context.Context, id string) (domain.DraftTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.DraftTransaction{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drafts[id]
	if !ok {
		return domain.DraftTransaction{}, domain.ErrTransactionNotFound
	}

	return d, nil
}

// List returns a page of the client's drafts ordered by creation time.
func (r *RepoMem) List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.DraftTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []domain.DraftTransaction{}

	for _, d := range r.drafts {
		if d.ClientID != arg.ClientID {
			continue
		}

		if arg.Status != "" && d.Status != arg.Status {
			continue
		}

		items = append(items, d)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	offset := int(arg.Offset)
	if offset > len(items) {
		offset = len(items)
	}

	end := len(items)
	if arg.Limit > 0 && offset+int(arg.Limit) < end {
		end = offset + int(arg.Limit)
	}

	return items[offset:end], nil
}

// MarkPosted moves a draft to posted if it is still a draft.
func (r *RepoMem) MarkPosted(ctx context.Context, id, ledgerTransactionID string) (domain.DraftTransaction, error) {
	return r.transition(ctx, id, domain.StatusDraft, func(d *domain.DraftTransaction) {
		d.Status = domain.StatusPosted
		d.LedgerTransactionID = ledgerTransactionID
	})
}

// MarkVoided moves a posted transaction to voided if it is still posted.
func (r *RepoMem) MarkVoided(ctx context.Context, id, reason, voidedBy string) (domain.DraftTransaction, error) {
	return r.transition(ctx, id, domain.StatusPosted, func(d *domain.DraftTransaction) {
		d.Status = domain.StatusVoided
		d.VoidReason = reason
		d.VoidedBy = voidedBy
	})
}

// Delete removes a draft if it is still a draft.
func (r *RepoMem) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	if d.Status != domain.StatusDraft {
		return domain.ErrStateConflict
	}

	delete(r.drafts, id)

	return nil
}

func (r *RepoMem) transition(ctx context.Context, id string, from domain.TransactionStatus, apply func(*domain.DraftTransaction)) (domain.DraftTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.DraftTransaction{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[id]
	if !ok {
		return domain.DraftTransaction{}, domain.ErrTransactionNotFound
	}

	if d.Status != from {
		return domain.DraftTransaction{}, domain.ErrStateConflict
	}

	apply(&d)
	d.UpdatedAt = r.now().UTC()
	r.drafts[id] = d

	return d, nil
}

func newDraft(id string, arg domain.CreateDraftParams, now time.Time) domain.DraftTransaction {
	return domain.DraftTransaction{
		ID:            id,
		ClientID:      arg.ClientID,
		ReceiptID:     arg.ReceiptID,
		DebitAccount:  arg.DebitAccount,
		CreditAccount: arg.CreditAccount,
		Amount:        arg.Amount,
		Description:   arg.Description,
		Date:          arg.Date.UTC(),
		Status:        domain.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
