package ledgerrepo

import (
	"context"
	"sync"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/google/uuid"
)

// RepoMem keeps the ledger in process memory. It is used by tests and for
// local development.
type RepoMem struct {
	mu           sync.RWMutex
	transactions []domain.LedgerTransaction
	index        map[string]int
	correlations map[string]string
	now          func() time.Time
}

// NewRepoMem returns an empty in-memory ledger.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		index:        make(map[string]int),
		correlations: make(map[string]string),
		now:          time.Now,
	}
}

// Name returns the backend name.
func (r *RepoMem) Name() string {
	return NameMemory
}

// Record appends the entry as one transaction under the write lock.
func (r *RepoMem) Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.replay(entry.ClientID, correlationID); ok {
		return replayed(t, "")
	}

	return r.append(entry, correlationID), nil
}

// Get returns the transaction with the given id.
func (r *RepoMem) Get(ctx context.Context, journalID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[journalID]
	if !ok {
		return domain.LedgerTransaction{}, domain.ErrJournalNotFound
	}

	return clone(r.transactions[i]), nil
}

// GetByCorrelation returns the client's transaction recorded under correlationID.
func (r *RepoMem) GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.replay(clientID, correlationID)
	if !ok {
		return domain.LedgerTransaction{}, domain.ErrJournalNotFound
	}

	return t, nil
}

// Reverse appends compensating and marks the original voided.
func (r *RepoMem) Reverse(ctx context.Context, journalID string, compensating domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.replay(compensating.ClientID, correlationID); ok {
		return replayed(t, journalID)
	}

	i, ok := r.index[journalID]
	if !ok {
		return domain.LedgerTransaction{}, domain.ErrJournalNotFound
	}

	if r.transactions[i].Voided {
		return domain.LedgerTransaction{}, domain.ErrAlreadyVoided
	}

	r.transactions[i].Voided = true

	return r.append(compensating, correlationID), nil
}

// Balance sums every posting of account.
func (r *RepoMem) Balance(ctx context.Context, clientID, account string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return balanceOf(r.transactions, clientID, account), nil
}

// TrialBalance aggregates all accounts under one read lock.
func (r *RepoMem) TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) ([]domain.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return aggregate(r.transactions, clientID, dateRange), nil
}

func (r *RepoMem) replay(clientID, correlationID string) (domain.LedgerTransaction, bool) {
	if correlationID == "" {
		return domain.LedgerTransaction{}, false
	}

	id, ok := r.correlations[correlationKey(clientID, correlationID)]
	if !ok {
		return domain.LedgerTransaction{}, false
	}

	return clone(r.transactions[r.index[id]]), true
}

func (r *RepoMem) append(entry domain.LedgerEntryRequest, correlationID string) domain.LedgerTransaction {
	t := newTransaction(uuid.NewString(), entry, correlationID, r.now())

	r.index[t.ID] = len(r.transactions)
	r.transactions = append(r.transactions, t)

	if correlationID != "" {
		r.correlations[correlationKey(t.ClientID, correlationID)] = t.ID
	}

	return clone(t)
}
