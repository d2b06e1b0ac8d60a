// Package ledgerrepo provides ledger backend adapters.
package ledgerrepo

import (
	"sort"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
)

// Backend names reported in external service errors.
const (
	NameMemory   = "memory"
	NamePostgres = "postgres"
	NameBolt     = "bolt"
)

// postingsOf converts signed deltas into postings ordered by account.
func postingsOf(deltas map[string]int64) []domain.Posting {
	postings := make([]domain.Posting, 0, len(deltas))

	for account, delta := range deltas {
		p := domain.Posting{Account: account}
		if delta > 0 {
			p.Debit = moneypkg.Amount(delta)
		} else {
			p.Credit = moneypkg.Amount(-delta)
		}

		postings = append(postings, p)
	}

	sort.Slice(postings, func(i, j int) bool {
		return postings[i].Account < postings[j].Account
	})

	return postings
}

func newTransaction(id string, entry domain.LedgerEntryRequest, correlationID string, now time.Time) domain.LedgerTransaction {
	var metadata map[string]string
	if len(entry.Metadata) > 0 {
		metadata = make(map[string]string, len(entry.Metadata))
		for k, v := range entry.Metadata {
			metadata[k] = v
		}
	}

	return domain.LedgerTransaction{
		ID:            id,
		ClientID:      entry.ClientID,
		Memo:          entry.Memo,
		Date:          entry.Date.UTC(),
		Posted:        true,
		Postings:      postingsOf(entry.Postings),
		Metadata:      metadata,
		CorrelationID: correlationID,
		ReversalOf:    entry.ReversalOf,
		CreatedAt:     now.UTC(),
	}
}

// replayed returns t, the transaction stored under a correlation id, if it
// is the same kind of write as the one being retried: a plain entry for
// Record, or the reversal of journalID for Reverse.
func replayed(t domain.LedgerTransaction, reversalOf string) (domain.LedgerTransaction, error) {
	if t.ReversalOf != reversalOf {
		return domain.LedgerTransaction{}, domain.ErrCorrelationConflict
	}

	return t, nil
}

// correlationKey scopes a correlation id to its tenant.
func correlationKey(clientID, correlationID string) string {
	return clientID + "/" + correlationID
}

// balanceOf sums the deltas of account over txs.
func balanceOf(txs []domain.LedgerTransaction, clientID, account string) int64 {
	var balance int64

	for _, t := range txs {
		if t.ClientID != clientID {
			continue
		}

		for _, p := range t.Postings {
			if p.Account == account {
				balance += p.Delta()
			}
		}
	}

	return balance
}

// aggregate returns the per-account debit and credit turnover of the
// client's transactions dated inside dateRange.
func aggregate(txs []domain.LedgerTransaction, clientID string, dateRange domain.DateRange) []domain.AccountBalance {
	byAccount := make(map[string]*domain.AccountBalance)

	for _, t := range txs {
		if t.ClientID != clientID || !dateRange.Contains(t.Date) {
			continue
		}

		for _, p := range t.Postings {
			ab, ok := byAccount[p.Account]
			if !ok {
				ab = &domain.AccountBalance{Account: p.Account}
				byAccount[p.Account] = ab
			}

			ab.Debit += p.Debit
			ab.Credit += p.Credit
		}
	}

	balances := make([]domain.AccountBalance, 0, len(byAccount))
	for _, ab := range byAccount {
		ab.Balance = ab.Debit.Int64() - ab.Credit.Int64()
		balances = append(balances, *ab)
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Account < balances[j].Account
	})

	return balances
}

func clone(t domain.LedgerTransaction) domain.LedgerTransaction {
	postings := make([]domain.Posting, len(t.Postings))
	copy(postings, t.Postings)
	t.Postings = postings

	if t.Metadata != nil {
		metadata := make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			metadata[k] = v
		}
		t.Metadata = metadata
	}

	return t
}
