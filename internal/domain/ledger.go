package domain

import (
	"time"

	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
)

var (
	// ErrJournalNotFound indicates that the ledger transaction is not found.
	ErrJournalNotFound = &Error{Kind: KindNotFound, Message: "ledger transaction not found"}
	// ErrTenantMismatch indicates access to a record of another tenant.
	ErrTenantMismatch = &Error{Kind: KindForbidden, Message: "record belongs to another client"}
	// ErrCorrelationConflict indicates a correlation id already used by a different kind of ledger write.
	ErrCorrelationConflict = &Error{Kind: KindForbidden, Message: "correlation id already used by another ledger write"}
	// ErrReservedMetadata indicates client metadata using a key the ledger sets itself.
	ErrReservedMetadata = &Error{Kind: KindValidation, Message: "metadata key is reserved"}
	// ErrAlreadyVoided indicates that the ledger transaction is already voided.
	ErrAlreadyVoided = &Error{Kind: KindFinancialIntegrity, Message: "ledger transaction already voided"}
	// ErrEmptyEntry indicates an entry without postings.
	ErrEmptyEntry = &Error{Kind: KindFinancialIntegrity, Message: "ledger entry has no postings"}
	// ErrUnbalancedEntry indicates an entry whose debits and credits differ.
	ErrUnbalancedEntry = &Error{Kind: KindFinancialIntegrity, Message: "ledger entry is unbalanced"}
	// ErrTrialBalanceMismatch indicates that the tenant's ledger does not balance.
	ErrTrialBalanceMismatch = &Error{Kind: KindFinancialIntegrity, Message: "trial balance mismatch"}
)

// Metadata keys set on ledger entries by the lifecycle service.
const (
	MetaTransactionID = "transaction_id"
	MetaReceiptID     = "receipt_id"
	MetaReversalOf    = "reversal_of"
)

// ReservedMetadataKey returns the first key of metadata that only the
// service itself may set.
func ReservedMetadataKey(metadata map[string]string) (string, bool) {
	for _, k := range []string{MetaTransactionID, MetaReceiptID, MetaReversalOf} {
		if _, ok := metadata[k]; ok {
			return k, true
		}
	}

	return "", false
}

// LedgerEntryRequest is a proposed set of postings.
//
// Postings maps an account path to a signed minor-unit delta: positive
// values are debits, negative values are credits. ReversalOf is set only
// on the compensating entry built by a reversal.
type LedgerEntryRequest struct {
	ClientID   string            `json:"client_id"`
	Memo       string            `json:"memo"`
	Date       time.Time         `json:"date"`
	Postings   map[string]int64  `json:"postings"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ReversalOf string            `json:"-"`
}

// Posting is one account side of a ledger transaction. Exactly one of
// Debit and Credit is non-zero.
type Posting struct {
	Account string          `json:"account"`
	Debit   moneypkg.Amount `json:"debit"`
	Credit  moneypkg.Amount `json:"credit"`
}

// Delta returns the signed effect of the posting on its account.
func (p Posting) Delta() int64 {
	return p.Debit.Int64() - p.Credit.Int64()
}

// LedgerTransaction is an immutable recorded entry. Only Voided ever changes.
type LedgerTransaction struct {
	ID            string            `json:"id"`
	ClientID      string            `json:"client_id"`
	Memo          string            `json:"memo"`
	Date          time.Time         `json:"date"`
	Posted        bool              `json:"posted"`
	Voided        bool              `json:"voided"`
	Postings      []Posting         `json:"postings"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	ReversalOf    string            `json:"reversal_of,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Deltas returns the postings as an account to signed delta map.
func (t LedgerTransaction) Deltas() map[string]int64 {
	deltas := make(map[string]int64, len(t.Postings))
	for _, p := range t.Postings {
		deltas[p.Account] += p.Delta()
	}

	return deltas
}

// DateRange bounds a query by transaction date. Zero bounds are open.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range, bounds inclusive.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}

	if !r.To.IsZero() && t.After(r.To) {
		return false
	}

	return true
}

// AccountBalance holds the debit and credit turnover of one account.
type AccountBalance struct {
	Account string          `json:"account"`
	Debit   moneypkg.Amount `json:"debit"`
	Credit  moneypkg.Amount `json:"credit"`
	Balance int64           `json:"balance"`
}

// TrialBalance holds every account balance of a tenant for a date range.
type TrialBalance struct {
	ClientID    string           `json:"client_id"`
	Range       DateRange        `json:"range"`
	Accounts    []AccountBalance `json:"accounts"`
	TotalDebit  moneypkg.Amount  `json:"total_debit"`
	TotalCredit moneypkg.Amount  `json:"total_credit"`
}
