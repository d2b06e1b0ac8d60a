package domain

import (
	"time"

	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
)

var (
	// ErrTransactionNotFound indicates that the draft transaction is not found.
	ErrTransactionNotFound = &Error{Kind: KindNotFound, Message: "transaction not found"}
	// ErrStateConflict indicates a lifecycle transition from a state that does not allow it.
	ErrStateConflict = &Error{Kind: KindForbidden, Message: "transaction state does not allow this operation"}
	// ErrSameAccount indicates identical debit and credit accounts.
	ErrSameAccount = &Error{Kind: KindValidation, Message: "debit and credit accounts must differ"}
	// ErrInvalidAmount indicates a zero or out of range amount.
	ErrInvalidAmount = &Error{Kind: KindValidation, Message: "invalid amount"}
	// ErrInvalidAccount indicates a blank or malformed account path.
	ErrInvalidAccount = &Error{Kind: KindValidation, Message: "invalid account path"}
	// ErrNoSplitLines indicates a split request without lines.
	ErrNoSplitLines = &Error{Kind: KindValidation, Message: "split requires at least one line"}
)

// TransactionStatus is the lifecycle state of a draft transaction.
type TransactionStatus string

// Lifecycle states. Deleted drafts are removed, so there is no deleted state.
const (
	StatusDraft  TransactionStatus = "draft"
	StatusPosted TransactionStatus = "posted"
	StatusVoided TransactionStatus = "voided"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPosted, StatusVoided:
		return true
	}

	return false
}

// DraftTransaction is the user facing intent to move an amount between two accounts.
type DraftTransaction struct {
	ID                  string            `json:"id"`
	ClientID            string            `json:"client_id"`
	ReceiptID           string            `json:"receipt_id,omitempty"`
	DebitAccount        string            `json:"debit_account"`
	CreditAccount       string            `json:"credit_account"`
	Amount              moneypkg.Amount   `json:"amount"`
	Description         string            `json:"description"`
	Date                time.Time         `json:"date"`
	Status              TransactionStatus `json:"status"`
	LedgerTransactionID string            `json:"ledger_transaction_id,omitempty"`
	VoidReason          string            `json:"void_reason,omitempty"`
	VoidedBy            string            `json:"voided_by,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// CreateDraftParams is the input data to create a draft transaction.
type CreateDraftParams struct {
	ClientID      string          `json:"client_id"`
	ReceiptID     string          `json:"receipt_id"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        moneypkg.Amount `json:"amount"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
}

// SplitLine is one expense line of a split receipt.
type SplitLine struct {
	DebitAccount string `json:"debit_account"`
	Description  string `json:"description"`
}

// CreateSplitParams is the input data to split a receipt total into drafts.
type CreateSplitParams struct {
	ClientID      string          `json:"client_id"`
	ReceiptID     string          `json:"receipt_id"`
	CreditAccount string          `json:"credit_account"`
	Total         moneypkg.Amount `json:"total"`
	Date          time.Time       `json:"date"`
	Lines         []SplitLine     `json:"lines"`
}

// ListTransactionsParams filters a page of draft transactions.
type ListTransactionsParams struct {
	ClientID string            `json:"client_id"`
	Status   TransactionStatus `json:"status"`
	Limit    int32             `json:"limit"`
	Offset   int32             `json:"offset"`
}
