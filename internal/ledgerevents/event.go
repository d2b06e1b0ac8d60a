// Package ledgerevents publishes transaction lifecycle events.
package ledgerevents

import (
	"context"
	"time"

	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
)

// Event types.
const (
	TypeTransactionPosted = "transaction.posted"
	TypeTransactionVoided = "transaction.voided"
)

// Event describes a completed lifecycle transition.
type Event struct {
	Type                string          `json:"type"`
	ClientID            string          `json:"client_id"`
	TransactionID       string          `json:"transaction_id"`
	LedgerTransactionID string          `json:"ledger_transaction_id"`
	ReversalID          string          `json:"reversal_id,omitempty"`
	Amount              moneypkg.Amount `json:"amount"`
	OccurredAt          time.Time       `json:"occurred_at"`
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error {
	return nil
}

// Close does nothing.
func (Nop) Close() error {
	return nil
}
