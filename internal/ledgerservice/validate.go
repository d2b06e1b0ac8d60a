package ledgerservice

import (
	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
)

// Validate checks that entry is well formed and balanced.
//
// Positive deltas are summed into the total debit, negative deltas into the
// total credit. An empty entry or differing totals fail with a financial
// integrity error carrying both totals.
func Validate(entry domain.LedgerEntryRequest) error {
	if entry.ClientID == "" {
		return domain.NewValidationError("client id is required", nil)
	}

	if _, ok := entry.Metadata[domain.MetaReversalOf]; ok {
		return domain.NewValidationError(domain.ErrReservedMetadata.Message+" "+domain.MetaReversalOf, nil)
	}

	if len(entry.Postings) == 0 {
		return domain.ErrEmptyEntry
	}

	var totalDebit, totalCredit moneypkg.Amount

	for account, delta := range entry.Postings {
		if !domain.ValidAccountPath(account) {
			return domain.NewValidationError(domain.ErrInvalidAccount.Message+" "+account, nil)
		}

		if delta == 0 {
			return domain.NewValidationError("zero delta for account "+account, nil)
		}

		magnitude := delta
		if magnitude < 0 {
			magnitude = -magnitude
		}

		amount, err := moneypkg.New(magnitude)
		if err != nil {
			return domain.NewValidationError("delta out of range for account "+account, err)
		}

		if delta > 0 {
			totalDebit, err = moneypkg.Add(totalDebit, amount)
		} else {
			totalCredit, err = moneypkg.Add(totalCredit, amount)
		}

		if err != nil {
			return domain.NewValidationError("entry totals out of range", err)
		}
	}

	if totalDebit != totalCredit {
		return domain.NewIntegrityError(domain.ErrUnbalancedEntry.Message, totalDebit.Int64(), totalCredit.Int64())
	}

	return nil
}

// invert returns the compensating postings of t.
func invert(t domain.LedgerTransaction) map[string]int64 {
	deltas := t.Deltas()
	for account, delta := range deltas {
		deltas[account] = -delta
	}

	return deltas
}
