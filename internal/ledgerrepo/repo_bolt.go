package ledgerrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
const (
	bucketTransactions = "ledger_transactions"
	bucketCorrelations = "ledger_correlations"
)

// RepoBolt stores the ledger in an embedded bbolt file. Every write runs in
// a single bolt update transaction and every read in a view transaction, so
// readers always see a consistent snapshot.
type RepoBolt struct {
	db  *bolt.DB
	now func() time.Time
}

// NewRepoBolt opens (or creates) the ledger file at path.
func NewRepoBolt(path string) (*RepoBolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketTransactions, bucketCorrelations} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &RepoBolt{db: db, now: time.Now}, nil
}

// Close closes the ledger file.
func (r *RepoBolt) Close() error {
	return r.db.Close()
}

// Name returns the backend name.
func (r *RepoBolt) Name() string {
	return NameBolt
}

// Record stores the entry as one transaction.
func (r *RepoBolt) Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	var t domain.LedgerTransaction

	err := r.db.Update(func(tx *bolt.Tx) error {
		var ok bool

		t, ok = replayBolt(tx, entry.ClientID, correlationID)
		if ok {
			var err error
			t, err = replayed(t, "")
			return err
		}

		t = newTransaction(uuid.NewString(), entry, correlationID, r.now())

		return putBolt(tx, t)
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return domain.LedgerTransaction{}, err
	}

	return t, nil
}

// Get returns the transaction with the given id.
func (r *RepoBolt) Get(ctx context.Context, journalID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	var t domain.LedgerTransaction

	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		t, err = getBolt(tx, journalID)
		return err
	})

	return t, err
}

// GetByCorrelation returns the client's transaction recorded under correlationID.
func (r *RepoBolt) GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	var t domain.LedgerTransaction

	err := r.db.View(func(tx *bolt.Tx) error {
		var ok bool

		t, ok = replayBolt(tx, clientID, correlationID)
		if !ok {
			return domain.ErrJournalNotFound
		}

		return nil
	})

	return t, err
}

// Reverse stores compensating and flips the original's voided flag in the
// same update transaction.
func (r *RepoBolt) Reverse(ctx context.Context, journalID string, compensating domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	var reversal domain.LedgerTransaction

	err := r.db.Update(func(tx *bolt.Tx) error {
		var ok bool

		reversal, ok = replayBolt(tx, compensating.ClientID, correlationID)
		if ok {
			var err error
			reversal, err = replayed(reversal, journalID)
			return err
		}

		original, err := getBolt(tx, journalID)
		if err != nil {
			return err
		}

		if original.Voided {
			return domain.ErrAlreadyVoided
		}

		original.Voided = true
		if err := putBolt(tx, original); err != nil {
			return err
		}

		reversal = newTransaction(uuid.NewString(), compensating, correlationID, r.now())

		return putBolt(tx, reversal)
	})
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	return reversal, nil
}

// Balance sums every posting of account.
func (r *RepoBolt) Balance(ctx context.Context, clientID, account string) (int64, error) {
	txs, err := r.scan(ctx)
	if err != nil {
		return 0, err
	}

	return balanceOf(txs, clientID, account), nil
}

// TrialBalance aggregates all accounts from one view transaction.
func (r *RepoBolt) TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) ([]domain.AccountBalance, error) {
	txs, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}

	return aggregate(txs, clientID, dateRange), nil
}

func (r *RepoBolt) scan(ctx context.Context) ([]domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var txs []domain.LedgerTransaction

	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTransactions)).ForEach(func(k, v []byte) error {
			var t domain.LedgerTransaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshal ledger transaction %s: %w", k, err)
			}

			txs = append(txs, t)
			return nil
		})
	})

	return txs, err
}

func getBolt(tx *bolt.Tx, journalID string) (domain.LedgerTransaction, error) {
	var t domain.LedgerTransaction

	data := tx.Bucket([]byte(bucketTransactions)).Get([]byte(journalID))
	if data == nil {
		return t, domain.ErrJournalNotFound
	}

	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("unmarshal ledger transaction %s: %w", journalID, err)
	}

	return t, nil
}

func putBolt(tx *bolt.Tx, t domain.LedgerTransaction) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal ledger transaction: %w", err)
	}

	if err := tx.Bucket([]byte(bucketTransactions)).Put([]byte(t.ID), data); err != nil {
		return err
	}

	if t.CorrelationID == "" {
		return nil
	}

	key := correlationKey(t.ClientID, t.CorrelationID)

	return tx.Bucket([]byte(bucketCorrelations)).Put([]byte(key), []byte(t.ID))
}

func replayBolt(tx *bolt.Tx, clientID, correlationID string) (domain.LedgerTransaction, bool) {
	if correlationID == "" {
		return domain.LedgerTransaction{}, false
	}

	id := tx.Bucket([]byte(bucketCorrelations)).Get([]byte(correlationKey(clientID, correlationID)))
	if id == nil {
		return domain.LedgerTransaction{}, false
	}

	t, err := getBolt(tx, string(id))
	if err != nil {
		return domain.LedgerTransaction{}, false
	}

	return t, true
}
