package ledgerrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/pkg/dbpkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const uniqueCorrelationConstraint = "ledger_transactions_client_id_correlation_id_key"

// RepoPGS stores the ledger in PostgreSQL.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
	now  func() time.Time
}

// NewTxRepoPGS returns ledger RepoPGS bound to an already started transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db:  db,
		now: time.Now,
	}
}

// NewRepoPGS returns ledger RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
		now:  time.Now,
	}
}

// Name returns the backend name.
func (r *RepoPGS) Name() string {
	return NamePostgres
}

// Record inserts the transaction and its postings in one database transaction.
func (r *RepoPGS) Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	l := zerolog.Ctx(ctx)

	if t, ok, err := r.replay(ctx, r.db, entry.ClientID, correlationID); err != nil || ok {
		if err != nil {
			return t, err
		}

		return replayed(t, "")
	}

	t := newTransaction(uuid.NewString(), entry, correlationID, r.now())

	err := dbpkg.WithTx(ctx, r.conn, r.db, nil, func(q dbpkg.SQLInterface) error {
		return insertTransaction(ctx, q, t)
	})
	if err != nil {
		if isCorrelationConflict(err) {
			l.Info().Str("correlation_id", correlationID).Msg("concurrent ledger write with the same correlation id")
			t, _, err = r.replay(ctx, r.db, entry.ClientID, correlationID)
			if err != nil {
				return domain.LedgerTransaction{}, err
			}

			return replayed(t, "")
		}

		l.Error().Err(err).Msgf("Record(ctx, %+v, %q)", entry, correlationID)
		return domain.LedgerTransaction{}, err
	}

	return t, nil
}

const getTransactionQuery = `
SELECT
	id, client_id, memo, date, posted, voided, metadata, correlation_id, reversal_of, created_at
FROM ledger_transactions
WHERE id = $1
`

const getPostingsQuery = `
SELECT
	account, debit, credit
FROM ledger_postings
WHERE transaction_id = $1
ORDER BY account
`

// Get returns the transaction with the given id.
func (r *RepoPGS) Get(ctx context.Context, journalID string) (domain.LedgerTransaction, error) {
	return get(ctx, r.db, journalID)
}

// GetByCorrelation returns the client's transaction recorded under correlationID.
func (r *RepoPGS) GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error) {
	t, ok, err := r.replay(ctx, r.db, clientID, correlationID)
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	if !ok {
		return domain.LedgerTransaction{}, domain.ErrJournalNotFound
	}

	return t, nil
}

func get(ctx context.Context, q dbpkg.SQLInterface, journalID string) (domain.LedgerTransaction, error) {
	var (
		t             domain.LedgerTransaction
		metadata      []byte
		correlationID sql.NullString
		reversalOf    sql.NullString
	)

	err := q.QueryRowContext(ctx, getTransactionQuery, journalID).Scan(
		&t.ID,
		&t.ClientID,
		&t.Memo,
		&t.Date,
		&t.Posted,
		&t.Voided,
		&metadata,
		&correlationID,
		&reversalOf,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerTransaction{}, domain.ErrJournalNotFound
		}

		return domain.LedgerTransaction{}, err
	}

	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.CorrelationID = correlationID.String
	t.ReversalOf = reversalOf.String

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return domain.LedgerTransaction{}, err
		}
	}

	rows, err := q.QueryContext(ctx, getPostingsQuery, journalID)
	if err != nil {
		return domain.LedgerTransaction{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Posting
		if err := rows.Scan(&p.Account, &p.Debit, &p.Credit); err != nil {
			return domain.LedgerTransaction{}, err
		}

		t.Postings = append(t.Postings, p)
	}

	if err := rows.Err(); err != nil {
		return domain.LedgerTransaction{}, err
	}

	return t, nil
}

const voidQuery = `
UPDATE ledger_transactions
SET voided = true
WHERE id = $1 AND voided = false
`

// Reverse flips the original's voided flag with a compare-and-set and
// inserts the compensating transaction in the same database transaction.
func (r *RepoPGS) Reverse(ctx context.Context, journalID string, compensating domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error) {
	l := zerolog.Ctx(ctx)

	if t, ok, err := r.replay(ctx, r.db, compensating.ClientID, correlationID); err != nil || ok {
		if err != nil {
			return t, err
		}

		return replayed(t, journalID)
	}

	reversal := newTransaction(uuid.NewString(), compensating, correlationID, r.now())

	err := dbpkg.WithTx(ctx, r.conn, r.db, nil, func(q dbpkg.SQLInterface) error {
		res, err := q.ExecContext(ctx, voidQuery, journalID)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 0 {
			if _, err := get(ctx, q, journalID); err != nil {
				return err
			}

			return domain.ErrAlreadyVoided
		}

		return insertTransaction(ctx, q, reversal)
	})
	if err != nil {
		if isCorrelationConflict(err) {
			reversal, _, err = r.replay(ctx, r.db, compensating.ClientID, correlationID)
			if err != nil {
				return domain.LedgerTransaction{}, err
			}

			return replayed(reversal, journalID)
		}

		l.Info().Err(err).Str("journal_id", journalID).Send()
		return domain.LedgerTransaction{}, err
	}

	return reversal, nil
}

const balanceQuery = `
SELECT
	COALESCE(SUM(debit - credit), 0)
FROM ledger_postings
WHERE client_id = $1 AND account = $2
`

// Balance sums every posting of account.
func (r *RepoPGS) Balance(ctx context.Context, clientID, account string) (int64, error) {
	var balance int64

	if err := r.db.QueryRowContext(ctx, balanceQuery, clientID, account).Scan(&balance); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return 0, err
	}

	return balance, nil
}

const trialBalanceQuery = `
SELECT
	p.account, COALESCE(SUM(p.debit), 0), COALESCE(SUM(p.credit), 0)
FROM ledger_postings p
JOIN ledger_transactions t ON t.id = p.transaction_id
WHERE
	t.client_id = $1
	AND ($2::timestamptz IS NULL OR t.date >= $2)
	AND ($3::timestamptz IS NULL OR t.date <= $3)
GROUP BY p.account
ORDER BY p.account
`

// TrialBalance aggregates all accounts inside a read-only repeatable read
// transaction so every account comes from the same snapshot.
func (r *RepoPGS) TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) ([]domain.AccountBalance, error) {
	from := sql.NullTime{Time: dateRange.From, Valid: !dateRange.From.IsZero()}
	to := sql.NullTime{Time: dateRange.To, Valid: !dateRange.To.IsZero()}

	balances := []domain.AccountBalance{}

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

	err := dbpkg.WithTx(ctx, r.conn, r.db, opts, func(q dbpkg.SQLInterface) error {
		rows, err := q.QueryContext(ctx, trialBalanceQuery, clientID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ab domain.AccountBalance
			if err := rows.Scan(&ab.Account, &ab.Debit, &ab.Credit); err != nil {
				return err
			}

			ab.Balance = ab.Debit.Int64() - ab.Credit.Int64()
			balances = append(balances, ab)
		}

		return rows.Err()
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return nil, err
	}

	return balances, nil
}

const insertTransactionQuery = `
INSERT INTO
	ledger_transactions (id, client_id, memo, date, posted, voided, metadata, correlation_id, reversal_of, created_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const insertPostingQuery = `
INSERT INTO
	ledger_postings (transaction_id, client_id, account, debit, credit)
VALUES
	($1, $2, $3, $4, $5)
`

func insertTransaction(ctx context.Context, q dbpkg.SQLInterface, t domain.LedgerTransaction) error {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, insertTransactionQuery,
		t.ID,
		t.ClientID,
		t.Memo,
		t.Date,
		t.Posted,
		t.Voided,
		metadata,
		sql.NullString{String: t.CorrelationID, Valid: t.CorrelationID != ""},
		sql.NullString{String: t.ReversalOf, Valid: t.ReversalOf != ""},
		t.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, p := range t.Postings {
		if _, err := q.ExecContext(ctx, insertPostingQuery, t.ID, t.ClientID, p.Account, p.Debit, p.Credit); err != nil {
			return err
		}
	}

	return nil
}

const getByCorrelationQuery = `
SELECT id
FROM ledger_transactions
WHERE client_id = $1 AND correlation_id = $2
`

func (r *RepoPGS) replay(ctx context.Context, q dbpkg.SQLInterface, clientID, correlationID string) (domain.LedgerTransaction, bool, error) {
	if correlationID == "" {
		return domain.LedgerTransaction{}, false, nil
	}

	var id string

	err := q.QueryRowContext(ctx, getByCorrelationQuery, clientID, correlationID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerTransaction{}, false, nil
		}

		return domain.LedgerTransaction{}, false, err
	}

	t, err := get(ctx, q, id)
	if err != nil {
		return domain.LedgerTransaction{}, false, err
	}

	return t, true, nil
}

func isCorrelationConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint == uniqueCorrelationConstraint
	}

	return false
}
