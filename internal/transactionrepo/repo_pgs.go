package transactionrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/pkg/dbpkg"
	"github.com/go-petr/receipt-ledger/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates draft transaction repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
	now  func() time.Time
}

// NewTxRepoPGS returns draft RepoPGS bound to an already started transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db:  db,
		now: time.Now,
	}
}

// NewRepoPGS returns draft RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
		now:  time.Now,
	}
}

const columns = `
	id, client_id, receipt_id, debit_account, credit_account, amount, description, date,
	status, ledger_transaction_id, void_reason, voided_by, created_at, updated_at`

const createQuery = `
INSERT INTO
	transactions (id, client_id, receipt_id, debit_account, credit_account, amount, description, date, created_at, updated_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING` + columns

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDraft(row scanner) (domain.DraftTransaction, error) {
	var d domain.DraftTransaction

	err := row.Scan(
		&d.ID,
		&d.ClientID,
		&d.ReceiptID,
		&d.DebitAccount,
		&d.CreditAccount,
		&d.Amount,
		&d.Description,
		&d.Date,
		&d.Status,
		&d.LedgerTransactionID,
		&d.VoidReason,
		&d.VoidedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)

	d.Date = d.Date.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()

	return d, err
}

// Create creates the draft and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateDraftParams) (domain.DraftTransaction, error) {
	drafts, err := r.CreateMany(ctx, []domain.CreateDraftParams{arg})
	if err != nil {
		return domain.DraftTransaction{}, err
	}

	return drafts[0], nil
}

// CreateMany creates all drafts within a single database transaction.
func (r *RepoPGS) CreateMany(ctx context.Context, args []domain.CreateDraftParams) ([]domain.DraftTransaction, error) {
	l := zerolog.Ctx(ctx)

	now := r.now().UTC()
	drafts := make([]domain.DraftTransaction, 0, len(args))

	err := dbpkg.WithTx(ctx, r.conn, r.db, nil, func(q dbpkg.SQLInterface) error {
		for _, arg := range args {
			row := q.QueryRowContext(ctx, createQuery,
				uuid.NewString(),
				arg.ClientID,
				arg.ReceiptID,
				arg.DebitAccount,
				arg.CreditAccount,
				arg.Amount,
				arg.Description,
				arg.Date,
				now,
			)

			d, err := scanDraft(row)
			if err != nil {
				return err
			}

			drafts = append(drafts, d)
		}

		return nil
	})
	if err != nil {
		l.Error().Err(err).Msgf("CreateMany(ctx, %+v)", args)

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "transactions_amount_check":
				return nil, domain.ErrInvalidAmount
			}
		}

		return nil, errorspkg.ErrInternal
	}

	return drafts, nil
}

const getQuery = `
SELECT` + columns + `
FROM transactions
WHERE id = $1
`

// Get returns the draft with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.DraftTransaction, error) {
	d, err := scanDraft(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DraftTransaction{}, domain.ErrTransactionNotFound
		}

		zerolog.Ctx(ctx).Error().Err(err).Send()

		return domain.DraftTransaction{}, errorspkg.ErrInternal
	}

	return d, nil
}

const listQuery = `
SELECT` + columns + `
FROM transactions
WHERE
	client_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at, id
LIMIT $3 OFFSET $4
`

// List returns a page of the client's drafts.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.DraftTransaction, error) {
	l := zerolog.Ctx(ctx)

	var limit interface{}
	if arg.Limit > 0 {
		limit = arg.Limit
	}

	rows, err := r.db.QueryContext(ctx, listQuery, arg.ClientID, string(arg.Status), limit, arg.Offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.DraftTransaction{}

	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, d)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const markPostedQuery = `
UPDATE transactions
SET status = 'posted', ledger_transaction_id = $2, updated_at = $3
WHERE id = $1 AND status = 'draft'
RETURNING` + columns

// MarkPosted moves a draft to posted if it is still a draft.
func (r *RepoPGS) MarkPosted(ctx context.Context, id, ledgerTransactionID string) (domain.DraftTransaction, error) {
	row := r.db.QueryRowContext(ctx, markPostedQuery, id, ledgerTransactionID, r.now().UTC())

	return r.transitioned(ctx, id, row)
}

const markVoidedQuery = `
UPDATE transactions
SET status = 'voided', void_reason = $2, voided_by = $3, updated_at = $4
WHERE id = $1 AND status = 'posted'
RETURNING` + columns

// MarkVoided moves a posted transaction to voided if it is still posted.
func (r *RepoPGS) MarkVoided(ctx context.Context, id, reason, voidedBy string) (domain.DraftTransaction, error) {
	row := r.db.QueryRowContext(ctx, markVoidedQuery, id, reason, voidedBy, r.now().UTC())

	return r.transitioned(ctx, id, row)
}

const deleteQuery = `
DELETE FROM transactions
WHERE id = $1 AND status = 'draft'
`

// Delete removes a draft if it is still a draft.
func (r *RepoPGS) Delete(ctx context.Context, id string) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}

		return domain.ErrStateConflict
	}

	return nil
}

// transitioned scans the result of a compare-and-set update. No row means
// the draft is missing or in another state.
func (r *RepoPGS) transitioned(ctx context.Context, id string, row *sql.Row) (domain.DraftTransaction, error) {
	d, err := scanDraft(row)
	if err == nil {
		return d, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return domain.DraftTransaction{}, errorspkg.ErrInternal
	}

	if _, err := r.Get(ctx, id); err != nil {
		return domain.DraftTransaction{}, err
	}

	return domain.DraftTransaction{}, domain.ErrStateConflict
}
