package dbpkg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTx runs fn inside a database transaction started on conn and commits
// it when fn succeeds. When conn is nil, q is assumed to already be a
// transaction and fn runs on it directly.
func WithTx(ctx context.Context, conn *sql.DB, q SQLInterface, opts *sql.TxOptions, fn func(SQLInterface) error) error {
	if conn == nil {
		return fn(q)
	}

	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}

		return err
	}

	return tx.Commit()
}
