// Package txindex maintains a SQLite index of applied transactions so
// history can be queried by hash or by account without replaying slots.
package txindex

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dicehouse/diced/internal/core/ledger"
	"github.com/dicehouse/diced/internal/core/tx"
)

var ErrNotFound = errors.New("txindex: transaction not found")

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	hash            TEXT PRIMARY KEY,
	account         TEXT NOT NULL,
	tx_type         TEXT NOT NULL,
	ledger_sequence INTEGER NOT NULL,
	result          TEXT NOT NULL,
	fee             INTEGER NOT NULL,
	raw             BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_account
	ON transactions (account, ledger_sequence DESC);
`

// Record is one indexed transaction.
type Record struct {
	Hash           string
	Account        string
	Type           string
	LedgerSequence uint64
	Result         string
	Fee            uint64
	Raw            []byte
}

// Index wraps the SQLite database holding transaction history.
type Index struct {
	db *sql.DB
}

// Open opens (or creates) the index at path. Use ":memory:" for an
// ephemeral index.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("txindex: open %s: %w", path, err)
	}
	// modernc sqlite serializes access through one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("txindex: create schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}

// IndexSlot records every transaction of a closed slot, atomically.
func (i *Index) IndexSlot(ctx context.Context, l *ledger.Ledger) error {
	txs := l.Transactions()
	if len(txs) == 0 {
		return nil
	}

	dbTx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO transactions
			(hash, account, tx_type, ledger_sequence, result, fee, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, applied := range txs {
		raw, err := tx.ToJSON(applied.Transaction)
		if err != nil {
			return err
		}

		common := applied.Transaction.GetCommon()
		_, err = stmt.ExecContext(ctx,
			hex.EncodeToString(applied.Hash[:]),
			common.Account,
			applied.Transaction.TxType().String(),
			l.Sequence(),
			applied.Result.String(),
			applied.Fee,
			raw,
		)
		if err != nil {
			return fmt.Errorf("txindex: index slot %d: %w", l.Sequence(), err)
		}
	}

	return dbTx.Commit()
}

// ByHash returns the indexed transaction with the given hash.
func (i *Index) ByHash(ctx context.Context, hash [32]byte) (*Record, error) {
	row := i.db.QueryRowContext(ctx, `
		SELECT hash, account, tx_type, ledger_sequence, result, fee, raw
		FROM transactions WHERE hash = ?`,
		hex.EncodeToString(hash[:]))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ByAccount returns up to limit transactions submitted by the account,
// newest slot first.
func (i *Index) ByAccount(ctx context.Context, account string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT hash, account, tx_type, ledger_sequence, result, fee, raw
		FROM transactions WHERE account = ?
		ORDER BY ledger_sequence DESC LIMIT ?`,
		account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Count returns the total number of indexed transactions.
func (i *Index) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	rec := &Record{}
	err := row.Scan(&rec.Hash, &rec.Account, &rec.Type, &rec.LedgerSequence, &rec.Result, &rec.Fee, &rec.Raw)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
