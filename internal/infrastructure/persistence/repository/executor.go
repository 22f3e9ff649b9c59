package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jmcandrew/auction-backoffice/internal/infrastructure/persistence/sqlite"
)

// executor covers both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the context transaction when present, otherwise the
// plain connection.
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// Monetary columns are stored as TEXT so decimal values round-trip
// without floating-point drift.

func decimalToDB(d decimal.Decimal) string {
	return d.String()
}

func decimalFromDB(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
