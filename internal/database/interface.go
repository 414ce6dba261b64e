package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXDB is an interface that both pgxpool.Pool and pgx.Tx implement.
// Repositories accept it so they can run against the shared pool in
// production and inside a rolled-back transaction in tests.
type PGXDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner can start a database transaction. Implemented by pgxpool.Pool
// and by pgx.Tx (nested transactions become savepoints).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB combines query execution with the ability to open a transaction.
// The report service needs both: reads outside a transaction, and a
// transactional scope for close/reopen.
type DB interface {
	PGXDB
	TxBeginner
}

// Ensure types implement the interfaces at compile time.
var (
	_ PGXDB      = (*pgxpool.Pool)(nil)
	_ PGXDB      = (pgx.Tx)(nil)
	_ TxBeginner = (*pgxpool.Pool)(nil)
	_ DB         = (*pgxpool.Pool)(nil)
	_ DB         = (pgx.Tx)(nil)
)
