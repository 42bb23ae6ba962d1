package entity

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Snowflake = uint64

func queryRowFuncNoOp(row pgx.QueryFuncRow) error { return nil }

// query runs sql scanning at most one row into scans; zero rows leave
// scans untouched.
func query(ctx context.Context, tx pgx.Tx, sql string, args []interface{}, scans []interface{}) error {
	_, err := tx.QueryFunc(ctx, sql, args, scans, queryRowFuncNoOp)
	return err
}

// exec runs a statement and reports whether any row was affected.
func exec(ctx context.Context, tx pgx.Tx, sql string, args ...interface{}) (bool, error) {
	ct, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
