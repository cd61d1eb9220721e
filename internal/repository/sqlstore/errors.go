package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/db"
)

// storageErr tags a driver failure as ErrStorage while keeping the cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(common.ErrStorage, err))
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}

func classified(err error) bool {
	for _, k := range []error{
		common.ErrNotFound, common.ErrForbidden, common.ErrValidation,
		common.ErrConflict, common.ErrStorage,
	} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// inTx runs fn in a transaction; begin/commit failures become ErrStorage.
func inTx(ctx context.Context, conn *sql.DB, op string, fn func(tx db.DBTX) error) error {
	err := db.WithTx(ctx, conn, fn)
	if err == nil || classified(err) {
		return err
	}
	return storageErr(op, err)
}
