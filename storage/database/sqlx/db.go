package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Wrap adapts an open *sql.DB for the repositories.
func Wrap(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

// pg error codes
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a write-time unique-constraint
// violation; the authoritative duplicate signal for concurrent rows.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}
