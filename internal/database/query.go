package database

import (
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQL builds statements with PostgreSQL $n placeholders.
var SQL = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// NormalizePage clamps page/limit to sane values and returns the row offset.
func NormalizePage(page, limit int) (int, int, uint64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, uint64((page - 1) * limit)
}

// Rebind converts ? placeholders in raw SQL to PostgreSQL $n placeholders.
func Rebind(query string) (string, error) {
	return sq.Dollar.ReplacePlaceholders(query)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
