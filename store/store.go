package store

import (
	"database/sql"
	"errors"
	"slices"

	"github.com/lib/pq"
)

func IsErrNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsErrDuplicate reports a unique constraint violation. With constraint
// names given, only violations of those count.
func IsErrDuplicate(err error, constraints ...string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}

	return len(constraints) == 0 || slices.Contains(constraints, pqErr.Constraint)
}
