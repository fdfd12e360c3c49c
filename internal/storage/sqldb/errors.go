package sqldb

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// wrapDriverError prefixes err with op and, when the driver reports one, its error code.
func wrapDriverError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (postgres %s): %w", op, pqErr.Code.Name(), err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return fmt.Errorf("%s (sqlite %s): %w", op, liteErr.Code.Error(), err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
