// Package executor runs the statements of a split script against a database.
package executor

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
)

const applicationName = "sqlscript"

// Runner executes one statement at a time on a single session, so that
// session state such as search_path or temporary tables carries over from
// one statement to the next.
type Runner interface {
	Exec(ctx context.Context, query string) (rowsAffected int64, err error)
	Close() error
}

// Open connects a runner for driver ("postgres" or "mysql").
func Open(ctx context.Context, driver, dsn string) (Runner, error) {
	switch strings.ToLower(driver) {
	case "", "postgres", "postgresql", "pgx":
		return NewPgRunner(ctx, dsn)
	case "mysql", "mariadb":
		return OpenMySQL(ctx, dsn)
	default:
		return nil, apperrors.NewConfigError("driver", fmt.Sprintf("unsupported driver %q", driver), nil)
	}
}
