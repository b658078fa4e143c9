package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
)

// SQLRunner runs statements on one connection of a database/sql pool.
type SQLRunner struct {
	db     *sql.DB
	conn   *sql.Conn
	ownsDB bool
}

// NewSQLRunner pins a connection of db. Close releases the connection but
// leaves db open.
func NewSQLRunner(ctx context.Context, db *sql.DB) (*SQLRunner, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, apperrors.NewConnectionError("sql", "database", err.Error())
	}
	return &SQLRunner{db: db, conn: conn}, nil
}

// OpenMySQL connects to MySQL or MariaDB with a go-sql-driver DSN such as
// user:pass@tcp(host:3306)/db.
func OpenMySQL(ctx context.Context, dsn string) (*SQLRunner, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, apperrors.NewConnectionError("mysql", "<dsn>",
			fmt.Sprintf("invalid DSN: %v", err))
	}
	target := cfg.Addr + "/" + cfg.DBName
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["program_name"] = applicationName
	// the splitter hands over one statement at a time, but a routine body
	// may still hold several
	cfg.MultiStatements = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, apperrors.NewConnectionError("mysql", target, err.Error())
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewConnectionError("mysql", target, err.Error())
	}
	r, err := NewSQLRunner(ctx, db)
	if err != nil {
		db.Close()
		return nil, apperrors.NewConnectionError("mysql", target, err.Error())
	}
	r.ownsDB = true
	logger.Debug("connected to %s (mysql)", target)
	return r, nil
}

// Exec runs query on the pinned connection.
func (r *SQLRunner) Exec(ctx context.Context, query string) (int64, error) {
	res, err := r.conn.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// not every driver reports it
		return 0, nil
	}
	return n, nil
}

// Close releases the connection, and the pool when OpenMySQL created it.
func (r *SQLRunner) Close() error {
	var err error
	if r.conn != nil {
		err = r.conn.Close()
		r.conn = nil
	}
	if r.ownsDB {
		if cerr := r.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
