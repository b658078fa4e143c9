package executor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
)

// PgRunner runs statements on one pinned PostgreSQL connection.
type PgRunner struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn

	// set for a scratch database: the pool used to drop it on Close
	admin   *pgxpool.Pool
	scratch string

	version int
}

// NewPgRunner connects to PostgreSQL using a URI or key=value connection
// string.
func NewPgRunner(ctx context.Context, connString string) (*PgRunner, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, apperrors.NewConnectionError("postgres", "<dsn>",
			fmt.Sprintf("invalid connection string: %v", err))
	}
	return connectPg(ctx, poolConfig)
}

func pgTarget(cfg *pgxpool.Config) string {
	return net.JoinHostPort(cfg.ConnConfig.Host, strconv.Itoa(int(cfg.ConnConfig.Port))) + "/" + cfg.ConnConfig.Database
}

func connectPg(ctx context.Context, poolConfig *pgxpool.Config) (*PgRunner, error) {
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	poolConfig.MaxConns = 2
	target := pgTarget(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperrors.NewConnectionError("postgres", target,
			fmt.Sprintf("failed to create connection pool: %v", err))
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, apperrors.NewConnectionError("postgres", target, err.Error())
	}

	var versionStr string
	if err := conn.QueryRow(ctx, "SHOW server_version_num").Scan(&versionStr); err != nil {
		conn.Release()
		pool.Close()
		return nil, apperrors.NewConnectionError("postgres", target,
			fmt.Sprintf("failed to query server version: %v", err))
	}
	version, _ := strconv.Atoi(versionStr)
	logger.Debug("connected to %s (server_version_num %d)", target, version)

	return &PgRunner{pool: pool, conn: conn, version: version}, nil
}

// NewScratchPgRunner creates an empty database next to the one connString
// points to, and runs statements there. Close drops it again.
func NewScratchPgRunner(ctx context.Context, connString string) (*PgRunner, error) {
	admin, err := NewPgRunner(ctx, connString)
	if err != nil {
		return nil, err
	}

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		admin.Close()
		return nil, fmt.Errorf("failed to generate random suffix: %w", err)
	}
	name := fmt.Sprintf("sqlscript_%s_%s", time.Now().Format("20060102_150405"), hex.EncodeToString(randomBytes))

	if _, err := admin.conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		admin.Close()
		return nil, fmt.Errorf("failed to create scratch database: %w", err)
	}
	logger.Debug("created scratch database %s", name)

	cfg := admin.pool.Config()
	cfg.ConnConfig.Database = name
	r, err := connectPg(ctx, cfg)
	if err != nil {
		_ = dropDatabase(context.Background(), admin.conn, name)
		admin.Close()
		return nil, err
	}
	r.admin = admin.pool
	r.scratch = name
	// the admin connection goes back to its pool for the drop
	admin.conn.Release()
	return r, nil
}

func dropDatabase(ctx context.Context, conn *pgxpool.Conn, name string) error {
	_, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)")
	return err
}

// Exec runs query with the simple protocol, so a statement may itself hold
// several commands.
func (r *PgRunner) Exec(ctx context.Context, query string) (int64, error) {
	tag, err := r.conn.Exec(ctx, query, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ServerVersion returns server_version_num, e.g. 160002.
func (r *PgRunner) ServerVersion() int { return r.version }

// Database returns the database statements run in.
func (r *PgRunner) Database() string { return r.pool.Config().ConnConfig.Database }

// Close releases the connection, and drops a scratch database.
func (r *PgRunner) Close() error {
	if r.conn != nil {
		r.conn.Release()
		r.conn = nil
	}
	if r.pool != nil {
		r.pool.Close()
	}
	if r.admin == nil {
		return nil
	}
	defer r.admin.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := r.admin.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop scratch database %s: %w", r.scratch, err)
	}
	defer conn.Release()
	if err := dropDatabase(ctx, conn, r.scratch); err != nil {
		return fmt.Errorf("failed to drop scratch database %s: %w", r.scratch, err)
	}
	logger.Debug("dropped scratch database %s", r.scratch)
	return nil
}
