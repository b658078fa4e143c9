package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybertec-postgresql/sqlscript/internal/delimiter"
	"github.com/cybertec-postgresql/sqlscript/internal/dialect"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
	"github.com/cybertec-postgresql/sqlscript/internal/script"
	"github.com/cybertec-postgresql/sqlscript/internal/testutil"
)

const pgScript = `create table account (id int primary key, balance numeric);
insert into account values (1, 100), (2, 50);

create function transfer(src int, dst int, amount numeric) returns void
language plpgsql as $$
begin
  update account set balance = balance - amount where id = src;
  update account set balance = balance + amount where id = dst;
end;
$$;

create procedure reset_all() language sql
begin atomic
  update account set balance = 0;
  delete from account where id > 2;
end;

select transfer(1, 2, 25);
`

func TestPgRunnerScript(t *testing.T) {
	dsn := testutil.PostgresDSN(t)
	ctx := context.Background()

	r, err := NewPgRunner(ctx, dsn)
	require.NoError(t, err)
	defer r.Close()
	assert.GreaterOrEqual(t, r.ServerVersion(), 160000)

	p := script.Parse(pgScript, dialect.Postgres, delimiter.Standard, delimiter.None,
		script.WithLogger(logger.Discard()))
	require.Equal(t, 5, p.Count())

	summary, err := New(r, Options{Logger: logger.Discard()}).Run(ctx, p)
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	assert.Equal(t, 5, summary.Passed)
	assert.Equal(t, int64(2), summary.Results[1].RowsAffected)

	var balance string
	require.NoError(t, r.conn.QueryRow(ctx, "select balance::text from account where id = 2").Scan(&balance))
	assert.Equal(t, "75", balance)
}

func TestPgRunnerErrorCarriesSQLState(t *testing.T) {
	dsn := testutil.PostgresDSN(t)
	ctx := context.Background()

	r, err := NewScratchPgRunner(ctx, dsn)
	require.NoError(t, err)
	scratch := r.Database()
	assert.Contains(t, scratch, "sqlscript_")

	p := script.Parse("select 1;\nselect * from missing_table;\n", dialect.Postgres,
		delimiter.Standard, delimiter.None, script.WithLogger(logger.Discard()))
	summary, err := New(r, Options{Logger: logger.Discard()}).Run(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[1].Error, "[42P01]")

	var pgErr *pgconn.PgError
	require.True(t, errors.As(summary.Err(), &pgErr))
	assert.Equal(t, "42P01", pgErr.Code)

	require.NoError(t, r.Close())

	check, err := NewPgRunner(ctx, dsn)
	require.NoError(t, err)
	defer check.Close()
	var exists bool
	require.NoError(t, check.conn.QueryRow(ctx,
		"select exists(select 1 from pg_database where datname = $1)", scratch).Scan(&exists))
	assert.False(t, exists, "scratch database is dropped on Close")
}
