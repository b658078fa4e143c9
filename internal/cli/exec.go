package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/internal/executor"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// Exec runs the script at path against the configured database and writes
// the summary. It returns the process exit code.
func Exec(ctx context.Context, c *Config, path string, scratch bool, w io.Writer) (int, error) {
	if c.DSN == "" {
		return 2, apperrors.NewConfigError("dsn", "no connection string: use --dsn or SQLSCRIPT_DSN", nil)
	}
	p, err := OpenParser(c, path)
	if err != nil {
		return 2, err
	}
	f, err := formatter(c, w)
	if err != nil {
		return 2, err
	}

	var runner executor.Runner
	if scratch {
		if d := strings.ToLower(c.Driver); d != "" && d != "postgres" {
			return 2, fmt.Errorf("--scratch needs the postgres driver, not %s", c.Driver)
		}
		runner, err = executor.NewScratchPgRunner(ctx, c.DSN)
	} else {
		runner, err = executor.Open(ctx, c.Driver, c.DSN)
	}
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Warn("%v", err)
		}
	}()

	ex := executor.New(runner, executor.Options{
		Timeout:         c.Timeout,
		ContinueOnError: c.ContinueOnError,
		OnResult: func(res types.ExecResult) {
			logger.Debug("statement %d: %s", res.Index+1, res.Status)
		},
	})
	summary, runErr := ex.Run(ctx, p)
	if err := f.Summary(&summary.ExecSummary, w); err != nil {
		return 1, err
	}
	if runErr != nil {
		return 1, runErr
	}
	return summary.ExitCode(), nil
}
