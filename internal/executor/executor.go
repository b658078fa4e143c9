package executor

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
	"github.com/cybertec-postgresql/sqlscript/internal/script"
	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// Options tune an Executor.
type Options struct {
	Timeout         time.Duration // per statement, 0 = none
	ContinueOnError bool
	Logger          *logger.Logger
	// OnResult, when set, is called after every statement
	OnResult func(types.ExecResult)
}

// Executor runs the statements of a script one by one.
type Executor struct {
	runner Runner
	opts   Options
	log    *logger.Logger
}

// New creates an executor over runner.
func New(runner Runner, opts Options) *Executor {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Executor{runner: runner, opts: opts, log: log}
}

// Summary summarizes a run.
type Summary struct {
	types.ExecSummary
	// Errors holds one error per failed or skipped statement.
	Errors []error
}

// Total returns the number of statements that were attempted or skipped.
func (s *Summary) Total() int { return s.Passed + s.Failed + s.Skipped }

// AllPassed returns true if every statement succeeded.
func (s *Summary) AllPassed() bool { return s.Failed == 0 && s.Skipped == 0 }

// ExitCode returns the process exit code for the run.
func (s *Summary) ExitCode() int {
	if s.AllPassed() && !s.Stopped {
		return 0
	}
	return 1
}

// Err joins the statement errors, or returns nil.
func (s *Summary) Err() error { return errors.Join(s.Errors...) }

/*
 * Run pulls statements from p and executes them in order.
 *
 * Statements with an unterminated literal or comment are never sent to the
 * database: they are recorded as skipped with a LexicalError. A failing
 * statement stops the run unless ContinueOnError is set; a skipped one
 * counts as a failure for that purpose. The returned error is reserved for
 * problems reading the script and for context cancellation; statement
 * failures are reported in the Summary.
 */
func (e *Executor) Run(ctx context.Context, p *script.Parser) (*Summary, error) {
	summary := &Summary{}
	started := time.Now()
	defer func() { summary.Duration = time.Since(started) }()

	for cmd, err := range p.All() {
		if err != nil {
			summary.Stopped = true
			return summary, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			summary.Stopped = true
			return summary, ctxErr
		}

		res, stmtErr := e.runOne(ctx, p, cmd)
		e.record(summary, res, stmtErr)

		if stmtErr != nil && !e.opts.ContinueOnError {
			summary.Stopped = true
			break
		}
	}
	return summary, nil
}

func (e *Executor) runOne(ctx context.Context, p *script.Parser, cmd *script.Command) (types.ExecResult, error) {
	res := types.ExecResult{Index: cmd.Index, Line: cmd.Line}

	if cmd.LexicalError {
		err := apperrors.NewLexicalError(p.SourceName(), cmd.Index, cmd.ErrorPos, cmd.Line, cmd.ErrorMsg)
		e.log.Warn("skipping %v", err)
		res.Status = types.StatusSkipped
		res.Error = err.Error()
		return res, err
	}

	text := p.TextOf(cmd, true)
	e.log.Debug("statement %d (line %d): %s", cmd.Index+1, cmd.Line, text)

	stmtCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		stmtCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := e.runner.Exec(stmtCtx, text)
	res.Duration = time.Since(start)
	if err != nil {
		execErr := apperrors.NewExecutionError(cmd.Index, cmd.Line, err)
		e.log.Error("%v", execErr)
		res.Status = types.StatusFailed
		res.Error = execErr.Error()
		return res, execErr
	}
	res.Status = types.StatusOK
	res.RowsAffected = n
	return res, nil
}

func (e *Executor) record(s *Summary, res types.ExecResult, err error) {
	switch res.Status {
	case types.StatusOK:
		s.Passed++
	case types.StatusFailed:
		s.Failed++
	case types.StatusSkipped:
		s.Skipped++
	}
	if err != nil {
		s.Errors = append(s.Errors, err)
	}
	s.Results = append(s.Results, res)
	if e.opts.OnResult != nil {
		e.opts.OnResult(res)
	}
}
