package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// JSONReporter writes indented JSON
type JSONReporter struct{}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

func (r *JSONReporter) Statements(stmts []types.StatementInfo, w io.Writer) error {
	if stmts == nil {
		stmts = []types.StatementInfo{}
	}
	return writeJSON(w, stmts)
}

func (r *JSONReporter) Tokens(toks []types.TokenInfo, w io.Writer) error {
	if toks == nil {
		toks = []types.TokenInfo{}
	}
	return writeJSON(w, toks)
}

func (r *JSONReporter) Summary(s *types.ExecSummary, w io.Writer) error {
	if s.Results == nil {
		cp := *s
		cp.Results = []types.ExecResult{}
		s = &cp
	}
	return writeJSON(w, s)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// Name returns the name of this reporter
func (r *JSONReporter) Name() string {
	return "json"
}
