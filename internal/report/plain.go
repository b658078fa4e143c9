package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// PlainReporter writes line oriented text meant for pipes.
//
// Statements are written as SQL with a header comment, so the output can be
// fed back to a client.
type PlainReporter struct{}

// NewPlainReporter creates a new plain reporter
func NewPlainReporter() *PlainReporter {
	return &PlainReporter{}
}

func (r *PlainReporter) Statements(stmts []types.StatementInfo, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range stmts {
		fmt.Fprintf(bw, "-- statement %d, line %d, bytes %d-%d\n", s.Index+1, s.Line, s.Start, s.End)
		if s.LexicalError != "" {
			fmt.Fprintf(bw, "-- error: %s\n", s.LexicalError)
		}
		bw.WriteString(s.Text)
		if s.DelimiterOwnLine {
			bw.WriteString("\n")
		}
		bw.WriteString(s.Delimiter)
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func (r *PlainReporter) Tokens(toks []types.TokenInfo, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, t := range toks {
		fmt.Fprintf(bw, "%d\t%d\t%d\t%s\t%s\n", t.Line, t.Pos, t.End, t.Type, strconv.Quote(t.Text))
	}
	return bw.Flush()
}

func (r *PlainReporter) Summary(s *types.ExecSummary, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, res := range s.Results {
		if res.Status == types.StatusOK {
			fmt.Fprintf(bw, "%s\tstatement %d (line %d)\t%d rows\t%s\n",
				res.Status, res.Index+1, res.Line, res.RowsAffected, res.Duration)
			continue
		}
		fmt.Fprintf(bw, "%s\tstatement %d (line %d)\t%s\n", res.Status, res.Index+1, res.Line, res.Error)
	}
	fmt.Fprintln(bw, summaryLine(s))
	return bw.Flush()
}

// Name returns the name of this reporter
func (r *PlainReporter) Name() string {
	return "plain"
}
