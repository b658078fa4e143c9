package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// maxCell bounds statement text shown in a table cell.
const maxCell = 60

// TableReporter renders ASCII tables
type TableReporter struct{}

// NewTableReporter creates a new table reporter
func NewTableReporter() *TableReporter {
	return &TableReporter{}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	return table
}

func (r *TableReporter) Statements(stmts []types.StatementInfo, w io.Writer) error {
	table := newTable(w, "#", "Line", "Span", "Delimiter", "Statement")
	for _, s := range stmts {
		text := oneLine(s.Text, maxCell)
		if s.LexicalError != "" {
			text = "! " + s.LexicalError + ": " + text
		}
		table.Append([]string{
			strconv.Itoa(s.Index + 1),
			strconv.Itoa(s.Line),
			fmt.Sprintf("%d-%d", s.Start, s.End),
			s.Delimiter,
			text,
		})
	}
	table.SetFooter([]string{"", "", "", "Total", strconv.Itoa(len(stmts))})
	table.Render()
	return nil
}

func (r *TableReporter) Tokens(toks []types.TokenInfo, w io.Writer) error {
	table := newTable(w, "Line", "Span", "Type", "Text")
	for _, t := range toks {
		table.Append([]string{
			strconv.Itoa(t.Line),
			fmt.Sprintf("%d-%d", t.Pos, t.End),
			t.Type,
			strconv.Quote(oneLine(t.Text, maxCell)),
		})
	}
	table.Render()
	return nil
}

func (r *TableReporter) Summary(s *types.ExecSummary, w io.Writer) error {
	table := newTable(w, "#", "Line", "Status", "Rows", "Time", "Error")
	for _, res := range s.Results {
		table.Append([]string{
			strconv.Itoa(res.Index + 1),
			strconv.Itoa(res.Line),
			string(res.Status),
			strconv.FormatInt(res.RowsAffected, 10),
			res.Duration.String(),
			oneLine(res.Error, maxCell),
		})
	}
	table.Render()
	_, err := fmt.Fprintln(w, summaryLine(s))
	return err
}

// Name returns the name of this reporter
func (r *TableReporter) Name() string {
	return "table"
}

// oneLine collapses whitespace runs and shortens s to at most n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}

func summaryLine(s *types.ExecSummary) string {
	line := fmt.Sprintf("%d passed, %d failed, %d skipped in %s", s.Passed, s.Failed, s.Skipped, s.Duration)
	if s.Stopped {
		line += " (stopped)"
	}
	return line
}
