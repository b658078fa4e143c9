package report

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// Formatter is an interface for report formatters
type Formatter interface {
	// Statements writes the statements of a split script
	Statements(stmts []types.StatementInfo, w io.Writer) error

	// Tokens writes a token listing
	Tokens(toks []types.TokenInfo, w io.Writer) error

	// Summary writes the outcome of an executed script
	Summary(s *types.ExecSummary, w io.Writer) error

	// Name returns the name of this formatter
	Name() string
}

// FormatType represents supported report formats
type FormatType string

const (
	FormatAuto  FormatType = "auto"
	FormatTable FormatType = "table"
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
)

// GetFormatter returns a formatter for the specified format type. FormatAuto
// picks table output when out is a terminal and plain output otherwise.
func GetFormatter(format FormatType, out io.Writer) (Formatter, error) {
	switch format {
	case FormatAuto, "":
		if IsTerminal(out) {
			return NewTableReporter(), nil
		}
		return NewPlainReporter(), nil
	case FormatTable:
		return NewTableReporter(), nil
	case FormatPlain:
		return NewPlainReporter(), nil
	case FormatJSON:
		return NewJSONReporter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %v)", format, SupportedFormats())
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ValidFormat checks if a format string is valid
func ValidFormat(format string) bool {
	switch FormatType(format) {
	case FormatAuto, FormatTable, FormatPlain, FormatJSON:
		return true
	default:
		return false
	}
}

// SupportedFormats returns a list of supported format names
func SupportedFormats() []string {
	return []string{string(FormatAuto), string(FormatTable), string(FormatPlain), string(FormatJSON)}
}
