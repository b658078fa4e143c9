package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cybertec-postgresql/sqlscript/internal/config"
	"github.com/cybertec-postgresql/sqlscript/internal/delimiter"
	"github.com/cybertec-postgresql/sqlscript/internal/dialect"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
	"github.com/cybertec-postgresql/sqlscript/internal/report"
	"github.com/cybertec-postgresql/sqlscript/internal/script"
)

// Stdin is read when the script path is "-" or empty.
var Stdin io.Reader = os.Stdin

// OpenParser configures a parser from c and points it at path.
func OpenParser(c *Config, path string) (*script.Parser, error) {
	p, err := NewParser(c)
	if err != nil {
		return nil, err
	}
	if path == "" || path == "-" {
		b, err := readStdin()
		if err != nil {
			return nil, err
		}
		p.SetScript(string(b))
		return p, nil
	}
	if err := p.SetFile(path, c.Encoding); err != nil {
		return nil, err
	}
	return p, nil
}

func readStdin() ([]byte, error) {
	b, err := io.ReadAll(Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read script from stdin: %w", err)
	}
	return b, nil
}

// NewParser configures a parser from c without a script.
func NewParser(c *Config) (*script.Parser, error) {
	d, err := config.ResolveDialect(c.Dialect)
	if err != nil {
		return nil, err
	}
	spec := dialect.Lookup(d)

	def := spec.DefaultDelimiter
	if c.Delimiter != "" {
		def = delimiter.Parse(c.Delimiter)
	} else if c.EmptyLineIsDelimiter {
		def = delimiter.None
	}
	alt := spec.DefaultAlternate
	if c.AlternateDelimiter != "" {
		alt = delimiter.Parse(c.AlternateDelimiter)
	}

	opts := []script.Option{
		script.WithDelimiters(def, alt),
		script.WithEmptyLineIsDelimiter(c.EmptyLineIsDelimiter),
		script.WithReturnLeadingWhitespace(c.LeadingWhitespace),
		script.WithMaxInMemorySize(c.MaxInMemorySize),
		script.WithLogger(logger.Default()),
	}
	if c.CheckEscapedQuotes != nil {
		opts = append(opts, script.WithCheckEscapedQuotes(*c.CheckEscapedQuotes))
	}
	if c.DynamicDelimiter != nil {
		opts = append(opts, script.WithDynamicDelimiter(*c.DynamicDelimiter))
	}
	return script.NewParser(d, opts...), nil
}

func formatter(c *Config, w io.Writer) (report.Formatter, error) {
	return report.GetFormatter(report.FormatType(c.Output), w)
}
