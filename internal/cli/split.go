package cli

import (
	"fmt"
	"io"
	"strconv"

	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/internal/lexer"
	"github.com/cybertec-postgresql/sqlscript/internal/script"
	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

func statementInfo(p *script.Parser, cmd *script.Command) types.StatementInfo {
	info := types.StatementInfo{
		Index:            cmd.Index,
		Line:             cmd.Line,
		Start:            cmd.Start,
		End:              cmd.End,
		Delimiter:        cmd.Delimiter.Text,
		DelimiterOwnLine: cmd.Delimiter.SingleLine || cmd.Delimiter.IsWord(),
		Text:             p.TextOf(cmd, true),
	}
	if cmd.LexicalError {
		info.LexicalError = cmd.ErrorMsg
	}
	return info
}

// Split writes every statement of the script at path. With strict set a
// statement with a lexical error fails the command after the listing.
func Split(c *Config, path string, w io.Writer, strict bool) error {
	p, err := OpenParser(c, path)
	if err != nil {
		return err
	}
	f, err := formatter(c, w)
	if err != nil {
		return err
	}

	var stmts []types.StatementInfo
	var firstErr error
	for cmd, err := range p.All() {
		if err != nil {
			return err
		}
		stmts = append(stmts, statementInfo(p, cmd))
		if cmd.LexicalError && firstErr == nil {
			firstErr = apperrors.NewLexicalError(p.SourceName(), cmd.Index, cmd.ErrorPos, cmd.Line, cmd.ErrorMsg)
		}
	}
	if err := f.Statements(stmts, w); err != nil {
		return err
	}
	if strict {
		return firstErr
	}
	return nil
}

// Count writes the number of statements.
func Count(c *Config, path string, w io.Writer) error {
	p, err := OpenParser(c, path)
	if err != nil {
		return err
	}
	n := p.Count()
	if n < 0 {
		// streamed, or failed: one pass to count or to surface the error
		for _, err := range p.All() {
			if err != nil {
				return err
			}
		}
		n = p.Count()
	}
	_, err = fmt.Fprintln(w, n)
	return err
}

// ParseAtArgs reads the <script> <offset> arguments of the at command.
func ParseAtArgs(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, apperrors.NewConfigError("args", "usage: sqlscript at <script.sql | -> <offset>", nil)
	}
	offset, err := strconv.Atoi(args[1])
	if err != nil || offset < 0 {
		return "", 0, apperrors.NewConfigError("offset", fmt.Sprintf("invalid offset %q", args[1]), err)
	}
	return args[0], offset, nil
}

// At writes the statement that owns byte offset.
func At(c *Config, path string, offset int, w io.Writer) error {
	p, err := OpenParser(c, path)
	if err != nil {
		return err
	}
	f, err := formatter(c, w)
	if err != nil {
		return err
	}
	i := p.IndexAt(offset)
	if err := p.Err(); err != nil {
		return err
	}
	cmd, ok := p.Command(i)
	if !ok {
		return apperrors.ErrNotFound
	}
	return f.Statements([]types.StatementInfo{statementInfo(p, cmd)}, w)
}

// Tokens writes the token stream of the script. Whitespace tokens are left
// out unless all is set.
func Tokens(c *Config, path string, all bool, w io.Writer) error {
	p, err := NewParser(c)
	if err != nil {
		return err
	}
	f, err := formatter(c, w)
	if err != nil {
		return err
	}

	var sc *lexer.Scanner
	if path == "" || path == "-" {
		b, err := readStdin()
		if err != nil {
			return err
		}
		sc = lexer.NewScanner(string(b), p.Rules())
	} else {
		src, err := script.NewFileSource(path, c.Encoding)
		if err != nil {
			return err
		}
		rc, err := src.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		sc = lexer.NewReaderScanner(rc, p.Rules())
	}

	var toks []types.TokenInfo
	for {
		line := sc.Line()
		tok := sc.Scan()
		if tok.Type == lexer.EOF {
			break
		}
		if tok.IsWhitespace() && !all {
			sc.Release(tok.End)
			continue
		}
		toks = append(toks, types.TokenInfo{
			Type: tok.Type.String(),
			Text: tok.Text,
			Pos:  tok.Pos,
			End:  tok.End,
			Line: line,
		})
		sc.Release(tok.End)
	}
	if err := sc.Err(); err != nil {
		return apperrors.NewConfigError(path, "cannot read script", err)
	}
	return f.Tokens(toks, w)
}
