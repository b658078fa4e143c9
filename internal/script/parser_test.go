package script

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybertec-postgresql/sqlscript/internal/delimiter"
	"github.com/cybertec-postgresql/sqlscript/internal/dialect"
	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/internal/lexer"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
)

func quiet() Option { return WithLogger(logger.Discard()) }

func allTexts(t *testing.T, p *Parser) []string {
	t.Helper()
	var out []string
	for cmd, err := range p.All() {
		require.NoError(t, err)
		out = append(out, p.TextOf(cmd, true))
	}
	return out
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRoundTrip(t *testing.T) {
	scripts := []struct {
		d   dialect.Dialect
		src string
	}{
		{dialect.Standard, "select 1;\n\n-- c\nselect 'a;b' from t ;\n  select 3"},
		{dialect.Oracle, "begin null; end;\n/\nselect 1 from dual;\nprompt done\n"},
		{dialect.Postgres, "create function f() returns int as $$ select 1; $$ language sql;\n\\set x 1\nselect 2;"},
		{dialect.SQLServer, "select 1;\nselect 2\n"},
	}
	for _, sc := range scripts {
		t.Run(sc.d.String(), func(t *testing.T) {
			p := NewParser(sc.d, quiet())
			p.SetScript(sc.src)
			cmds, err := p.Commands()
			require.NoError(t, err)
			var b strings.Builder
			prev := 0
			for _, c := range cmds {
				b.WriteString(sc.src[prev:c.DelimiterEnd])
				prev = c.DelimiterEnd
			}
			rest := sc.src[prev:]
			assert.Equal(t, sc.src, b.String()+rest)
			assert.Empty(t, strings.TrimSpace(rest))
		})
	}
}

func TestOracleProcedureIsOneStatement(t *testing.T) {
	src := "CREATE OR REPLACE PROCEDURE p IS\nBEGIN\n  NULL;\nEND;\n/\n"
	p := Parse(src, dialect.Oracle, delimiter.Standard, delimiter.Oracle, quiet())
	require.Equal(t, 1, p.Count())
	text, ok := p.CommandText(0, true)
	require.True(t, ok)
	assert.Equal(t, "CREATE OR REPLACE PROCEDURE p IS\nBEGIN\n  NULL;\nEND;", text)
	d, ok := p.DelimiterUsed(0)
	require.True(t, ok)
	assert.Equal(t, delimiter.Oracle, d)
}

func TestQuoteHandling(t *testing.T) {
	p := Parse("select 'it''s';", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	require.Equal(t, 1, p.Count())
	var lit lexer.Token
	for _, tok := range lexer.Tokenize("select 'it''s';", lexer.StandardRules()) {
		if tok.Type == lexer.String {
			lit = tok
		}
	}
	assert.Equal(t, "'it''s'", lit.Text)
}

func TestAlternateLookahead(t *testing.T) {
	p := Parse("select 1;\nselect 2\n/", dialect.Standard, delimiter.Standard, delimiter.Oracle, quiet())
	require.Equal(t, 1, p.Count())
	text, _ := p.CommandText(0, true)
	assert.Equal(t, "select 1;\nselect 2", text)
	d, _ := p.DelimiterUsed(0)
	assert.Equal(t, delimiter.Oracle, d)

	p = Parse("select 1;\nselect 2;", dialect.Standard, delimiter.Standard, delimiter.Oracle, quiet())
	require.Equal(t, 2, p.Count())
	d, _ = p.DelimiterUsed(1)
	assert.Equal(t, delimiter.Standard, d)

	// SQL Server scripts ending in GO switch to GO
	p = Parse("select 1\nGO\nselect 2\ngo\n", dialect.SQLServer, delimiter.Standard, delimiter.MSSQL, quiet())
	assert.Equal(t, []string{"select 1", "select 2"}, allTexts(t, p))
}

func TestEndsWithDelimiter(t *testing.T) {
	assert.True(t, endsWithDelimiter("x\n/  \n", delimiter.Oracle))
	assert.False(t, endsWithDelimiter("a / ", delimiter.Oracle))
	assert.True(t, endsWithDelimiter("x\ngo", delimiter.MSSQL))
	assert.False(t, endsWithDelimiter("x\nlogo", delimiter.MSSQL))
	assert.True(t, endsWithDelimiter("x $$", delimiter.Delimiter{Text: "$$"}))
	assert.False(t, endsWithDelimiter("x", delimiter.None))
}

func TestIndexAt(t *testing.T) {
	src := "select 1;\nselect 2;"
	p := Parse(src, dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	for off := 0; off <= 9; off++ {
		assert.Equal(t, 0, p.IndexAt(off), "offset %d", off)
	}
	for off := 10; off < len(src); off++ {
		assert.Equal(t, 1, p.IndexAt(off), "offset %d", off)
	}
	assert.Equal(t, 1, p.IndexAt(len(src)+10))

	// the rest of an inter-statement run belongs to the next statement
	p = Parse("select 1;\n\n\nselect 2;", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	assert.Equal(t, 0, p.IndexAt(9))
	assert.Equal(t, 1, p.IndexAt(10))
	assert.Equal(t, 1, p.IndexAt(11))

	// a streamed file maps offsets the same way
	for _, text := range []string{src, "select 1;  \n\nselect 2;\n", "prompt it's\nselect 1;"} {
		mem := Parse(text, dialect.Oracle, delimiter.Standard, delimiter.None, quiet())
		stream := NewParser(dialect.Oracle, quiet(), WithDelimiters(delimiter.Standard, delimiter.None), WithMaxInMemorySize(1))
		require.NoError(t, stream.SetFile(writeScript(t, text), ""))
		for off := 0; off <= len(text); off++ {
			assert.Equal(t, mem.IndexAt(off), stream.IndexAt(off), "%q offset %d", text, off)
		}
	}
	p = NewParser(dialect.Standard, quiet(), WithMaxInMemorySize(1))
	require.NoError(t, p.SetFile(writeScript(t, src), ""))
	assert.Equal(t, 0, p.IndexAt(9))

	assert.Equal(t, -1, Parse("", dialect.Standard, delimiter.Standard, delimiter.None, quiet()).IndexAt(0))
	assert.Equal(t, -1, Parse("-- c\n", dialect.Standard, delimiter.Standard, delimiter.None, quiet()).IndexAt(0))
}

func TestEmptyScript(t *testing.T) {
	p := Parse("-- only\n\n/* comments */\n\n", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	assert.Equal(t, 0, p.Count())
	_, ok := p.Command(0)
	assert.False(t, ok)
}

func TestUnterminatedLiteral(t *testing.T) {
	src := "select 'abc;"
	p := Parse(src, dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	require.Equal(t, 1, p.Count())
	cmd, ok := p.Command(0)
	require.True(t, ok)
	assert.True(t, cmd.LexicalError)
	assert.Equal(t, len(src), cmd.End)
}

func TestOutOfRange(t *testing.T) {
	p := Parse("select 1;", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	_, ok := p.Command(1)
	assert.False(t, ok)
	_, ok = p.Command(-1)
	assert.False(t, ok)
	_, ok = p.CommandText(5, true)
	assert.False(t, ok)
	_, ok = p.DelimiterUsed(5)
	assert.False(t, ok)
	_, err := p.MustCommand(5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUnconfigured(t *testing.T) {
	p := NewParser(dialect.Postgres, quiet())
	assert.Equal(t, 0, p.Count())
	_, ok := p.Command(0)
	assert.False(t, ok)
	var cfg *apperrors.ConfigError
	assert.True(t, errors.As(p.StartIterator(), &cfg))
	assert.Equal(t, -1, p.IndexAt(0))
}

func TestInvalidation(t *testing.T) {
	p := Parse("select 1\n\nselect 2", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	require.Equal(t, 1, p.Count())

	p.SetEmptyLineIsDelimiter(true)
	require.Equal(t, 2, p.Count())

	p.SetReturnLeadingWhitespace(true)
	text, _ := p.CommandText(1, false)
	assert.Equal(t, "\nselect 2", text)

	p.SetDelimiters(delimiter.Delimiter{Text: "select"}, delimiter.None)
	p.SetEmptyLineIsDelimiter(false)
	assert.Equal(t, 2, p.Count())
}

func TestCheckEscapedQuotes(t *testing.T) {
	src := `select 'a\';b';`
	p := Parse(src, dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	assert.Equal(t, 2, p.Count())
	p.SetCheckEscapedQuotes(true)
	assert.Equal(t, 1, p.Count())

	// MySQL escapes by default and can be switched off
	p = Parse(src, dialect.MySQL, delimiter.Standard, delimiter.None, quiet())
	assert.Equal(t, 1, p.Count())
	p.SetCheckEscapedQuotes(false)
	assert.Equal(t, 2, p.Count())
}

func TestDynamicDelimiterSwitch(t *testing.T) {
	src := "DELIMITER //\nselect 1; select 2//\n"
	p := Parse(src, dialect.MySQL, delimiter.Standard, delimiter.None, quiet())
	assert.Equal(t, []string{"select 1; select 2"}, allTexts(t, p))

	p.SetDynamicDelimiter(false)
	assert.Equal(t, 2, p.Count())

	std := Parse(src, dialect.Standard, delimiter.Standard, delimiter.None, quiet(), WithDynamicDelimiter(true))
	assert.Equal(t, 1, std.Count())
}

func TestIteratorRestart(t *testing.T) {
	p := Parse("select 1;\nselect 2;\nselect 3;", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	first, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)
	second, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Index)

	require.NoError(t, p.StartIterator())
	again, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, again.Index)

	_, _ = p.Next()
	_, _ = p.Next()
	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
	require.NoError(t, p.Done())
}

func TestAllStopsEarly(t *testing.T) {
	p := Parse("select 1;\nselect 2;\nselect 3;", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	n := 0
	for range p.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestStreamingMatchesInMemory(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("insert into t values ('a;b', $$x;y$$);\n-- note\n")
	}
	b.WriteString("select 1")
	path := writeScript(t, b.String())

	mem := NewParser(dialect.Postgres, quiet())
	require.NoError(t, mem.SetFile(path, ""))
	want := allTexts(t, mem)
	require.Len(t, want, 201)

	stream := NewParser(dialect.Postgres, quiet(), WithMaxInMemorySize(16))
	require.NoError(t, stream.SetFile(path, ""))
	assert.Equal(t, -1, stream.Count())
	assert.Equal(t, want, allTexts(t, stream))
	assert.Equal(t, 201, stream.Count())

	// restarting reopens the file
	assert.Equal(t, want, allTexts(t, stream))

	// index access materializes the commands
	text, ok := stream.CommandText(200, true)
	require.True(t, ok)
	assert.Equal(t, "select 1", text)
	assert.Equal(t, 201, stream.Count())
}

// gzipSource is a script that is decompressed on every Open.
type gzipSource struct {
	data  []byte
	opens int
}

func (g *gzipSource) Name() string         { return "script.sql.gz" }
func (g *gzipSource) Len() int64           { return -1 }
func (g *gzipSource) Text() (string, bool) { return "", false }

func (g *gzipSource) Open() (io.ReadCloser, error) {
	g.opens++
	return gzip.NewReader(bytes.NewReader(g.data))
}

func TestCustomSource(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("select 1;\nselect 'a;b';\nselect 3"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	src := &gzipSource{data: buf.Bytes()}

	p := NewParser(dialect.Standard, quiet())
	p.SetSource(src)
	assert.Equal(t, "script.sql.gz", p.SourceName())
	assert.Equal(t, -1, p.Count())
	want := []string{"select 1", "select 'a;b'", "select 3"}
	assert.Equal(t, want, allTexts(t, p))
	assert.Equal(t, want, allTexts(t, p))
	assert.Equal(t, 2, src.opens)
	assert.Equal(t, 3, p.Count())

	// text held in memory is split eagerly
	p.SetSource(NewStringSource("select 1;select 2"))
	assert.Equal(t, 2, p.Count())
}

func TestStreamingDoneReleasesFile(t *testing.T) {
	path := writeScript(t, "select 1;\nselect 2;\n")
	p := NewParser(dialect.Standard, quiet(), WithMaxInMemorySize(1))
	require.NoError(t, p.SetFile(path, ""))
	cmd, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "select 1", p.TextOf(cmd, true))
	require.NoError(t, p.Done())
	assert.Nil(t, p.rc)
	assert.Equal(t, -1, p.Count())
}

func TestSetFileErrors(t *testing.T) {
	p := NewParser(dialect.Standard, quiet())
	var cfg *apperrors.ConfigError

	err := p.SetFile(filepath.Join(t.TempDir(), "missing.sql"), "")
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfg))

	err = p.SetFile(t.TempDir(), "")
	assert.True(t, errors.As(err, &cfg))

	path := writeScript(t, "select 1;")
	err = p.SetFile(path, "utf-16le")
	assert.True(t, errors.As(err, &cfg))

	err = p.SetFile(path, "no-such-encoding")
	assert.True(t, errors.As(err, &cfg))
}

func TestLegacyEncoding(t *testing.T) {
	path := writeScript(t, "select 'caf\xe9';\nselect 2;")
	p := NewParser(dialect.Standard, quiet())
	require.NoError(t, p.SetFile(path, "windows-1252"))
	text, ok := p.CommandText(0, true)
	require.True(t, ok)
	assert.Equal(t, "select 'café'", text)
	cmd, _ := p.Command(1)
	assert.Equal(t, 15, cmd.Start)
}

func TestLineOf(t *testing.T) {
	p := Parse("a\nb\nc", dialect.Standard, delimiter.Standard, delimiter.None, quiet())
	assert.Equal(t, 1, p.LineOf(0))
	assert.Equal(t, 1, p.LineOf(1))
	assert.Equal(t, 2, p.LineOf(2))
	assert.Equal(t, 3, p.LineOf(4))
	assert.Equal(t, 0, p.LineOf(99))
}

func TestNewParserForDB(t *testing.T) {
	assert.Equal(t, dialect.MySQL, NewParserForDB("mariadb").Dialect())
	p := NewParserForDB("PostgreSQL 16", quiet())
	p.SetScript("select 1")
	assert.Equal(t, 1, p.Count())
	assert.Equal(t, "<script>", p.SourceName())
}
