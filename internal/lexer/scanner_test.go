package lexer

import (
	"strings"
	"testing"
	"testing/iotest"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// tokTypes returns just the TokenType values from ScanAll.
func tokTypes(src string, rules *Rules) []TokenType {
	tokens := Tokenize(src, rules)
	types := make([]TokenType, len(tokens))
	for i, t := range tokens {
		types[i] = t.Type
	}
	return types
}

// first returns the first token from src.
func first(src string, rules *Rules) Token {
	return NewScanner(src, rules).Scan()
}

// assertTypes fails the test when the produced token type sequence does not
// match expected.
func assertTypes(t *testing.T, rules *Rules, src string, want ...TokenType) {
	t.Helper()
	got := tokTypes(src, rules)
	if len(got) != len(want) {
		t.Fatalf("src=%q\n  got  %v\n  want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("src=%q token[%d]: got %v, want %v\n  full got:  %v\n  full want: %v",
				src, i, got[i], want[i], got, want)
		}
	}
}

// assertToken checks type, text and contents of the first token of src.
func assertToken(t *testing.T, rules *Rules, src string, typ TokenType, text, contents string) {
	t.Helper()
	tok := first(src, rules)
	if tok.Type != typ || tok.Text != text || tok.Contents != contents {
		t.Fatalf("src=%q: got (%v %q %q), want (%v %q %q)",
			src, tok.Type, tok.Text, tok.Contents, typ, text, contents)
	}
}

// ── EOF / reconstruction ─────────────────────────────────────────────────────

func TestEmpty(t *testing.T) {
	tok := first("", StandardRules())
	if tok.Type != EOF {
		t.Fatalf("got %v, want EOF", tok.Type)
	}
}

func TestTokensReconstructInput(t *testing.T) {
	inputs := []string{
		"SELECT 1;\nSELECT 'a;b' -- c\n/* d */ FROM t",
		"select $$a;b$$, E'x\\'y', $1 from t where a::int >= -1.5e3",
		"q'[it's]' || N'x' || \"id\"",
		"'unterminated",
		"/* never closed",
		"",
	}
	rulesets := []*Rules{StandardRules(), OracleRules(), PostgresRules(), MySQLRules(), SQLServerRules(), FirebirdRules()}
	for _, src := range inputs {
		for _, r := range rulesets {
			var b strings.Builder
			prev := 0
			for _, tok := range Tokenize(src, r) {
				if tok.Pos != prev {
					t.Fatalf("%s src=%q: token %q starts at %d, want %d", r.Name, src, tok.Text, tok.Pos, prev)
				}
				b.WriteString(tok.Text)
				prev = tok.End
			}
			if b.String() != src {
				t.Fatalf("%s: reconstructed %q, want %q", r.Name, b.String(), src)
			}
		}
	}
}

// ── whitespace and comments ──────────────────────────────────────────────────

func TestWhitespaceEndsAtNewline(t *testing.T) {
	assertTypes(t, StandardRules(), "a  \n\n  b",
		Ident, Whitespace, Whitespace, Whitespace, Ident)
	toks := Tokenize("a  \n\n  b", StandardRules())
	if toks[1].Text != "  \n" || !toks[1].EndsLine() {
		t.Fatalf("got %q", toks[1].Text)
	}
	if toks[3].EndsLine() {
		t.Fatalf("trailing blanks must not end a line")
	}
}

func TestLineComment(t *testing.T) {
	assertTypes(t, StandardRules(), "x -- note\ny", Ident, Whitespace, LineComment, Whitespace, Ident)
	assertToken(t, StandardRules(), "-- note\n", LineComment, "-- note", "-- note")
}

func TestHashComment(t *testing.T) {
	assertTypes(t, MySQLRules(), "# c\nx", LineComment, Whitespace, Ident)
	// # is an operator where the dialect has no hash comments
	assertTypes(t, StandardRules(), "#", Operator)
}

func TestBlockCommentNesting(t *testing.T) {
	assertTypes(t, PostgresRules(), "/* a /* b */ c */", BlockComment)
	assertTypes(t, StandardRules(), "/* a /* b */ c */",
		BlockComment, Whitespace, Ident, Whitespace, Operator, Operator)
}

func TestUnterminatedBlockComment(t *testing.T) {
	tok := first("/* open", StandardRules())
	if tok.Type != Error || tok.Text != "/* open" || tok.Err == "" {
		t.Fatalf("got %+v", tok)
	}
}

func TestCommentsAsWhitespace(t *testing.T) {
	s := NewScanner("--x\n/* y */", StandardRules())
	s.SetOptions(Options{IncludeComments: false, IncludeMultilineLiteralNewlines: true})
	for _, tok := range s.ScanAll() {
		if tok.Type != Whitespace {
			t.Fatalf("got %v for %q", tok.Type, tok.Text)
		}
	}
}

// ── literals ─────────────────────────────────────────────────────────────────

func TestStringLiterals(t *testing.T) {
	assertToken(t, StandardRules(), "'it''s'", String, "'it''s'", "it''s")
	assertToken(t, MySQLRules(), `'a\'b'`, String, `'a\'b'`, `a\'b`)
	assertToken(t, MySQLRules(), `"dq"`, String, `"dq"`, "dq")
	assertToken(t, PostgresRules(), `E'a\'b'`, String, `E'a\'b'`, `a\'b`)
	assertToken(t, SQLServerRules(), "N'abc'", String, "N'abc'", "abc")
}

func TestUnterminatedString(t *testing.T) {
	tok := first("'abc", StandardRules())
	if tok.Type != Error || tok.Text != "'abc" || tok.Err == "" {
		t.Fatalf("got %+v", tok)
	}
}

func TestAlternativeQuoting(t *testing.T) {
	assertToken(t, OracleRules(), "q'[it's]'", String, "q'[it's]'", "it's")
	assertToken(t, OracleRules(), "Q'!a;b!'", String, "Q'!a;b!'", "a;b")
	assertToken(t, OracleRules(), "nq'{x}'", String, "nq'{x}'", "x")
}

func TestDollarQuotes(t *testing.T) {
	assertToken(t, PostgresRules(), "$$a;b$$", String, "$$a;b$$", "a;b")
	assertToken(t, PostgresRules(), "$body$ x $body$", String, "$body$ x $body$", " x ")
	tok := first("$x$ never", PostgresRules())
	if tok.Type != Error {
		t.Fatalf("got %v, want error", tok.Type)
	}
}

func TestVariables(t *testing.T) {
	assertToken(t, StandardRules(), "${name}", Variable, "${name}", "name")
	assertToken(t, StandardRules(), "$[x]", Variable, "$[x]", "x")
	assertToken(t, StandardRules(), "$[?x]", Variable, "$[?x]", "x")
	assertToken(t, PostgresRules(), "$12", Variable, "$12", "$12")
	// an empty name is not a variable
	if tok := first("${}", StandardRules()); tok.Type == Variable {
		t.Fatalf("got variable for ${}")
	}
}

func TestQuotedIdentifiers(t *testing.T) {
	assertToken(t, StandardRules(), `"my ""col"""`, QuotedIdent, `"my ""col"""`, `my ""col""`)
	assertToken(t, SQLServerRules(), "[my col]", QuotedIdent, "[my col]", "my col")
	assertToken(t, MySQLRules(), "`a b`", QuotedIdent, "`a b`", "a b")
	tok := first(`"open`, StandardRules())
	if tok.Type != Error {
		t.Fatalf("got %v, want error", tok.Type)
	}
}

func TestNumbers(t *testing.T) {
	assertToken(t, StandardRules(), "42", Integer, "42", "42")
	assertToken(t, StandardRules(), "1.5", Decimal, "1.5", "1.5")
	assertToken(t, StandardRules(), ".5", Decimal, ".5", ".5")
	assertToken(t, StandardRules(), "1e10", Decimal, "1e10", "1e10")
	assertToken(t, StandardRules(), "2.5E-3", Decimal, "2.5E-3", "2.5E-3")
	assertTypes(t, PostgresRules(), "1..2", Integer, Operator, Integer)
}

func TestSignedNumbers(t *testing.T) {
	assertTypes(t, StandardRules(), "-1", Integer)
	assertTypes(t, StandardRules(), "x -1", Ident, Whitespace, Operator, Integer)
	assertTypes(t, StandardRules(), "x = -1", Ident, Whitespace, Operator, Whitespace, Integer)
	assertTypes(t, StandardRules(), "(-1)", Operator, Integer, Operator)
	assertTypes(t, StandardRules(), "(1)-1", Operator, Integer, Operator, Operator, Integer)
}

// ── words ────────────────────────────────────────────────────────────────────

func TestKeywordsAndIdentifiers(t *testing.T) {
	assertToken(t, StandardRules(), "select", Keyword, "select", "SELECT")
	assertToken(t, StandardRules(), "foo_1", Ident, "foo_1", "foo_1")
	assertToken(t, OracleRules(), "a$b#c", Ident, "a$b#c", "a$b#c")
	assertToken(t, SQLServerRules(), "@var", Ident, "@var", "@var")
	assertToken(t, SQLServerRules(), "#tmp", Ident, "#tmp", "#tmp")
}

func TestKeywordPhrases(t *testing.T) {
	assertToken(t, StandardRules(), "group  by", KeywordPhrase, "group  by", "GROUP BY")
	assertToken(t, StandardRules(), "LEFT OUTER JOIN", KeywordPhrase, "LEFT OUTER JOIN", "LEFT OUTER JOIN")
	assertToken(t, StandardRules(), "LEFT /*x*/ JOIN", KeywordPhrase, "LEFT /*x*/ JOIN", "LEFT JOIN")
	assertToken(t, StandardRules(), "CREATE OR\nREPLACE", KeywordPhrase, "CREATE OR\nREPLACE", "CREATE OR REPLACE")
	// an empty line breaks a phrase
	assertTypes(t, StandardRules(), "GROUP\n\nBY", Keyword, Whitespace, Whitespace, Keyword)
	// a prefix of a longer word is not a phrase word
	assertTypes(t, StandardRules(), "GROUP BYX", Keyword, Whitespace, Ident)
}

func TestTokenIsWord(t *testing.T) {
	tok := first("Delimiter", MySQLRules())
	if !tok.IsWord("DELIMITER") {
		t.Fatalf("IsWord failed for %+v", tok)
	}
	if !first("begin", StandardRules()).IsKeyword("BEGIN") {
		t.Fatalf("IsKeyword failed")
	}
}

// ── operators ────────────────────────────────────────────────────────────────

func TestOperators(t *testing.T) {
	toks := Tokenize("a::int->>'k'", PostgresRules())
	var ops []string
	for _, tok := range toks {
		if tok.Type == Operator {
			ops = append(ops, tok.Text)
		}
	}
	if strings.Join(ops, " ") != ":: ->>" {
		t.Fatalf("got %v", ops)
	}
	assertTypes(t, OracleRules(), "x := 1", Ident, Whitespace, Operator, Whitespace, Integer)
}

// ── delimiter matching ───────────────────────────────────────────────────────

func TestMatchDelimiter(t *testing.T) {
	s := NewScanner("GOTO x", SQLServerRules())
	if _, ok := s.MatchDelimiter("go", true); ok {
		t.Fatalf("GO must not match the start of GOTO")
	}
	s = NewScanner("go\nselect", SQLServerRules())
	tok, ok := s.MatchDelimiter("GO", true)
	if !ok || tok.Type != Delimiter || tok.Text != "go" || s.Pos() != 2 {
		t.Fatalf("got %+v ok=%v pos=%d", tok, ok, s.Pos())
	}
	s = NewScanner("$$x", MySQLRules())
	if _, ok := s.MatchDelimiter("$$", false); !ok {
		t.Fatalf("$$ not matched")
	}
	s = NewScanner(";", StandardRules())
	if _, ok := s.MatchDelimiter(";;", false); ok {
		t.Fatalf("matched past end of input")
	}
}

func TestRestOfLineBlank(t *testing.T) {
	s := NewScanner("/  \nx", OracleRules())
	if !s.RestOfLineBlank(1) {
		t.Fatalf("want blank")
	}
	if s.RestOfLineBlank(4) {
		t.Fatalf("want not blank")
	}
}

func TestScanRaw(t *testing.T) {
	s := NewScanner("user's table;\nnext", OracleRules())
	var got []string
	for range 3 {
		got = append(got, s.ScanRaw(";").Text)
	}
	want := []string{"user's", " ", "table"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}
	if tok, ok := s.MatchDelimiter(";", false); !ok || tok.Pos != 12 {
		t.Fatalf("delimiter left behind: %+v ok=%v", tok, ok)
	}

	// a delimiter inside the chunk stays text
	s = NewScanner("a;b;", StandardRules())
	if tok := s.ScanRaw(";"); tok.Text != "a;b" {
		t.Fatalf("got %q", tok.Text)
	}
	s = NewScanner(";", StandardRules())
	if tok := s.ScanRaw(";"); tok.Text != ";" {
		t.Fatalf("got %q", tok.Text)
	}
}

func TestLineTail(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"  \nx", 3},
		{" x\n", 0},
		{"  ", 2},
		{"", 0},
	}
	for _, tt := range tests {
		if got := NewScanner(tt.src, StandardRules()).LineTail(); got != tt.want {
			t.Errorf("LineTail(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}

// ── line counting ────────────────────────────────────────────────────────────

func TestLineCounting(t *testing.T) {
	src := "a\n'b\nc'\nd"
	s := NewScanner(src, StandardRules())
	s.ScanAll()
	if s.Line() != 4 {
		t.Fatalf("got line %d, want 4", s.Line())
	}
	s = NewScanner(src, StandardRules())
	s.SetOptions(Options{IncludeComments: true})
	s.ScanAll()
	if s.Line() != 3 {
		t.Fatalf("got line %d, want 3", s.Line())
	}
}

// ── streaming ────────────────────────────────────────────────────────────────

func TestReaderScannerMatchesStringScanner(t *testing.T) {
	src := "SELECT $$a\nb$$, 'x''y' /* c */ FROM t GROUP\n BY 1;\n-- end\n"
	want := Tokenize(src, PostgresRules())
	got := NewReaderScanner(iotest.OneByteReader(strings.NewReader(src)), PostgresRules()).ScanAll()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token[%d]: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReaderScannerRelease(t *testing.T) {
	src := strings.Repeat("select 1;\n", 20000)
	s := NewReaderScanner(strings.NewReader(src), StandardRules())
	n := 0
	for {
		tok := s.Scan()
		if tok.Type == EOF {
			break
		}
		n++
		s.Release(tok.End)
	}
	if n != 20000*5 {
		t.Fatalf("got %d tokens", n)
	}
	if s.Err() != nil {
		t.Fatalf("unexpected error: %v", s.Err())
	}
}
