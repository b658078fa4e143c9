/*
 * scanner.go
 *
 * Multi-dialect SQL scanner.
 *
 * The scanner turns a byte stream into a contiguous sequence of tokens:
 * concatenating Token.Text of every token returned before EOF gives back the
 * input unchanged. Whitespace is returned as tokens of its own, and a
 * whitespace token never extends past a newline, so every line break is a
 * token boundary the splitter can react to.
 *
 * Dialect differences (quoting styles, comment styles, dollar quotes, …) are
 * switched through a *Rules value; see rules.go.
 *
 * Usage – manual tokenisation:
 *
 *	s := lexer.NewScanner(src, lexer.PostgresRules())
 *	for {
 *	    tok := s.Scan()
 *	    if tok.Type == lexer.EOF { break }
 *	    // use tok.Type, tok.Text, tok.Pos
 *	}
 */
package lexer

import (
	"io"
	"strings"
)

// maxVariableLen bounds the lookahead for ${name} and $[name] placeholders.
const maxVariableLen = 256

// Options tunes what the scanner reports.
type Options struct {
	// IncludeComments returns comments as LineComment/BlockComment tokens.
	// When false they are reported as Whitespace with the same span.
	IncludeComments bool

	// IncludeMultilineLiteralNewlines makes Line() count the line breaks
	// inside multi-line literals and comments, not only those in whitespace.
	IncludeMultilineLiteralNewlines bool
}

// DefaultOptions reports comments and counts every line break.
var DefaultOptions = Options{IncludeComments: true, IncludeMultilineLiteralNewlines: true}

/*
 * Scanner tokenizes SQL source text one token at a time.
 * All byte offsets (Pos, End) are 0-based indices into the original input,
 * also for streamed input where only a window of it is buffered.
 */
type Scanner struct {
	in    *window
	rules *Rules
	opts  Options
	pos   int
	line  int

	// operandEnd is true when the last significant token can end an operand,
	// in which case a following + or - is an operator and not a sign.
	operandEnd bool
}

// NewScanner returns a Scanner that reads from src.
func NewScanner(src string, rules *Rules) *Scanner {
	return newScanner(newStringWindow(src), rules)
}

// NewReaderScanner returns a Scanner that streams from r.
func NewReaderScanner(r io.Reader, rules *Rules) *Scanner {
	return newScanner(newReaderWindow(r), rules)
}

func newScanner(in *window, rules *Rules) *Scanner {
	if rules == nil {
		rules = StandardRules()
	}
	return &Scanner{in: in, rules: rules, opts: DefaultOptions, line: 1}
}

// SetOptions replaces the scanner options.
func (s *Scanner) SetOptions(o Options) { s.opts = o }

// Rules returns the rule set in use.
func (s *Scanner) Rules() *Rules { return s.rules }

// Pos returns the byte offset of the next character to be read.
func (s *Scanner) Pos() int { return s.pos }

// Line returns the 1-based line number of the next character to be read.
func (s *Scanner) Line() int { return s.line }

// Err returns the first read error of a streamed input, if any.
func (s *Scanner) Err() error { return s.in.err }

// Text returns the source between two absolute offsets. For streamed input
// the range must not have been released yet.
func (s *Scanner) Text(from, to int) string { return s.in.text(from, to) }

// Release tells a streaming scanner that bytes before abs are no longer
// needed by the caller.
func (s *Scanner) Release(abs int) { s.in.release(abs) }

// AtEOF reports whether the whole input has been consumed.
func (s *Scanner) AtEOF() bool { return s.in.atEOF(s.pos) }

/*
 * Scan returns the next token. Returns Token{Type: EOF} when the input is
 * exhausted.
 *
 * The case ordering matters, earlier cases win:
 *
 *  1. Whitespace, up to and including one newline.
 *  2. Line comments (--, and # where the dialect allows it).
 *  3. Block comments.
 *  4. ${name} / $[name] placeholders, before any other use of '$'.
 *  5. Prefixed strings: E'…', q'[…]', N'…'.
 *  6. Plain strings and quoted identifiers.
 *  7. Dollar quotes and positional parameters.
 *  8. Numbers, with a leading sign when no operand precedes.
 *  9. Words: identifiers, keywords and multi-word keyword phrases.
 * 10. Operators, longest match first, else a single byte.
 */
func (s *Scanner) Scan() Token {
	tok := s.scan()
	if tok.Type == EOF {
		return tok
	}
	if tok.IsWhitespace() || s.opts.IncludeMultilineLiteralNewlines {
		s.line += tok.Newlines()
	}
	if tok.IsComment() && !s.opts.IncludeComments {
		tok.Type = Whitespace
	}
	if tok.IsSignificant() {
		s.operandEnd = endsOperand(tok)
	}
	return tok
}

// ScanAll tokenises the entire input and returns every token (no EOF entry).
func (s *Scanner) ScanAll() []Token {
	var toks []Token
	for {
		t := s.Scan()
		if t.Type == EOF {
			break
		}
		toks = append(toks, t)
	}
	return toks
}

// Tokenize is a shorthand for NewScanner(src, rules).ScanAll().
func Tokenize(src string, rules *Rules) []Token {
	return NewScanner(src, rules).ScanAll()
}

func (s *Scanner) scan() Token {
	if s.AtEOF() {
		return Token{Type: EOF, Pos: s.pos, End: s.pos}
	}
	start := s.pos
	ch := s.peek(0)

	switch {
	case isSpace(ch):
		return s.whitespace(start)

	case ch == '-' && s.peek(1) == '-':
		return s.lineComment(start)
	case ch == '#' && s.rules.HashComments:
		return s.lineComment(start)

	case ch == '/' && s.peek(1) == '*':
		return s.blockComment(start)

	case ch == '$' && s.variableLen() > 0:
		return s.variable(start)

	case s.rules.EscapeStrings && (ch == 'e' || ch == 'E') && s.peek(1) == '\'':
		return s.quotedString(start, 1, '\'', true)

	case s.rules.AlternativeQuoting && s.alternativeQuotePrefix() > 0:
		return s.alternativeQuote(start, s.alternativeQuotePrefix())

	case s.rules.NationalStrings && (ch == 'n' || ch == 'N') && s.peek(1) == '\'':
		return s.quotedString(start, 1, '\'', s.rules.BackslashEscapes)

	case s.rules.isStringQuote(ch):
		return s.quotedString(start, 0, ch, s.rules.BackslashEscapes)

	case s.isIdentQuote(ch):
		q, _ := s.rules.identQuote(ch)
		return s.quotedIdent(start, q)

	case ch == '$' && s.rules.DollarQuotes && s.dollarTagLen() > 0:
		return s.dollarQuote(start)

	case ch == '$' && s.rules.PositionalParams && isDecDigit(s.peek(1)):
		return s.param(start)

	case isDecDigit(ch) || (ch == '.' && isDecDigit(s.peek(1))):
		return s.number(start)

	case (ch == '+' || ch == '-') && !s.operandEnd && s.signedNumberAhead():
		return s.number(start)

	case s.rules.isIdentStart(ch):
		return s.word(start)

	default:
		return s.operator(start)
	}
}

// ---------------------------------------------------------------------------
// Delimiter support for the splitter
// ---------------------------------------------------------------------------

/*
 * MatchDelimiter consumes text at the current position and returns it as a
 * Delimiter token. With fold set the comparison ignores ASCII case and the
 * match must not be followed by an identifier character, so a GO delimiter
 * does not match the start of GOTO.
 *
 * The splitter only calls this on token boundaries, so a delimiter inside a
 * string literal or a comment is never seen.
 */
func (s *Scanner) MatchDelimiter(text string, fold bool) (Token, bool) {
	if text == "" {
		return Token{}, false
	}
	for i := 0; i < len(text); i++ {
		if s.in.atEOF(s.pos + i) {
			return Token{}, false
		}
		c := s.peek(i)
		if fold {
			if toLower(c) != toLower(text[i]) {
				return Token{}, false
			}
		} else if c != text[i] {
			return Token{}, false
		}
	}
	if fold && s.rules.isIdentCont(s.peek(len(text))) {
		return Token{}, false
	}
	start := s.pos
	s.pos += len(text)
	s.operandEnd = false
	return s.token(Delimiter, start), true
}

/*
 * ScanRaw returns the bytes up to the next blank, line end or end of input
 * as one Ident token, without interpreting quotes or comments. It is used
 * for the arguments of client commands that end at their line, such as
 * PROMPT text. When the chunk ends with stop and only blanks follow on the
 * line, stop is left for MatchDelimiter.
 *
 * At a blank or at the end of input it behaves like Scan.
 */
func (s *Scanner) ScanRaw(stop string) Token {
	if s.AtEOF() || isSpace(s.peek(0)) {
		return s.Scan()
	}
	start := s.pos
	for !s.in.atEOF(s.pos) && !isSpace(s.peek(0)) {
		s.pos++
	}
	n := s.pos - start
	if stop != "" && n > len(stop) && s.RestOfLineBlank(0) && s.in.text(s.pos-len(stop), s.pos) == stop {
		s.pos -= len(stop)
	}
	s.operandEnd = true
	return s.token(Ident, start)
}

// LineTail returns the offset just past the blanks and the first newline
// that follow the current position. It returns Pos() when anything else
// comes first, and the end of the input when only blanks remain.
func (s *Scanner) LineTail() int {
	for i := s.pos; ; i++ {
		if s.in.atEOF(i) {
			return i
		}
		switch s.in.at(i) {
		case '\n':
			return i + 1
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return s.pos
		}
	}
}

// RestOfLineBlank reports whether only blanks follow the position
// s.Pos()+off up to the next newline or the end of the input.
func (s *Scanner) RestOfLineBlank(off int) bool {
	for i := s.pos + off; ; i++ {
		if s.in.atEOF(i) {
			return true
		}
		switch s.in.at(i) {
		case '\n':
			return true
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return false
		}
	}
}

// ---------------------------------------------------------------------------
// Internal scanner methods
// ---------------------------------------------------------------------------

// peek returns the byte at position s.pos+offset, or 0 if out of bounds.
func (s *Scanner) peek(offset int) byte {
	return s.in.at(s.pos + offset)
}

// hasPrefix reports whether the input at the current position starts with p.
func (s *Scanner) hasPrefix(p string) bool {
	for i := 0; i < len(p); i++ {
		if s.in.atEOF(s.pos+i) || s.peek(i) != p[i] {
			return false
		}
	}
	return true
}

// token builds a token of type typ from start to the current position.
func (s *Scanner) token(typ TokenType, start int) Token {
	text := s.in.text(start, s.pos)
	return Token{Type: typ, Text: text, Contents: text, Pos: start, End: s.pos}
}

// unterminated consumes the rest of the input and returns an Error token.
func (s *Scanner) unterminated(start int, msg string) Token {
	for !s.AtEOF() {
		s.pos++
	}
	tok := s.token(Error, start)
	tok.Err = msg
	return tok
}

/*
 * whitespace consumes blanks up to and including the first newline.
 * Everything after the newline belongs to the next token, so a blank line is
 * always a whitespace token of its own.
 */
func (s *Scanner) whitespace(start int) Token {
	for !s.AtEOF() {
		c := s.peek(0)
		if c == '\n' {
			s.pos++
			break
		}
		if !isSpace(c) {
			break
		}
		s.pos++
	}
	return s.token(Whitespace, start)
}

// lineComment consumes from -- (or #) to end of line, newline not consumed.
func (s *Scanner) lineComment(start int) Token {
	for !s.AtEOF() {
		if c := s.peek(0); c == '\n' || c == '\r' {
			break
		}
		s.pos++
	}
	return s.token(LineComment, start)
}

/*
 * blockComment consumes / * … * /.
 *
 * Without NestedComments the first closing marker ends the comment, no matter
 * how many opening markers were seen. With NestedComments (PostgreSQL) every
 * opening marker needs its own closing marker.
 */
func (s *Scanner) blockComment(start int) Token {
	s.pos += 2 /* consume opening marker */
	for depth := 1; ; {
		if s.AtEOF() {
			return s.unterminated(start, "unterminated block comment")
		}
		switch {
		case s.rules.NestedComments && s.peek(0) == '/' && s.peek(1) == '*':
			depth++
			s.pos += 2
		case s.peek(0) == '*' && s.peek(1) == '/':
			depth--
			s.pos += 2
			if depth == 0 {
				return s.token(BlockComment, start)
			}
		default:
			s.pos++
		}
	}
}

/*
 * quotedString consumes a string literal opened by quote after prefix bytes
 * (E, N, …).
 *
 * A doubled quote is an escaped quote and does not end the literal. With
 * backslash set, a backslash escapes the following byte, so \' does not end
 * the literal either. Contents is the text between the outer quotes,
 * verbatim.
 */
func (s *Scanner) quotedString(start, prefix int, quote byte, backslash bool) Token {
	s.pos += prefix + 1 /* consume prefix and opening quote */
	for {
		if s.AtEOF() {
			return s.unterminated(start, "unterminated string literal")
		}
		c := s.peek(0)
		s.pos++
		if backslash && c == '\\' {
			if !s.AtEOF() {
				s.pos++
			}
			continue
		}
		if c != quote {
			continue
		}
		if s.peek(0) == quote {
			s.pos++ /* doubled quote */
			continue
		}
		tok := s.token(String, start)
		tok.Contents = tok.Text[prefix+1 : len(tok.Text)-1]
		return tok
	}
}

func (s *Scanner) isIdentQuote(ch byte) bool {
	_, ok := s.rules.identQuote(ch)
	return ok
}

/*
 * quotedIdent consumes a delimited identifier: "…", […] or `…`.
 * A doubled closing character is part of the name. Contents keeps the text
 * between the delimiters verbatim, including embedded opening characters
 * in the bracket style ([a[b] is the name a[b).
 */
func (s *Scanner) quotedIdent(start int, q QuotePair) Token {
	s.pos++ /* consume opening delimiter */
	for {
		if s.AtEOF() {
			return s.unterminated(start, "unterminated quoted identifier")
		}
		c := s.peek(0)
		s.pos++
		if c != q.Close {
			continue
		}
		if s.peek(0) == q.Close {
			s.pos++
			continue
		}
		tok := s.token(QuotedIdent, start)
		tok.Contents = tok.Text[1 : len(tok.Text)-1]
		return tok
	}
}

/*
 * alternativeQuotePrefix returns the length of an Oracle alternative quoting
 * prefix (q' or nq') at the current position, or 0.
 */
func (s *Scanner) alternativeQuotePrefix() int {
	i := 0
	if c := s.peek(0); c == 'n' || c == 'N' {
		i = 1
	}
	if c := s.peek(i); c != 'q' && c != 'Q' {
		return 0
	}
	if s.peek(i+1) != '\'' {
		return 0
	}
	if open := s.peek(i + 2); open == 0 || isSpace(open) {
		return 0
	}
	return i + 2
}

// alternativeQuote consumes q'X…X' where X is any character, and the bracket
// pairs [] {} () <> close with their counterpart.
func (s *Scanner) alternativeQuote(start, prefix int) Token {
	s.pos += prefix
	open := s.peek(0)
	s.pos++
	closing := open
	switch open {
	case '[':
		closing = ']'
	case '{':
		closing = '}'
	case '(':
		closing = ')'
	case '<':
		closing = '>'
	}
	idx := s.in.indexFrom(s.pos, string([]byte{closing, '\''}))
	if idx < 0 {
		return s.unterminated(start, "unterminated string literal")
	}
	s.pos = idx + 2
	tok := s.token(String, start)
	tok.Contents = tok.Text[prefix+1 : len(tok.Text)-2]
	return tok
}

/*
 * dollarTagLen returns the length of a $tag$ or $$ opening delimiter at the
 * current position, or 0 when there is none. Tags follow identifier rules
 * but cannot start with a digit, so $1 stays a positional parameter.
 */
func (s *Scanner) dollarTagLen() int {
	if s.peek(1) == '$' {
		return 2
	}
	if !isIdentStart(s.peek(1)) && s.peek(1) < 0x80 {
		return 0
	}
	i := 2
	for {
		c := s.peek(i)
		if c == '$' {
			return i + 1
		}
		if !isIdentCont(c) && c < 0x80 {
			return 0
		}
		if c == 0 && s.in.atEOF(s.pos+i) {
			return 0
		}
		i++
	}
}

// dollarQuote consumes $tag$ … $tag$. Contents is the body.
func (s *Scanner) dollarQuote(start int) Token {
	n := s.dollarTagLen()
	tag := s.in.text(s.pos, s.pos+n)
	s.pos += n
	idx := s.in.indexFrom(s.pos, tag)
	if idx < 0 {
		return s.unterminated(start, "unterminated dollar-quoted string")
	}
	s.pos = idx + n
	tok := s.token(String, start)
	tok.Contents = tok.Text[n : len(tok.Text)-n]
	return tok
}

// param consumes a $N positional parameter.
func (s *Scanner) param(start int) Token {
	s.pos++
	for isDecDigit(s.peek(0)) {
		s.pos++
	}
	return s.token(Variable, start)
}

/*
 * variableLen returns the length of a ${name}, $[name] or $[?name]
 * placeholder at the current position, or 0. The name must be non-empty
 * and must not contain blanks; the placeholder must close on the same line.
 */
func (s *Scanner) variableLen() int {
	var closing byte
	switch s.peek(1) {
	case '{':
		closing = '}'
	case '[':
		closing = ']'
	default:
		return 0
	}
	i := 2
	if closing == ']' && s.peek(i) == '?' {
		i++
	}
	nameStart := i
	for ; i < maxVariableLen; i++ {
		c := s.peek(i)
		switch {
		case c == closing:
			if i == nameStart {
				return 0
			}
			return i + 1
		case c == 0 || isSpace(c):
			return 0
		}
	}
	return 0
}

// variable consumes a placeholder. Contents is the bare name.
func (s *Scanner) variable(start int) Token {
	n := s.variableLen()
	s.pos += n
	tok := s.token(Variable, start)
	name := tok.Text[2 : len(tok.Text)-1]
	tok.Contents = strings.TrimPrefix(name, "?")
	return tok
}

// signedNumberAhead reports whether a sign at the current position is
// followed by a number.
func (s *Scanner) signedNumberAhead() bool {
	n := s.peek(1)
	return isDecDigit(n) || (n == '.' && isDecDigit(s.peek(2)))
}

/*
 * number scans [+-]?digits(.digits)?([eE][+-]?digits)? and the .digits form.
 *
 * The token is an Integer unless it has a decimal point or an exponent.
 * 1..2 is not a decimal: the first dot of a .. stays for the operator.
 */
func (s *Scanner) number(start int) Token {
	if c := s.peek(0); c == '+' || c == '-' {
		s.pos++
	}
	for isDecDigit(s.peek(0)) {
		s.pos++
	}
	typ := Integer
	if s.peek(0) == '.' && s.peek(1) != '.' {
		typ = Decimal
		s.pos++
		for isDecDigit(s.peek(0)) {
			s.pos++
		}
	}
	if c := s.peek(0); c == 'e' || c == 'E' {
		next := s.peek(1)
		signed := (next == '+' || next == '-') && isDecDigit(s.peek(2))
		if isDecDigit(next) || signed {
			typ = Decimal
			s.pos++
			if signed {
				s.pos++
			}
			for isDecDigit(s.peek(0)) {
				s.pos++
			}
		}
	}
	return s.token(typ, start)
}

/*
 * word scans an identifier and resolves it against the keyword and phrase
 * tables of the dialect.
 *
 * A phrase (GROUP BY, LEFT OUTER JOIN, CREATE OR REPLACE, …) becomes one
 * KeywordPhrase token when its words follow each other with only whitespace
 * and comments between them. The longest registered phrase wins. The words
 * of a phrase may not be separated by an empty line, so a blank-line
 * delimiter always stays visible to the splitter.
 */
func (s *Scanner) word(start int) Token {
	s.pos = s.wordEnd(start)
	upper := strings.ToUpper(s.in.text(start, s.pos))

	if tails := s.rules.phraseTails(upper); len(tails) > 0 {
		for _, tail := range tails {
			if end, ok := s.matchPhrase(s.pos, tail); ok {
				s.pos = end
				tok := s.token(KeywordPhrase, start)
				tok.Contents = upper + " " + strings.Join(tail, " ")
				return tok
			}
		}
	}

	if s.rules.IsKeyword(upper) {
		tok := s.token(Keyword, start)
		tok.Contents = upper
		return tok
	}
	return s.token(Ident, start)
}

// matchPhrase tries to match the remaining words of a phrase from abs and
// returns the offset after the last word.
func (s *Scanner) matchPhrase(abs int, words []string) (int, bool) {
	for _, w := range words {
		next, ok := s.skipGap(abs)
		if !ok || next == abs {
			return 0, false
		}
		end := s.wordEnd(next)
		if end == next || !strings.EqualFold(s.in.text(next, end), w) {
			return 0, false
		}
		abs = end
	}
	return abs, true
}

// wordEnd returns the offset after the identifier starting at abs, or abs
// when no identifier starts there.
func (s *Scanner) wordEnd(abs int) int {
	if s.in.atEOF(abs) || !s.rules.isIdentStart(s.in.at(abs)) {
		return abs
	}
	abs++
	for !s.in.atEOF(abs) && s.rules.isIdentCont(s.in.at(abs)) {
		abs++
	}
	return abs
}

// skipGap skips whitespace and comments from abs. It fails when the gap
// contains an empty line or an unterminated comment.
func (s *Scanner) skipGap(abs int) (int, bool) {
	newlines := 0
	for !s.in.atEOF(abs) {
		c := s.in.at(abs)
		switch {
		case c == '\n':
			newlines++
			if newlines > 1 {
				return 0, false
			}
			abs++
		case isSpace(c):
			abs++
		case c == '-' && s.in.at(abs+1) == '-', c == '#' && s.rules.HashComments:
			for !s.in.atEOF(abs) && s.in.at(abs) != '\n' {
				abs++
			}
		case c == '/' && s.in.at(abs+1) == '*':
			end := s.in.indexFrom(abs+2, "*/")
			if end < 0 {
				return 0, false
			}
			newlines = 0
			abs = end + 2
		default:
			return abs, true
		}
	}
	return abs, true
}

// operator consumes the longest registered operator, else a single byte.
func (s *Scanner) operator(start int) Token {
	for _, op := range s.rules.operators {
		if s.hasPrefix(op) {
			s.pos += len(op)
			return s.token(Operator, start)
		}
	}
	s.pos++
	return s.token(Operator, start)
}

// endsOperand reports whether a + or - after tok is a binary operator.
func endsOperand(tok Token) bool {
	switch tok.Type {
	case Ident, QuotedIdent, String, Integer, Decimal, Variable:
		return true
	case Keyword:
		switch tok.Contents {
		case "NULL", "END", "TRUE", "FALSE":
			return true
		}
	case Operator:
		return tok.Text == ")" || tok.Text == "]"
	}
	return false
}

// ---------------------------------------------------------------------------
// Character-class predicates
// ---------------------------------------------------------------------------

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// isIdentStart reports whether ch can start an unquoted ASCII identifier.
func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

// isIdentCont reports whether ch can continue an unquoted ASCII identifier.
func isIdentCont(ch byte) bool {
	return isIdentStart(ch) || isDecDigit(ch)
}

// isDecDigit reports whether ch is a decimal digit.
func isDecDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func toLower(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + 'a' - 'A'
	}
	return ch
}
