package delimiter

import (
	"strings"

	"github.com/cybertec-postgresql/sqlscript/internal/lexer"
)

/*
 * Policy decides which delimiter is active while a script is split.
 *
 * The splitter feeds every significant token (not whitespace, not comments)
 * to CurrentToken, flagging the first token of each statement, and calls
 * StatementFinished after it closed a statement. A policy instance belongs
 * to exactly one splitter.
 */
type Policy interface {
	// Current returns the active delimiter. None suppresses delimiter
	// detection until the policy switches back.
	Current() Delimiter
	Default() Delimiter
	Alternate() Delimiter

	CurrentToken(tok lexer.Token, isStartOfStatement bool)
	StatementFinished()

	// SupportsMixedDelimiters reports whether the alternate delimiter is
	// honored next to the default one while the default is active.
	SupportsMixedDelimiters() bool

	// SupportsSingleLineStatements reports whether IsSingleLineStatement
	// can ever return true.
	SupportsSingleLineStatements() bool

	// IsSingleLineStatement reports whether a statement starting with tok
	// ends at the end of its line. atLineStart is true when only blanks
	// precede tok on its line.
	IsSingleLineStatement(tok lexer.Token, atLineStart bool) bool

	// LineEnd is called on every line break outside literals.
	LineEnd()
}

// DirectiveReporter is implemented by policies whose statements can be
// client directives (DELIMITER //). The splitter consumes a statement for
// which IsDirective returns true instead of emitting it.
type DirectiveReporter interface {
	IsDirective() bool
}

// base keeps the delimiter triple and the no-op behaviour shared by all
// policies.
type base struct {
	def Delimiter
	alt Delimiter
	cur Delimiter
}

func newBase(def, alt Delimiter) base {
	return base{def: def, alt: alt, cur: def}
}

func (b *base) Current() Delimiter   { return b.cur }
func (b *base) Default() Delimiter   { return b.def }
func (b *base) Alternate() Delimiter { return b.alt }

func (b *base) CurrentToken(lexer.Token, bool) {}
func (b *base) StatementFinished()             { b.cur = b.def }

func (b *base) SupportsMixedDelimiters() bool                 { return false }
func (b *base) SupportsSingleLineStatements() bool            { return false }
func (b *base) IsSingleLineStatement(lexer.Token, bool) bool { return false }
func (b *base) LineEnd()                                      {}

// Fixed is a policy that never switches. The splitter uses it for dialects
// without a policy of their own.
type Fixed struct{ base }

// NewFixed returns a policy that always uses def.
func NewFixed(def Delimiter) *Fixed {
	return &Fixed{base: newBase(def, None)}
}

// StandardPolicy handles @file and @@file include markers, which are statements
// of their own line. It never switches delimiters.
type StandardPolicy struct{ base }

// NewStandard returns the policy for ANSI scripts.
func NewStandard(def, alt Delimiter) *StandardPolicy {
	return &StandardPolicy{base: newBase(def, alt)}
}

func (p *StandardPolicy) SupportsSingleLineStatements() bool { return true }

func (p *StandardPolicy) IsSingleLineStatement(tok lexer.Token, atLineStart bool) bool {
	return atLineStart && isIncludeMarker(tok)
}

func isIncludeMarker(tok lexer.Token) bool {
	return tok.Type == lexer.Operator && (tok.Text == "@" || tok.Text == "@@")
}

// words collects the leading words of a statement for prefix matching.
// Keyword phrases contribute each of their words.
type words []string

func (w *words) add(tok lexer.Token) {
	switch tok.Type {
	case lexer.Keyword, lexer.KeywordPhrase:
		*w = append(*w, strings.Fields(tok.Contents)...)
	case lexer.Ident:
		*w = append(*w, strings.ToUpper(tok.Text))
	default:
		*w = append(*w, "")
	}
}

// match is the outcome of a statement prefix test.
type match int

const (
	undecided match = iota
	matched
	rejected
)

func oneOf(w string, set ...string) bool {
	for _, s := range set {
		if w == s {
			return true
		}
	}
	return false
}
