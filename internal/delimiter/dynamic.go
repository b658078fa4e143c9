package delimiter

import "github.com/cybertec-postgresql/sqlscript/internal/lexer"

/*
 * DynamicPolicy lets the script redefine its delimiter (MySQL, Firebird).
 *
 *	DELIMITER //          MySQL client directive, ends at the end of its line
 *	SET TERM ^ ;          Firebird directive, ends with the current delimiter
 *
 * SET TERM is only recognised as the Firebird keyword phrase, so SET
 * statements of other dialects that name a TERM variable stay SQL.
 *
 * The new delimiter is the contiguous text after the directive keyword. It
 * stays active for all following statements until the next directive; a
 * directive naming the default text restores the default. Directives are
 * reported through DirectiveReporter and consumed by the splitter.
 */
type DynamicPolicy struct {
	base

	kind      directiveKind
	collected string
	lastEnd   int
	closedArg bool
}

type directiveKind int

const (
	noDirective directiveKind = iota
	delimiterDirective
	setTermDirective
)

// NewDynamic returns the redefinable-delimiter policy.
func NewDynamic(def, alt Delimiter) *DynamicPolicy {
	return &DynamicPolicy{base: newBase(def, alt)}
}

// Current returns None while a DELIMITER directive is read, so its argument
// is never taken for the old delimiter.
func (p *DynamicPolicy) Current() Delimiter {
	if p.kind == delimiterDirective {
		return None
	}
	return p.cur
}

func (p *DynamicPolicy) CurrentToken(tok lexer.Token, isStartOfStatement bool) {
	if isStartOfStatement {
		p.reset()
		switch {
		case tok.IsWord("DELIMITER"):
			p.kind = delimiterDirective
		case tok.IsKeyword("SET TERM"):
			p.kind = setTermDirective
		}
		return
	}
	if p.kind == noDirective || p.closedArg {
		return
	}
	if p.collected != "" && tok.Pos != p.lastEnd {
		p.closedArg = true
		return
	}
	p.collected += tok.Text
	p.lastEnd = tok.End
}

// IsDirective reports whether the statement being closed redefined the
// delimiter.
func (p *DynamicPolicy) IsDirective() bool {
	return p.kind != noDirective
}

func (p *DynamicPolicy) StatementFinished() {
	if p.kind != noDirective && p.collected != "" {
		if p.collected == p.def.Text {
			p.cur = p.def
		} else {
			p.cur = Delimiter{Text: p.collected}
		}
	}
	p.reset()
}

func (p *DynamicPolicy) reset() {
	p.kind = noDirective
	p.collected = ""
	p.lastEnd = 0
	p.closedArg = false
}

func (p *DynamicPolicy) SupportsSingleLineStatements() bool { return true }

func (p *DynamicPolicy) IsSingleLineStatement(tok lexer.Token, atLineStart bool) bool {
	return tok.IsWord("DELIMITER")
}
