package delimiter

import "github.com/cybertec-postgresql/sqlscript/internal/lexer"

/*
 * PostgresPolicy handles SQL-standard function bodies and psql
 * meta-commands. Dollar quotes need no policy support, the lexer returns
 * them as single string tokens.
 *
 * Inside BEGIN ATOMIC … END no delimiter is recognized. The body may nest
 * CASE … END and BEGIN … END, so the policy counts END against every opener
 * and resumes at the END that closes the body.
 *
 * With an alternate delimiter configured, CREATE [OR REPLACE] FUNCTION,
 * CREATE [OR REPLACE] PROCEDURE and DO statements are closed by the
 * alternate instead of the default.
 */
type PostgresPolicy struct {
	base
	depth   int
	lead    words
	decided bool
}

// NewPostgres returns the PostgreSQL policy.
func NewPostgres(def, alt Delimiter) *PostgresPolicy {
	return &PostgresPolicy{base: newBase(def, alt)}
}

func (p *PostgresPolicy) Current() Delimiter {
	if p.depth > 0 {
		return None
	}
	return p.cur
}

func (p *PostgresPolicy) CurrentToken(tok lexer.Token, isStartOfStatement bool) {
	if isStartOfStatement {
		p.depth = 0
		p.lead = p.lead[:0]
		p.decided = false
	}
	switch {
	case tok.IsKeyword("BEGIN ATOMIC"):
		p.depth++
	case p.depth > 0 && (tok.IsKeyword("CASE") || tok.IsKeyword("BEGIN")):
		p.depth++
	case p.depth > 0 && tok.IsKeyword("END"):
		p.depth--
	}
	if p.decided || p.alt.IsEmpty() {
		return
	}
	p.lead.add(tok)
	switch routineStart(p.lead) {
	case matched:
		p.cur = p.alt
		p.decided = true
	case rejected:
		p.decided = true
	}
}

func (p *PostgresPolicy) StatementFinished() {
	p.base.StatementFinished()
	p.depth = 0
	p.lead = p.lead[:0]
	p.decided = false
}

func (p *PostgresPolicy) SupportsSingleLineStatements() bool { return true }

// IsSingleLineStatement matches psql meta-commands such as \i, \set and
// \connect.
func (p *PostgresPolicy) IsSingleLineStatement(tok lexer.Token, atLineStart bool) bool {
	return atLineStart && tok.Type == lexer.Operator && tok.Text == `\`
}

func routineStart(w words) match {
	if len(w) == 0 {
		return undecided
	}
	switch w[0] {
	case "DO":
		return matched
	case "CREATE":
	default:
		return rejected
	}
	i := 1
	if len(w) > i && w[i] == "OR" {
		if len(w) <= i+1 {
			return undecided
		}
		if w[i+1] != "REPLACE" {
			return rejected
		}
		i += 2
	}
	if len(w) <= i {
		return undecided
	}
	if oneOf(w[i], "FUNCTION", "PROCEDURE") {
		return matched
	}
	return rejected
}
