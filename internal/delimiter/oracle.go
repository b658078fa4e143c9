package delimiter

import "github.com/cybertec-postgresql/sqlscript/internal/lexer"

/*
 * OraclePolicy switches to the block terminator for PL/SQL units.
 *
 * Plain SQL ends with either the default (;) or the alternate (/) delimiter.
 * A statement that opens a PL/SQL unit contains semicolons of its own, so
 * once its leading words identify it, only the alternate delimiter closes
 * it. After the unit the policy reverts to the default.
 *
 * Units that switch:
 *
 *	DECLARE …
 *	BEGIN …
 *	CREATE [OR REPLACE] [EDITIONABLE | NONEDITIONABLE]
 *	    PROCEDURE | FUNCTION | PACKAGE [BODY] | TRIGGER | TYPE [BODY] | LIBRARY | JAVA
 *	CREATE [OR REPLACE] AND { COMPILE | RESOLVE } JAVA
 *
 * SQL*Plus commands (SET, PROMPT, SPOOL, …) and @script includes are single
 * line statements when they start a line.
 */
type OraclePolicy struct {
	base
	lead    words
	decided bool
}

// NewOracle returns the Oracle policy. A None alternate defaults to the
// single-line slash.
func NewOracle(def, alt Delimiter) *OraclePolicy {
	if alt.IsEmpty() {
		alt = Oracle
	}
	return &OraclePolicy{base: newBase(def, alt)}
}

var sqlPlusCommands = []string{
	"SET", "PROMPT", "SPOOL", "WHENEVER", "EXEC", "DESC", "DESCRIBE", "SHOW",
	"REM", "REMARK",
}

func (p *OraclePolicy) CurrentToken(tok lexer.Token, isStartOfStatement bool) {
	if isStartOfStatement {
		p.lead = p.lead[:0]
		p.decided = false
	}
	if p.decided {
		return
	}
	p.lead.add(tok)
	switch plsqlUnit(p.lead) {
	case matched:
		p.cur = p.alt
		p.decided = true
	case rejected:
		p.decided = true
	}
}

func (p *OraclePolicy) StatementFinished() {
	p.base.StatementFinished()
	p.lead = p.lead[:0]
	p.decided = false
}

func (p *OraclePolicy) SupportsMixedDelimiters() bool      { return true }
func (p *OraclePolicy) SupportsSingleLineStatements() bool { return true }

func (p *OraclePolicy) IsSingleLineStatement(tok lexer.Token, atLineStart bool) bool {
	if !atLineStart {
		return false
	}
	if isIncludeMarker(tok) {
		return true
	}
	for _, c := range sqlPlusCommands {
		if tok.IsWord(c) {
			return true
		}
	}
	return false
}

// plsqlUnit tests the leading words of a statement.
func plsqlUnit(w words) match {
	if len(w) == 0 {
		return undecided
	}
	switch w[0] {
	case "DECLARE", "BEGIN":
		return matched
	case "CREATE":
	default:
		return rejected
	}
	i := 1
	at := func(n int) (string, bool) {
		if n >= len(w) {
			return "", false
		}
		return w[n], true
	}
	word, ok := at(i)
	if !ok {
		return undecided
	}
	if word == "OR" {
		if word, ok = at(i + 1); !ok {
			return undecided
		}
		if word != "REPLACE" {
			return rejected
		}
		i += 2
		if word, ok = at(i); !ok {
			return undecided
		}
	}
	if oneOf(word, "EDITIONABLE", "NONEDITIONABLE") {
		i++
		if word, ok = at(i); !ok {
			return undecided
		}
	}
	if word == "AND" {
		mode, ok := at(i + 1)
		if !ok {
			return undecided
		}
		if !oneOf(mode, "COMPILE", "RESOLVE") {
			return rejected
		}
		java, ok := at(i + 2)
		if !ok {
			return undecided
		}
		if java == "JAVA" {
			return matched
		}
		return rejected
	}
	if oneOf(word, "PROCEDURE", "FUNCTION", "PACKAGE", "TRIGGER", "TYPE", "LIBRARY", "JAVA") {
		return matched
	}
	return rejected
}
