package lexer

import (
	"sort"
	"strings"
)

// QuotePair describes the opening and closing character of a quoted
// identifier style.
type QuotePair struct {
	Open  byte
	Close byte
}

/*
 * Rules holds the lexical quirks of one SQL dialect.
 *
 * A Rules value is immutable once handed to a Scanner. The keyword and
 * phrase tables are shared between copies, so WithBackslashEscapes and the
 * other With* helpers are cheap.
 */
type Rules struct {
	Name string

	StringQuotes []byte      // characters that open a string literal
	IdentQuotes  []QuotePair // quoted identifier styles

	HashComments       bool // # starts a line comment (MySQL)
	NestedComments     bool // /* /* */ */ nests (PostgreSQL)
	DollarQuotes       bool // $tag$ … $tag$ (PostgreSQL)
	EscapeStrings      bool // E'…' with backslash escapes (PostgreSQL)
	AlternativeQuoting bool // q'[…]' (Oracle)
	NationalStrings    bool // N'…' is one string token (Oracle, SQL Server)
	PositionalParams   bool // $1 is a variable (PostgreSQL)
	BackslashEscapes   bool // \' does not terminate a string

	IdentStart string // extra bytes allowed to start an identifier
	IdentCont  string // extra bytes allowed inside an identifier

	operators []string
	keywords  map[string]struct{}
	phrases   map[string][][]string
}

// NewRules creates a rule set with the ANSI operator table and the given
// keywords and phrases. Phrases are written with single blanks between the
// words ("LEFT OUTER JOIN").
func NewRules(name string, keywords []string, phrases []string) *Rules {
	r := &Rules{
		Name:         name,
		StringQuotes: []byte{'\''},
		IdentQuotes:  []QuotePair{{'"', '"'}},
		keywords:     make(map[string]struct{}),
		phrases:      make(map[string][][]string),
	}
	r.SetOperators(ansiOperators...)
	r.AddKeywords(keywords...)
	r.AddPhrases(phrases...)
	return r
}

// SetOperators replaces the multi-character operator table. Longer operators
// are tried first.
func (r *Rules) SetOperators(ops ...string) {
	r.operators = append([]string(nil), ops...)
	sort.SliceStable(r.operators, func(i, j int) bool {
		return len(r.operators[i]) > len(r.operators[j])
	})
}

// Operators returns the multi-character operators in match order.
func (r *Rules) Operators() []string { return r.operators }

// AddKeywords registers reserved words.
func (r *Rules) AddKeywords(words ...string) {
	for _, w := range words {
		r.keywords[strings.ToUpper(w)] = struct{}{}
	}
}

// AddPhrases registers multi-word reserved phrases. Every word of a phrase
// is registered as a keyword as well.
func (r *Rules) AddPhrases(phrases ...string) {
	for _, p := range phrases {
		words := strings.Fields(strings.ToUpper(p))
		if len(words) < 2 {
			continue
		}
		r.AddKeywords(words...)
		head := words[0]
		r.phrases[head] = append(r.phrases[head], words[1:])
		sort.SliceStable(r.phrases[head], func(i, j int) bool {
			return len(r.phrases[head][i]) > len(r.phrases[head][j])
		})
	}
}

// IsKeyword reports whether word is reserved, ignoring case.
func (r *Rules) IsKeyword(word string) bool {
	_, ok := r.keywords[strings.ToUpper(word)]
	return ok
}

// phraseTails returns the possible continuations of a phrase starting with
// the upper-cased word head, longest first.
func (r *Rules) phraseTails(head string) [][]string {
	return r.phrases[head]
}

// WithBackslashEscapes returns a copy of r with backslash escaping switched.
func (r *Rules) WithBackslashEscapes(on bool) *Rules {
	c := *r
	c.BackslashEscapes = on
	return &c
}

func (r *Rules) isStringQuote(ch byte) bool {
	return strings.IndexByte(string(r.StringQuotes), ch) >= 0
}

func (r *Rules) identQuote(ch byte) (QuotePair, bool) {
	for _, q := range r.IdentQuotes {
		if q.Open == ch {
			return q, true
		}
	}
	return QuotePair{}, false
}

func (r *Rules) isIdentStart(ch byte) bool {
	return isIdentStart(ch) || ch >= 0x80 || (r.IdentStart != "" && strings.IndexByte(r.IdentStart, ch) >= 0)
}

func (r *Rules) isIdentCont(ch byte) bool {
	return isIdentCont(ch) || ch >= 0x80 || (r.IdentCont != "" && strings.IndexByte(r.IdentCont, ch) >= 0)
}

var ansiOperators = []string{"<>", "<=", ">=", "!=", "||", "=>", "**"}

// Dialect rule sets. The registry in internal/dialect picks one of these.

// StandardRules returns the ANSI rule set.
func StandardRules() *Rules {
	return NewRules("standard", commonKeywords, commonPhrases)
}

// OracleRules returns the Oracle rule set.
func OracleRules() *Rules {
	r := NewRules("oracle", append(commonKeywords, oracleKeywords...), append(commonPhrases, oraclePhrases...))
	r.AlternativeQuoting = true
	r.NationalStrings = true
	r.IdentCont = "$#"
	r.SetOperators(append(ansiOperators, ":=", "..", "@@")...)
	return r
}

// PostgresRules returns the PostgreSQL rule set.
func PostgresRules() *Rules {
	r := NewRules("postgres", append(commonKeywords, postgresKeywords...), append(commonPhrases, postgresPhrases...))
	r.NestedComments = true
	r.DollarQuotes = true
	r.EscapeStrings = true
	r.PositionalParams = true
	r.IdentCont = "$"
	r.SetOperators(append(ansiOperators, "::", ":=", "->>", "->", "#>>", "#>", "@>", "<@", "?|", "?&", "~~*", "!~~*", "~~", "!~~", "~*", "!~*", "&&", "<<", ">>", "..")...)
	return r
}

// MySQLRules returns the MySQL / MariaDB rule set.
func MySQLRules() *Rules {
	r := NewRules("mysql", append(commonKeywords, mysqlKeywords...), append(commonPhrases, mysqlPhrases...))
	r.StringQuotes = []byte{'\'', '"'}
	r.IdentQuotes = []QuotePair{{'`', '`'}}
	r.HashComments = true
	r.BackslashEscapes = true
	r.SetOperators(append(ansiOperators, ":=", "<=>", "->>", "->", "&&", "<<", ">>")...)
	return r
}

// SQLServerRules returns the Microsoft SQL Server rule set.
func SQLServerRules() *Rules {
	r := NewRules("sqlserver", append(commonKeywords, sqlServerKeywords...), append(commonPhrases, sqlServerPhrases...))
	r.IdentQuotes = []QuotePair{{'"', '"'}, {'[', ']'}}
	r.NationalStrings = true
	r.IdentStart = "@#"
	r.IdentCont = "@#$"
	r.SetOperators(append(ansiOperators, "!<", "!>", "+=", "-=", "*=", "/=", "::")...)
	return r
}

// FirebirdRules returns the Firebird rule set.
func FirebirdRules() *Rules {
	r := NewRules("firebird", append(commonKeywords, firebirdKeywords...), append(commonPhrases, firebirdPhrases...))
	r.IdentCont = "$"
	r.SetOperators(append(ansiOperators, "^=", "~=", "!<", "!>")...)
	return r
}
