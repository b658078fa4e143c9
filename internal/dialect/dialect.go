// Package dialect maps database identifiers to the lexical rules and the
// delimiter policy used to split their scripts.
package dialect

import (
	"fmt"
	"strings"

	"github.com/cybertec-postgresql/sqlscript/internal/delimiter"
	"github.com/cybertec-postgresql/sqlscript/internal/lexer"
)

// Dialect selects a rule set and a delimiter policy.
type Dialect int

const (
	Standard Dialect = iota
	Oracle
	Postgres
	MySQL
	SQLServer
	Firebird
)

var dialectNames = map[Dialect]string{
	Standard:  "standard",
	Oracle:    "oracle",
	Postgres:  "postgres",
	MySQL:     "mysql",
	SQLServer: "sqlserver",
	Firebird:  "firebird",
}

// String returns the canonical dialect name.
func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return "unknown"
}

// All returns every dialect in declaration order.
func All() []Dialect {
	return []Dialect{Standard, Oracle, Postgres, MySQL, SQLServer, Firebird}
}

// Parse resolves a canonical dialect name. Unlike FromDBID it rejects
// unknown names.
func Parse(name string) (Dialect, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d, s := range dialectNames {
		if s == n {
			return d, nil
		}
	}
	if d, ok := aliases[n]; ok {
		return d, nil
	}
	return Standard, fmt.Errorf("unknown dialect %q", name)
}

// aliases maps driver names, product names and JDBC sub-protocols to the
// dialect that splits their scripts.
var aliases = map[string]Dialect{
	"ansi":        Standard,
	"sql":         Standard,
	"generic":     Standard,
	"h2":          Standard,
	"hsqldb":      Standard,
	"sqlite":      Standard,
	"sqlite3":     Standard,
	"derby":       Standard,
	"oracle":      Oracle,
	"ora":         Oracle,
	"oci8":        Oracle,
	"godror":      Oracle,
	"postgres":    Postgres,
	"postgresql":  Postgres,
	"pgx":         Postgres,
	"pg":          Postgres,
	"redshift":    Postgres,
	"greenplum":   Postgres,
	"cockroachdb": Postgres,
	"mysql":       MySQL,
	"mariadb":     MySQL,
	"tidb":        MySQL,
	"sqlserver":   SQLServer,
	"mssql":       SQLServer,
	"jtds":        SQLServer,
	"azuresql":    SQLServer,
	"firebird":    Firebird,
	"firebirdsql": Firebird,
	"interbase":   Firebird,
}

// FromDBID resolves a database identifier to a dialect. It accepts
// canonical names, driver names, product names such as "Microsoft SQL
// Server" or "PostgreSQL 16.2", and JDBC URLs such as "jdbc:mysql://host".
// Anything unknown splits as Standard.
func FromDBID(id string) Dialect {
	n := strings.ToLower(strings.TrimSpace(id))
	n = strings.TrimPrefix(n, "jdbc:")
	if i := strings.IndexAny(n, ":/@"); i >= 0 {
		n = n[:i]
	}
	if d, ok := aliases[n]; ok {
		return d
	}
	switch {
	case strings.Contains(n, "sql server"):
		return SQLServer
	case strings.HasPrefix(n, "postgres"):
		return Postgres
	}
	if f := strings.Fields(n); len(f) > 0 {
		if d, ok := aliases[f[0]]; ok {
			return d
		}
	}
	return Standard
}

// PolicyFunc creates the delimiter policy for one splitting session.
type PolicyFunc func(def, alt delimiter.Delimiter) delimiter.Policy

// Spec describes how scripts of one dialect are split.
type Spec struct {
	Dialect Dialect
	Rules   *lexer.Rules

	// NewPolicy is nil when the dialect uses a fixed delimiter.
	NewPolicy PolicyFunc

	// DynamicDelimiter is true when scripts may redefine the delimiter.
	DynamicDelimiter bool

	DefaultDelimiter delimiter.Delimiter
	DefaultAlternate delimiter.Delimiter
}

// Lookup returns the splitting spec of d. Unknown values get Standard.
func Lookup(d Dialect) Spec {
	switch d {
	case Oracle:
		return Spec{
			Dialect:          Oracle,
			Rules:            lexer.OracleRules(),
			NewPolicy:        func(def, alt delimiter.Delimiter) delimiter.Policy { return delimiter.NewOracle(def, alt) },
			DefaultDelimiter: delimiter.Standard,
			DefaultAlternate: delimiter.Oracle,
		}
	case Postgres:
		return Spec{
			Dialect:          Postgres,
			Rules:            lexer.PostgresRules(),
			NewPolicy:        func(def, alt delimiter.Delimiter) delimiter.Policy { return delimiter.NewPostgres(def, alt) },
			DefaultDelimiter: delimiter.Standard,
		}
	case MySQL:
		return Spec{
			Dialect:          MySQL,
			Rules:            lexer.MySQLRules(),
			NewPolicy:        Dynamic,
			DynamicDelimiter: true,
			DefaultDelimiter: delimiter.Standard,
		}
	case Firebird:
		return Spec{
			Dialect:          Firebird,
			Rules:            lexer.FirebirdRules(),
			NewPolicy:        Dynamic,
			DynamicDelimiter: true,
			DefaultDelimiter: delimiter.Standard,
		}
	case SQLServer:
		return Spec{
			Dialect:          SQLServer,
			Rules:            lexer.SQLServerRules(),
			DefaultDelimiter: delimiter.Standard,
			DefaultAlternate: delimiter.MSSQL,
		}
	default:
		return Spec{
			Dialect:          Standard,
			Rules:            lexer.StandardRules(),
			NewPolicy:        func(def, alt delimiter.Delimiter) delimiter.Policy { return delimiter.NewStandard(def, alt) },
			DefaultDelimiter: delimiter.Standard,
		}
	}
}

// Dynamic is the PolicyFunc of the redefinable-delimiter policy. It is also
// used for other dialects when dynamic delimiters are switched on.
func Dynamic(def, alt delimiter.Delimiter) delimiter.Policy {
	return delimiter.NewDynamic(def, alt)
}
