package lexer

// Keyword tables. They only drive token classification; none of the
// splitting decisions depends on a word being listed here, the delimiter
// policies match words with Token.IsWord.

var commonKeywords = []string{
	"ALL", "ALTER", "AND", "ANY", "AS", "ASC", "BEGIN", "BETWEEN", "BY",
	"CASE", "CAST", "CHECK", "COLUMN", "COMMIT", "CONSTRAINT", "CREATE",
	"CROSS", "DECLARE", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP",
	"ELSE", "END", "EXCEPT", "EXISTS", "FETCH", "FOR", "FOREIGN", "FROM",
	"FULL", "FUNCTION", "GRANT", "GROUP", "HAVING", "IF", "IN", "INDEX",
	"INNER", "INSERT", "INTERSECT", "INTO", "IS", "JOIN", "KEY", "LEFT",
	"LIKE", "MERGE", "NOT", "NULL", "OF", "ON", "OR", "ORDER", "OUTER",
	"PARTITION", "PRIMARY", "PROCEDURE", "REFERENCES", "REPLACE", "REVOKE",
	"RIGHT", "ROLLBACK", "SELECT", "SET", "TABLE", "THEN", "TO", "TRIGGER",
	"TRUNCATE", "UNION", "UNIQUE", "UPDATE", "USING", "VALUES", "VIEW",
	"WHEN", "WHERE", "WITH",
}

var commonPhrases = []string{
	"CREATE OR REPLACE",
	"GROUP BY",
	"ORDER BY",
	"PARTITION BY",
	"LEFT JOIN",
	"LEFT OUTER JOIN",
	"RIGHT JOIN",
	"RIGHT OUTER JOIN",
	"FULL JOIN",
	"FULL OUTER JOIN",
	"INNER JOIN",
	"CROSS JOIN",
	"UNION ALL",
	"PRIMARY KEY",
	"FOREIGN KEY",
	"IS NOT NULL",
	"NOT NULL",
}

var oracleKeywords = []string{
	"BODY", "CONNECT", "EDITIONABLE", "EXCEPTION", "LOOP", "MINUS",
	"NONEDITIONABLE", "PACKAGE", "PRIOR", "ROWNUM", "START", "SYNONYM",
	"TYPE",
}

var oraclePhrases = []string{
	"PACKAGE BODY",
	"TYPE BODY",
	"CONNECT BY",
	"START WITH",
}

var postgresKeywords = []string{
	"ATOMIC", "DO", "ILIKE", "LANGUAGE", "LIMIT", "OFFSET", "RETURNING",
	"RETURNS",
}

var postgresPhrases = []string{
	"BEGIN ATOMIC",
	"ON CONFLICT",
}

var mysqlKeywords = []string{
	"AUTO_INCREMENT", "DATABASE", "ENGINE", "LIMIT", "SCHEMA", "SHOW", "USE",
}

var mysqlPhrases = []string{
	"ON DUPLICATE KEY UPDATE",
}

var sqlServerKeywords = []string{
	"EXEC", "EXECUTE", "GO", "IDENTITY", "NOCOUNT", "PRINT", "TOP", "TRAN",
	"TRANSACTION",
}

var sqlServerPhrases = []string{
	"CREATE OR ALTER",
	"BEGIN TRAN",
	"BEGIN TRANSACTION",
}

var firebirdKeywords = []string{
	"BLOCK", "EXECUTE", "FIRST", "GENERATOR", "ROWS", "RETURNING", "SKIP",
	"SUSPEND", "TERM",
}

var firebirdPhrases = []string{
	"SET TERM",
	"EXECUTE BLOCK",
	"RECREATE TABLE",
}
