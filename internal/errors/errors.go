package errors

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by index based helpers for an index outside the
// script.
var ErrNotFound = errors.New("statement not found")

// ConfigError represents an unusable script source or configuration
type ConfigError struct {
	Source  string // file, config key or flag
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError
func NewConfigError(source, message string, err error) *ConfigError {
	return &ConfigError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// LexicalError reports a statement that contains an unterminated literal,
// quoted identifier or comment
type LexicalError struct {
	File    string
	Index   int // statement index
	Offset  int // byte offset of the error token
	Line    int
	Message string
}

func (e *LexicalError) Error() string {
	file := e.File
	if file == "" {
		file = "<script>"
	}
	return fmt.Sprintf("%s:%d: statement %d: %s", file, e.Line, e.Index+1, e.Message)
}

// NewLexicalError creates a new LexicalError
func NewLexicalError(file string, index, offset, line int, message string) *LexicalError {
	return &LexicalError{
		File:    file,
		Index:   index,
		Offset:  offset,
		Line:    line,
		Message: message,
	}
}

// ConnectionError represents a database connection failure
type ConnectionError struct {
	Driver  string
	Target  string // host:port or DSN without credentials
	Message string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s (%s): %s", e.Target, e.Driver, e.Message)
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(driver, target, message string) *ConnectionError {
	return &ConnectionError{
		Driver:  driver,
		Target:  target,
		Message: message,
	}
}

// ExecutionError represents a statement rejected by the database
type ExecutionError struct {
	Index int
	Line  int
	Err   error
}

func (e *ExecutionError) Error() string {
	if code, msg, ok := SQLState(e.Err); ok {
		return fmt.Sprintf("statement %d (line %d) failed: [%s] %s", e.Index+1, e.Line, code, msg)
	}
	return fmt.Sprintf("statement %d (line %d) failed: %v", e.Index+1, e.Line, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError creates a new ExecutionError
func NewExecutionError(index, line int, err error) *ExecutionError {
	return &ExecutionError{
		Index: index,
		Line:  line,
		Err:   err,
	}
}

// SQLState extracts the server error code and message from a PostgreSQL or
// MySQL driver error.
func SQLState(err error) (code, message string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.Message, true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Sprintf("%d", myErr.Number), myErr.Message, true
	}
	return "", "", false
}
