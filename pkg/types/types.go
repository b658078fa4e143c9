package types

import "time"

// Config holds runtime configuration combining the config file, environment
// variables, flags and defaults
type Config struct {
	// Splitting
	Dialect              string `koanf:"dialect"`
	Delimiter            string `koanf:"delimiter"`           // e.g. ";" or "/;sl"
	AlternateDelimiter   string `koanf:"alternate_delimiter"` // empty: dialect default
	EmptyLineIsDelimiter bool   `koanf:"empty_line_delimiter"`
	LeadingWhitespace    bool   `koanf:"leading_whitespace"`
	CheckEscapedQuotes   *bool  `koanf:"escaped_quotes"`    // nil: dialect default
	DynamicDelimiter     *bool  `koanf:"dynamic_delimiter"` // nil: dialect default
	MaxInMemorySize      int64  `koanf:"max_in_memory_size"`
	Encoding             string `koanf:"encoding"`

	// Execution
	Driver          string        `koanf:"driver"` // postgres or mysql
	DSN             string        `koanf:"dsn"`
	Timeout         time.Duration `koanf:"timeout"` // per statement, 0 = none
	ContinueOnError bool          `koanf:"continue_on_error"`

	// Output
	Output  string `koanf:"output"` // auto, table, plain or json
	Verbose bool   `koanf:"verbose"`
}

// StatementInfo is the reported view of one statement
type StatementInfo struct {
	Index     int    `json:"index"`
	Line      int    `json:"line"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Delimiter string `json:"delimiter,omitempty"`
	// DelimiterOwnLine is set for delimiters like GO or / that must stand
	// alone on a line
	DelimiterOwnLine bool   `json:"delimiter_own_line,omitempty"`
	Text             string `json:"text"`
	LexicalError     string `json:"lexical_error,omitempty"`
}

// ExecStatus is the outcome of one executed statement
type ExecStatus string

const (
	StatusOK      ExecStatus = "ok"
	StatusFailed  ExecStatus = "failed"
	StatusSkipped ExecStatus = "skipped"
)

// ExecResult is the outcome of running one statement
type ExecResult struct {
	Index        int           `json:"index"`
	Line         int           `json:"line"`
	Status       ExecStatus    `json:"status"`
	RowsAffected int64         `json:"rows_affected"`
	Duration     time.Duration `json:"duration_ns"`
	Error        string        `json:"error,omitempty"`
}

// ExecSummary is the outcome of running a script
type ExecSummary struct {
	Results  []ExecResult  `json:"results"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
	// Stopped is set when the run ended before the last statement
	Stopped bool `json:"stopped"`
}

// TokenInfo is the reported view of one lexical token
type TokenInfo struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Pos  int    `json:"pos"`
	End  int    `json:"end"`
	Line int    `json:"line"`
}
