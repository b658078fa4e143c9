package cli

import (
	"time"

	urfavecli "github.com/urfave/cli/v3"

	"github.com/cybertec-postgresql/sqlscript/internal/config"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// Config is an alias for the shared Config type
type Config = types.Config

// SplitFlags are accepted by every command that reads a script
func SplitFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:  "config",
			Usage: "Config file (default: sqlscript.yaml when present)",
		},
		&urfavecli.StringFlag{
			Name:    "dialect",
			Aliases: []string{"d"},
			Usage:   "SQL dialect: standard, oracle, postgres, mysql, sqlserver, firebird (or a JDBC URL)",
		},
		&urfavecli.StringFlag{
			Name:  "delimiter",
			Usage: "Default delimiter; append ;sl to require it on a line of its own",
		},
		&urfavecli.StringFlag{
			Name:  "alternate-delimiter",
			Usage: "Alternate delimiter, e.g. / for PL/SQL blocks or GO",
		},
		&urfavecli.BoolFlag{
			Name:  "empty-line",
			Usage: "Treat an empty line as a statement delimiter",
		},
		&urfavecli.BoolFlag{
			Name:  "leading-whitespace",
			Usage: "Keep whitespace and comments before a statement in its text",
		},
		&urfavecli.BoolFlag{
			Name:  "escaped-quotes",
			Usage: "Honor backslash escapes inside string literals",
		},
		&urfavecli.BoolFlag{
			Name:  "dynamic-delimiter",
			Usage: "Honor DELIMITER and SET TERM directives",
		},
		&urfavecli.Int64Flag{
			Name:  "max-in-memory",
			Usage: "Scripts larger than this many bytes are streamed",
		},
		&urfavecli.StringFlag{
			Name:  "encoding",
			Usage: "Script encoding, e.g. windows-1252 (default UTF-8)",
		},
		&urfavecli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: auto, table, plain or json",
		},
		&urfavecli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug output",
		},
	}
}

// ExecFlags are accepted by the exec command in addition to SplitFlags
func ExecFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "dsn",
			Aliases: []string{"c"},
			Usage:   "Connection string (PostgreSQL URI or key=value, or a MySQL DSN)",
		},
		&urfavecli.StringFlag{
			Name:  "driver",
			Usage: "Database driver: postgres or mysql",
		},
		&urfavecli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-statement timeout (0 = none)",
		},
		&urfavecli.BoolFlag{
			Name:  "continue-on-error",
			Usage: "Keep going after a failed statement",
		},
		&urfavecli.BoolFlag{
			Name:  "scratch",
			Usage: "PostgreSQL only: run in a throwaway database that is dropped afterwards",
		},
	}
}

// flagSource is the part of *urfavecli.Command that ApplyFlags reads.
type flagSource interface {
	IsSet(name string) bool
	String(name string) string
	Bool(name string) bool
	Int64(name string) int64
	Duration(name string) time.Duration
}

// ApplyFlags copies explicitly set command-line flags over c
func ApplyFlags(c *Config, cmd flagSource) {
	setString := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if cmd.IsSet(name) {
			*dst = cmd.Bool(name)
		}
	}
	setBoolPtr := func(name string, dst **bool) {
		if cmd.IsSet(name) {
			v := cmd.Bool(name)
			*dst = &v
		}
	}

	setString("dialect", &c.Dialect)
	setString("delimiter", &c.Delimiter)
	setString("alternate-delimiter", &c.AlternateDelimiter)
	setBool("empty-line", &c.EmptyLineIsDelimiter)
	setBool("leading-whitespace", &c.LeadingWhitespace)
	setBoolPtr("escaped-quotes", &c.CheckEscapedQuotes)
	setBoolPtr("dynamic-delimiter", &c.DynamicDelimiter)
	if cmd.IsSet("max-in-memory") {
		c.MaxInMemorySize = cmd.Int64("max-in-memory")
	}
	setString("encoding", &c.Encoding)
	setString("output", &c.Output)
	setBool("verbose", &c.Verbose)

	setString("dsn", &c.DSN)
	setString("driver", &c.Driver)
	if cmd.IsSet("timeout") {
		c.Timeout = cmd.Duration("timeout")
	}
	setBool("continue-on-error", &c.ContinueOnError)
}

// LoadConfig layers defaults, config file, environment and flags, then
// validates the result and sets the log level.
func LoadConfig(cmd *urfavecli.Command) (*Config, error) {
	cfg, err := config.Load(cmd.String("config"), ".env")
	if err != nil {
		return nil, err
	}
	ApplyFlags(cfg, cmd)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	logger.SetVerbose(cfg.Verbose)
	return cfg, nil
}
