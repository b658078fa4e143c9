package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	urfavecli "github.com/urfave/cli/v3"

	"github.com/cybertec-postgresql/sqlscript/internal/cli"
)

const version = "1.0.0"

func main() {
	app := &urfavecli.Command{
		Name:      "sqlscript",
		Usage:     "Split SQL scripts into statements and run them",
		Version:   version,
		ArgsUsage: "[script.sql | -]",
		Commands: []*urfavecli.Command{
			{
				Name:      "split",
				Usage:     "List the statements of a script",
				ArgsUsage: "[script.sql | -]",
				Action:    splitCommand,
				Flags: append(cli.SplitFlags(),
					&urfavecli.BoolFlag{
						Name:  "strict",
						Usage: "Fail when a statement has an unterminated literal or comment",
					},
				),
			},
			{
				Name:      "count",
				Usage:     "Print the number of statements",
				ArgsUsage: "[script.sql | -]",
				Action:    countCommand,
				Flags:     cli.SplitFlags(),
			},
			{
				Name:      "at",
				Usage:     "Show the statement at a byte offset",
				ArgsUsage: "<script.sql | -> <offset>",
				Action:    atCommand,
				Flags:     cli.SplitFlags(),
			},
			{
				Name:      "tokens",
				Usage:     "Dump the tokens of a script",
				ArgsUsage: "[script.sql | -]",
				Action:    tokensCommand,
				Flags: append(cli.SplitFlags(),
					&urfavecli.BoolFlag{
						Name:  "all",
						Usage: "Include whitespace tokens",
					},
				),
			},
			{
				Name:      "exec",
				Usage:     "Run the statements of a script against a database",
				ArgsUsage: "[script.sql | -]",
				Action:    execCommand,
				Flags:     append(cli.SplitFlags(), cli.ExecFlags()...),
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig exits with code 2 on a configuration error
func loadConfig(cmd *urfavecli.Command) *cli.Config {
	config, err := cli.LoadConfig(cmd)
	if err != nil {
		usageFailure(err)
	}
	return config
}

// usageFailure reports a bad invocation and exits with code 2
func usageFailure(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(2)
}

func splitCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	return cli.Split(config, cmd.Args().First(), os.Stdout, cmd.Bool("strict"))
}

func countCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	return cli.Count(config, cmd.Args().First(), os.Stdout)
}

func atCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	path, offset, err := cli.ParseAtArgs(cmd.Args().Slice())
	if err != nil {
		usageFailure(err)
	}
	return cli.At(config, path, offset, os.Stdout)
}

func tokensCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	return cli.Tokens(config, cmd.Args().First(), cmd.Bool("all"), os.Stdout)
}

func execCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	exitCode, err := cli.Exec(ctx, config, cmd.Args().First(), cmd.Bool("scratch"), os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
