package cli

import (
	"context"
	"io"
	"os"

	"github.com/gabapcia/tally/internal/tally"

	"github.com/urfave/cli/v3"
)

// InputOpener resolves an --input location into a readable stream.
type InputOpener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Run initializes and executes the tally CLI application.
//
// It registers all available commands:
//
//   - `count`: Number of records per key.
//   - `group`: Distinct values per key.
//   - `sum`:   Sum of numeric values per key.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - ts: The tally service used by every command.
//   - in: Resolves the --input flag into a stream.
func Run(ctx context.Context, ts tally.Service, in InputOpener) error {
	return run(ctx, ts, in, os.Args, os.Stdout)
}

// run builds the application writing results to out and executes it with args.
func run(ctx context.Context, ts tally.Service, in InputOpener, args []string, out io.Writer) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "tally",
		Description:           "Counts, groups and sums line-oriented `key value` records.",
		Usage:                 "tally [command] [flags]",
		Writer:                out,
		Commands: []*cli.Command{
			countCommand(ts, in),
			groupCommand(ts, in),
			sumCommand(ts, in),
		},
	}

	return app.Run(ctx, args)
}
