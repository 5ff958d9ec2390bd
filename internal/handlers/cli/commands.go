package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gabapcia/tally/internal/infra/source"
	"github.com/gabapcia/tally/internal/tally"

	"github.com/urfave/cli/v3"
)

// aggregateFunc is the shape shared by every tally.Service method.
type aggregateFunc[T any] func(ctx context.Context, req tally.Request, src io.Reader) (map[string]T, error)

// aggregateFlags are accepted by every aggregation command.
func aggregateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "Run name; snapshots are stored and resumed under it",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Input location: '-' for stdin, a file path or an http(s) URL",
			Value:   source.Stdin,
		},
		&cli.BoolFlag{
			Name:  "resume",
			Usage: "Start from the previously stored snapshot of this run",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the result as a JSON object",
		},
	}
}

// aggregateCommand builds a command that reads --input, aggregates it with fn
// and prints the result, one `key<TAB>value` line per key sorted by key.
func aggregateCommand[T any](name, usage string, in InputOpener, fn aggregateFunc[T], format func(T) string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: aggregateFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			req := tally.Request{
				Name:   c.String("name"),
				Resume: c.Bool("resume"),
			}

			src, err := in.Open(ctx, c.String("input"))
			if err != nil {
				return err
			}
			defer src.Close()

			result, err := fn(ctx, req, src)
			if err != nil {
				return err
			}

			out := c.Root().Writer
			if c.Bool("json") {
				return writeJSON(out, result)
			}

			return writeLines(out, result, format)
		},
	}
}

// countCommand returns the `count` command.
//
// Usage example:
//
//	tally count --name words --input words.txt
func countCommand(ts tally.Service, in InputOpener) *cli.Command {
	return aggregateCommand[int](
		"count",
		"Counts records per key.",
		in,
		ts.Count,
		strconv.Itoa,
	)
}

// groupCommand returns the `group` command.
//
// Usage example:
//
//	cat events.log | tally group --name users-by-country
func groupCommand(ts tally.Service, in InputOpener) *cli.Command {
	return aggregateCommand[[]string](
		"group",
		"Lists the distinct values of each key.",
		in,
		ts.Group,
		func(values []string) string { return strings.Join(values, ",") },
	)
}

// sumCommand returns the `sum` command.
//
// Usage example:
//
//	tally sum --name spend --input https://example.com/ledger.txt --resume
func sumCommand(ts tally.Service, in InputOpener) *cli.Command {
	return aggregateCommand[float64](
		"sum",
		"Sums the numeric value of each key.",
		in,
		ts.Sum,
		func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	)
}

// writeLines prints result sorted by key.
func writeLines[T any](w io.Writer, result map[string]T, format func(T) string) error {
	for _, key := range slices.Sorted(maps.Keys(result)) {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", key, format(result[key])); err != nil {
			return err
		}
	}

	return nil
}

// writeJSON prints result as a single JSON object.
func writeJSON(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(result)
}
