// Command churnctl runs the churn pipeline offline against local files.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/liamcoop/churn/features"
	"github.com/liamcoop/churn/inference"
	"github.com/liamcoop/churn/tabular"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "churnctl:", err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	inputFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "CSV/TSV file with a header row, or a JSON array of records",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "delimiter",
			Usage: "field delimiter for delimited input",
			Value: ",",
		},
	}

	return &cli.App{
		Name:   "churnctl",
		Usage:  "validate, ingest and score churn records offline",
		Writer: out,
		// errors are reported by main so tests can inspect them
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "print the feature schema in encoding order",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print as JSON"},
				},
				Action: schemaAction,
			},
			{
				Name:   "ingest",
				Usage:  "clean a delimited file and print the surviving records as JSON",
				Flags:  inputFlags,
				Action: ingestAction,
			},
			{
				Name:   "validate",
				Usage:  "check every record and report each invalid one",
				Flags:  inputFlags,
				Action: validateAction,
			},
			{
				Name:  "score",
				Usage: "score every record as one batch",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "model",
						Aliases:  []string{"m"},
						Usage:    "path to the model artifact",
						EnvVars:  []string{"MODEL_PATH"},
						Required: true,
					},
				}, inputFlags...),
				Action: scoreAction,
			},
		},
	}
}

func schemaAction(c *cli.Context) error {
	out := c.App.Writer
	if c.Bool("json") {
		return writeJSON(out, features.Schema())
	}

	for i, f := range features.Schema() {
		line := fmt.Sprintf("%2d  %-18s %s", i, f.Name, f.Kind)
		if len(f.Categories) > 0 {
			labels := make([]string, len(f.Categories))
			for j, cat := range f.Categories {
				labels[j] = fmt.Sprintf("%s=%d", cat.Label, cat.Code)
			}
			line += "  " + strings.Join(labels, ", ")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func ingestAction(c *cli.Context) error {
	table, err := readTable(c)
	if err != nil {
		return err
	}

	records, err := tabular.Ingest(table)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, records)
}

func validateAction(c *cli.Context) error {
	records, err := readRecords(c)
	if err != nil {
		return err
	}

	invalid := 0
	for i, r := range records {
		err := features.Validate(r)
		if err == nil {
			_, err = features.Encode(r)
		}
		if err != nil {
			invalid++
			kind, _ := features.KindOf(err)
			fmt.Fprintf(c.App.Writer, "record %d: %s: %v\n", i, kind, err)
		}
	}

	if invalid > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d records invalid", invalid, len(records)), 1)
	}
	fmt.Fprintf(c.App.Writer, "%d records valid\n", len(records))
	return nil
}

func scoreAction(c *cli.Context) error {
	path := c.String("model")
	model, err := inference.LoadLogisticModel(path)
	if err != nil {
		return err
	}
	handle, err := inference.NewHandle(path, model)
	if err != nil {
		return err
	}
	engine, err := inference.NewEngine(handle, nil)
	if err != nil {
		return err
	}

	records, err := readRecords(c)
	if err != nil {
		return err
	}

	result, err := engine.ProcessFile(records)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, result)
}

// readRecords loads records from JSON or, for any other extension, from a
// delimited file passed through ingestion
func readRecords(c *cli.Context) ([]features.Record, error) {
	path := c.String("input")
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var records []features.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%s: expected a JSON array of records: %w", path, err)
		}
		return records, nil
	}

	table, err := readTable(c)
	if err != nil {
		return nil, err
	}
	return tabular.Ingest(table)
}

func readTable(c *cli.Context) (*tabular.Table, error) {
	path := c.String("input")
	delim := c.String("delimiter")
	if delim == `\t` {
		delim = "\t"
	}
	if utf8.RuneCountInString(delim) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}

	comma, _ := utf8.DecodeRuneInString(delim)
	if comma == ',' {
		return tabular.ReadCSVFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := tabular.ReadDelimited(f, comma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
