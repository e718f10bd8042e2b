package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reqsift/reqsift/internal/extract"
	"github.com/reqsift/reqsift/internal/filter"
	"github.com/reqsift/reqsift/internal/model"
	"github.com/reqsift/reqsift/internal/output"
	"github.com/reqsift/reqsift/internal/reader"
)

var (
	extractFormat  string
	extractWhere   string
	extractLenient bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <logfile> <output>",
	Short: "Summarize completed requests from a getData debug log",
	Long: `Read a getData debug log and write one summary row per completed
request. The default output is CSV with a fixed header; pass - as the
output path to write to stdout.

Examples:
  reqsift extract getdata.log summary.csv
  reqsift extract getdata.log - --format table
  reqsift extract getdata.log slow.csv --where 'seconds > 30'
  reqsift extract getdata.log summary.db --format sqlite`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "csv", "output format: csv, json, table, sqlite")
	extractCmd.Flags().StringVarP(&extractWhere, "where", "w", "", "only emit records matching this expression")
	extractCmd.Flags().BoolVar(&extractLenient, "lenient", false, "skip malformed marker lines instead of failing")
	_ = viper.BindPFlag("lenient", extractCmd.Flags().Lookup("lenient"))
	_ = viper.BindPFlag("format", extractCmd.Flags().Lookup("format"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	logPath, outPath := args[0], args[1]

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() // nolint

	var pred *filter.Filter
	if extractWhere != "" {
		pred, err = filter.Compile(extractWhere)
		if err != nil {
			return err
		}
	}

	in, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer in.Close()

	w, cleanup, err := newWriter(viper.GetString("format"), outPath)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []extract.Option{extract.WithLogger(log)}
	if viper.GetBool("lenient") {
		opts = append(opts, extract.WithLenient())
	}
	ex := extract.New(opts...)

	err = ex.Run(reader.New(in).Lines(), func(rec *model.Record) error {
		if pred != nil {
			ok, err := pred.Match(rec)
			if err != nil || !ok {
				return err
			}
		}
		return w.Write(rec)
	})
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	counts := ex.Counts()
	log.Infow("extraction complete",
		"lines", counts.Lines,
		"records", counts.Records,
		"skipped", counts.Skipped,
		"abandoned", counts.Abandoned,
	)
	return nil
}

// newWriter builds the output sink for the requested format. The returned
// cleanup closes the underlying file; the Writer's own Close still runs
// first on the success path.
func newWriter(format, path string) (output.Writer, func(), error) {
	if strings.ToLower(format) == "sqlite" {
		if path == "-" {
			return nil, nil, fmt.Errorf("sqlite output requires a file path")
		}
		w, err := output.NewSQLiteWriter(path)
		if err != nil {
			return nil, nil, err
		}
		return w, func() {}, nil
	}

	var dst io.Writer = os.Stdout
	cleanup := func() {}
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		dst = f
		cleanup = func() { f.Close() }
	}

	switch strings.ToLower(format) {
	case "csv":
		w, err := output.NewCSVWriter(dst)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return w, cleanup, nil
	case "json":
		return output.NewJSONWriter(dst), cleanup, nil
	case "table":
		return output.NewTableWriter(dst), cleanup, nil
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown output format %q", format)
	}
}
