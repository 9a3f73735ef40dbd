package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/motionwin/core"
	"github.com/huangsam/motionwin/internal/arff"
	"github.com/huangsam/motionwin/internal/feed"
	"github.com/huangsam/motionwin/internal/outwriter"
	"github.com/huangsam/motionwin/schema"
)

// newPipeline wires the pipeline to the global logger, metrics and store.
func newPipeline() *feed.Pipeline {
	opts := []feed.PipelineOption{feed.WithLogger(logger), feed.WithMetrics(collectors)}
	if store := activeStore(); store != nil {
		opts = append(opts, feed.WithStore(store))
	}
	return feed.NewPipeline(cfg, opts...)
}

// openSource opens the positional source named in the config.
func openSource() (feed.Source, error) {
	return feed.Open(cfg.Source, cfg.Follow, arff.Loader{})
}

// loadCollection reads the whole source into a collection without analyzing it.
func loadCollection(ctx context.Context) (*core.Collection, error) {
	src, err := openSource()
	if err != nil {
		return nil, err
	}
	quiet := cfg.Clone()
	quiet.Analyzer = schema.NoAnalyzer
	quiet.ExportSchedule = ""
	res, err := feed.NewPipeline(quiet, feed.WithLogger(logger), feed.WithMetrics(collectors)).Ingest(ctx, src)
	if err != nil {
		return nil, err
	}
	return res.Collection, nil
}

// parseWhere turns "name=value,..." into filter names and typed values.
func parseWhere(s schema.Schema, where string) ([]string, []schema.Value, error) {
	var names []string
	var values []schema.Value
	for part := range strings.SplitSeq(where, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid filter '%s', expected 'name=value'", part)
		}
		name = strings.TrimSpace(name)
		i, found := s.Index(name)
		if !found {
			return nil, nil, fmt.Errorf("%w: %s", schema.ErrUnknownAttribute, name)
		}
		v, err := schema.ParseValue(s.At(i).Type, strings.TrimSpace(raw))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid filter value for %s: %w", name, err)
		}
		names = append(names, name)
		values = append(values, v)
	}
	return names, values, nil
}

// ingestCmd feeds a source record by record and labels every triggered window.
var ingestCmd = &cobra.Command{
	Use:   "ingest <source>",
	Short: "Feed records one by one and label every triggered window",
	Long: `Replay a CSV or ARFF source record by record. Every time the buffer reaches a
multiple of the window overlap (and holds at least one full window), the latest
window is labeled by the analyzer.

CSV headers declare the schema as 'name:type' cells (int, real or string).
With --follow, a CSV file is tailed until interrupted.

Examples:
  # Label a recorded session
  motionwin ingest session.csv --window-size 50 --window-overlap 25

  # Follow a live capture and snapshot the buffer every minute
  motionwin ingest live.csv --follow --export-schedule "* * * * *" --output-file live.arff`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		src, err := openSource()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := newPipeline().Ingest(ctx, src)
		if err != nil {
			return err
		}
		if res.Failures > 0 {
			logger.Warnw("some windows could not be analyzed", "failures", res.Failures)
		}
		out := cfg
		if cfg.ExportSchedule != "" {
			// The output file already holds the buffer snapshot.
			out = cfg.Clone()
			out.OutputFile = ""
		}
		return outwriter.NewOutWriter().WriteAnalyses(res.Analyses, out, res.Duration)
	},
}

// analyzeCmd loads a source and analyzes it in bulk.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <source>",
	Short: "Load a whole source and label every bulk window",
	Long: `Load a CSV or ARFF source, then label every window of the buffer at once
using the configured bulk mode and worker count.

Bulk modes:
  literal - window i covers [i*size, (i+1)*size) while that end stays below the record count
  sliding - windows of size records every overlap records

Examples:
  motionwin analyze session.arff --bulk-mode sliding --workers 8
  motionwin analyze session.csv --output json --output-file labels.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		src, err := openSource()
		if err != nil {
			return err
		}
		res, err := newPipeline().Analyze(rootCtx, src)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteAnalyses(res.Analyses, cfg, res.Duration)
	},
}

// showCmd prints the buffered records of a source.
var showCmd = &cobra.Command{
	Use:   "show <source>",
	Short: "Print the typed records of a source",
	Long: `Load a source and print its records after type coercion.

Use --where to keep records whose attributes equal the given values.

Examples:
  motionwin show session.csv --where athlete=A1,session=S2
  motionwin show session.arff --output parquet --output-file records.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := loadCollection(rootCtx)
		if err != nil {
			return err
		}
		table := c.Table()
		if where := viper.GetString("where"); where != "" {
			names, values, err := parseWhere(c.Schema(), where)
			if err != nil {
				return err
			}
			if table.Rows, err = c.Filter(names, values); err != nil {
				return err
			}
		}
		return outwriter.NewOutWriter().WriteRecords(table, cfg)
	},
}

// summaryCmd describes a source once loaded.
var summaryCmd = &cobra.Command{
	Use:   "summary <source>",
	Short: "Describe the schema, size and window geometry of a source",
	Args:  cobra.ExactArgs(1),
	Long: `Load a source and print its relation, attributes, record count and the
window geometry it would be analyzed with.

Examples:
  motionwin summary session.csv --window-size 100 --window-overlap 50`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := loadCollection(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteSummary(c.Summary(), cfg)
	},
}

// exportCmd converts a source into the ARFF export format.
var exportCmd = &cobra.Command{
	Use:   "export <source> <destination>",
	Short: "Write a source to an ARFF file",
	Long: `Load a source and write its records to destination in the ARFF format.
The destination is truncated unless --append is set.

Examples:
  motionwin export session.csv session.arff
  motionwin export extra.csv all.arff --append`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCollection(rootCtx)
		if err != nil {
			return err
		}
		if err := c.Export(args[1], viper.GetBool("append")); err != nil {
			return err
		}
		cmd.PrintErrf("💾 Exported %d records of %s to %s\n", c.Len(), c.Name(), args[1])
		return nil
	},
}
