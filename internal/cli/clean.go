package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/txclean/internal/export"
	"github.com/JonMunkholm/txclean/internal/pipeline"
	"github.com/spf13/cobra"
)

type cleanOptions struct {
	outDir      string
	format      string
	noReport    bool
	databaseURL string
	table       string
}

func newCleanCommand(g *globals) *cobra.Command {
	opts := &cleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean FILE",
		Short: "Clean a transaction file",
		Long: `The clean command validates FILE, applies the configured remediation steps
and writes the result to <out>/generated/<name>_clean.<format> together with a
JSON report. With --database-url the cleaned rows are also copied into
PostgreSQL. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(export.FileCSV), "Cleaned file format: csv or xlsx")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "Skip writing the JSON report file")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "Also copy cleaned rows into this PostgreSQL database")
	cmd.Flags().StringVar(&opts.table, "table", "", "Sink table name (default from CLEAN_SINK_TABLE)")
	return cmd
}

func runClean(cmd *cobra.Command, g *globals, opts *cleanOptions, path string) error {
	format := export.FileFormat(strings.ToLower(opts.format))
	if format != export.FileCSV && format != export.FileXLSX {
		return fmt.Errorf("unknown format %q, want csv or xlsx", opts.format)
	}

	cfg, err := g.processConfig()
	if err != nil {
		return err
	}
	// File output is configured here, not from CLEAN_OUTPUT_DIR.
	cfg.Clean.OutputDir = ""
	if opts.databaseURL != "" {
		cfg.Database.URL = opts.databaseURL
	}
	if opts.table != "" {
		cfg.Clean.SinkTable = opts.table
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := g.logger(cmd)

	fileOpts := []export.FileOption{export.WithFormat(format)}
	if opts.noReport {
		fileOpts = append(fileOpts, export.WithoutReport())
	}
	files := export.NewFileExporter(opts.outDir, logger, fileOpts...)

	deps, err := pipeline.Setup(cmd.Context(), cfg, logger, pipeline.WithExporters(files))
	if err != nil {
		return err
	}
	defer deps.Close()

	src, closeSrc, err := openSource(cmd, path)
	if err != nil {
		return err
	}
	defer closeSrc()

	res, err := deps.Orchestrator.Run(cmd.Context(), src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printf(out, "run %s: %d rows in, %d rows out (%s)\n", res.RunID, res.RowsIn, res.RowsOut, res.Duration.Round(time.Millisecond))
	if res.Skipped {
		printf(out, "dataset is empty, nothing to clean\n")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tBEFORE\tAFTER\tREMOVED")
	for _, s := range res.Steps {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", s.Step, s.RowsBefore, s.RowsAfter, s.RowsRemoved())
	}
	tw.Flush()

	dataPath, reportPath := files.Paths(src.Name)
	printf(out, "wrote %s\n", dataPath)
	if !opts.noReport {
		printf(out, "wrote %s\n", reportPath)
	}
	return nil
}
