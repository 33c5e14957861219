package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonMunkholm/txclean/internal/config"
	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/JonMunkholm/txclean/internal/pipeline"
	"github.com/spf13/cobra"
)

// ErrFindings is returned by validate --strict when the report is not empty.
var ErrFindings = errors.New("validation found errors")

type validateOptions struct {
	jsonOut bool
	strict  bool
}

func newValidateCommand(g *globals) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Report null, duplicate and type errors without cleaning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any error is found")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globals, opts *validateOptions, path string) error {
	cfg, err := g.processConfig()
	if err != nil {
		return err
	}
	cleanCfg, err := config.LoadPipeline(cfg.Clean.ConfigPath)
	if err != nil {
		return err
	}

	orch, err := pipeline.New(cleanCfg, g.logger(cmd))
	if err != nil {
		return err
	}

	src, closeSrc, err := openSource(cmd, path)
	if err != nil {
		return err
	}
	defer closeSrc()

	res, err := orch.Validate(cmd.Context(), src)
	if err != nil {
		return err
	}

	summary := core.Summarize(res.Report)
	out := cmd.OutOrStdout()

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printReport(cmd, res.Source, res.RowsIn, res.Report)
	}

	if opts.strict && len(res.Report) > 0 {
		return ErrFindings
	}
	return nil
}

func printReport(cmd *cobra.Command, source string, rows int, report core.ErrorReport) {
	out := cmd.OutOrStdout()
	printf(out, "%s: %d rows\n", source, rows)

	if report.IsEmptyDataset() {
		printf(out, "dataset is empty\n")
		return
	}
	if len(report) == 0 {
		printf(out, "no errors found\n")
		return
	}
	for _, col := range report.Columns() {
		printf(out, "  %s: %v\n", col, report[col])
	}
}
