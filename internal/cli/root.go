// Package cli implements the txclean command line: clean and validate files
// without running the HTTP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/txclean/internal/config"
	"github.com/JonMunkholm/txclean/internal/ingest"
	"github.com/JonMunkholm/txclean/internal/logging"
	"github.com/spf13/cobra"
)

// stdinName names input read from "-".
const stdinName = "stdin.csv"

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the txclean command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "txclean",
		Short: "Validate and clean transaction CSV files",
		Long: `txclean validates transaction files for null, duplicate and type errors,
then remediates them: duplicate removal, type coercion, amount imputation,
null filling and date enrichment.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Pipeline config file (YAML); defaults apply when empty")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newCleanCommand(g))
	root.AddCommand(newValidateCommand(g))
	root.AddCommand(newConfigCommand(g))
	return root
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// logger writes to the command's stderr so stdout stays machine readable.
func (g *globals) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), g.logLevel, g.logFormat)
}

// processConfig loads the environment config with the pipeline file flag
// applied on top.
func (g *globals) processConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.configPath != "" {
		cfg.Clean.ConfigPath = g.configPath
	}
	return cfg, nil
}

// openSource opens path for reading; "-" is stdin.
func openSource(cmd *cobra.Command, path string) (ingest.Source, func(), error) {
	if path == "-" {
		return ingest.Source{Name: stdinName, Reader: cmd.InOrStdin()}, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return ingest.Source{}, nil, fmt.Errorf("open input: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return ingest.Source{}, nil, fmt.Errorf("stat input: %w", err)
	}
	return ingest.Source{Name: path, Reader: f, Size: info.Size()}, func() { f.Close() }, nil
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
