package cli

import (
	"github.com/JonMunkholm/txclean/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective pipeline config as YAML",
		Long: `The config command prints the pipeline config with every setting spelled
out. Its output is a valid --config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.processConfig()
			if err != nil {
				return err
			}
			cleanCfg, err := config.LoadPipeline(cfg.Clean.ConfigPath)
			if err != nil {
				return err
			}
			return config.WritePipeline(cmd.OutOrStdout(), cleanCfg)
		},
	}
}
