package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentryscreen/sentryscreen/configs"
	"github.com/sentryscreen/sentryscreen/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sentryscreen configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "sentryscreen.yml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  `Load the config file plus environment overrides and print the result.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("index_name:        %s\n", cfg.Prefix)
			fmt.Printf("index_version:     %s\n", cfg.SoftwarePrefix)
			fmt.Printf("index_type:        %s\n", cfg.IndexType)
			fmt.Printf("data_dir:          %s\n", orMemory(cfg.DataDir))
			fmt.Printf("manifest:          %s\n", cfg.Manifest)
			fmt.Printf("auto_reindex:      %t\n", cfg.AutoReindex)
			fmt.Printf("delta_updates:     %t\n", cfg.DeltaUpdates)
			fmt.Printf("match_fuzzy:       %t\n", cfg.MatchFuzzy)
			fmt.Printf("max_matches:       %d\n", cfg.MaxMatches)
			fmt.Printf("max_batch:         %d\n", cfg.MaxBatch)
			fmt.Printf("score_threshold:   %.2f\n", cfg.ScoreThreshold)
			fmt.Printf("score_cutoff:      %.2f\n", cfg.ScoreCutoff)
			fmt.Printf("query_concurrency: %d\n", cfg.QueryConcurrency)
			fmt.Printf("port:              %d\n", cfg.Port)
			return nil
		},
	}
}

func orMemory(dir string) string {
	if dir == "" {
		return "(in-memory)"
	}
	return dir
}
