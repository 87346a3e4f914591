package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohammedmarzuk17/EduShield/internal/bootstrap"
)

func newRunCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch every feed once and publish the blocklists",
		Long: `Fetch every configured feed and the uploads folder, merge the
results into blocklist.json and write one artifact per source plus a
manifest under blocklists/. Feeds that fail are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			p, err := bootstrap.NewPipeline(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			report, err := p.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides output_dir)")

	return cmd
}
