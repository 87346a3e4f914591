package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Mohammedmarzuk17/EduShield/internal/bootstrap"
	"github.com/Mohammedmarzuk17/EduShield/internal/output"
)

func newSplitCommand() *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Re-split an existing snapshot into per-source blocklists",
		Long: `Read a blocklist.json snapshot, which may have been edited by hand,
and rewrite the per-source artifacts and manifest from it. No feed is
fetched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			if snapshotPath == "" {
				snapshotPath = filepath.Join(cfg.OutputDir, output.SnapshotFile)
			}

			p, err := bootstrap.NewPipeline(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			report, err := p.Split(cmd.Context(), snapshotPath)
			if err != nil {
				return fmt.Errorf("split %s: %w", snapshotPath, err)
			}

			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot to split (default <output_dir>/blocklist.json)")

	return cmd
}
