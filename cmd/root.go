// Package cmd implements the command-line interface of the blocklist
// aggregator.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	infraconfig "github.com/Mohammedmarzuk17/EduShield/infrastructure/config"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/bootstrap"
	"github.com/Mohammedmarzuk17/EduShield/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = newRootCommand()
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "edushield",
		Short: "Aggregate public threat feeds into domain blocklists",
		Long: `edushield fetches phishing, malware and education-fraud feeds,
normalizes every entry to a bare domain, merges them into one snapshot and
splits the snapshot into one blocklist per source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		infraconfig.GetConfigPath("config.yml"),
		"config file (CONFIG_PATH overrides the default)",
	)
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newRunCommand(),
		newSplitCommand(),
		newScheduleCommand(),
		newVersionCommand(),
	)

	return root
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// setup loads the configuration and creates the logger every subcommand
// needs.
func setup() (*config.Config, logger.Logger, error) {
	cfg, err := bootstrap.LoadConfig(cfgFile, debug)
	if err != nil {
		return nil, nil, err
	}

	log, err := bootstrap.CreateLogger(cfg, Version)
	if err != nil {
		return nil, nil, err
	}

	log.Debug("Configuration loaded",
		logger.String("config", cfgFile),
		logger.Int("feeds", len(cfg.Feeds)),
		logger.Strings("catalog", cfg.Catalog),
	)

	return cfg, log, nil
}

func syncLogger(log logger.Logger) {
	// Syncing stderr returns EINVAL on some platforms.
	_ = log.Sync()
}
