// Package cmd provides the CLI commands for agent-cost.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"agent-cost/core/catalog"
	"agent-cost/core/engine"
	"agent-cost/core/output"
	"agent-cost/internal/config"
	"agent-cost/internal/logging"
)

// Version is set at build time with -ldflags "-X agent-cost/cmd/cli/cmd.Version=..."
var Version = "dev"

var (
	cfgFile     string
	catalogPath string
	format      string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agent-cost",
	Short: "Estimate monthly costs of AI voice and email agents",
	Long: `agent-cost prices AI voice and email agents against a pricing catalog.

It breaks the monthly cost down per component, compares models, replica
counts and polling intervals, and suggests cheaper configurations.

Examples:
  agent-cost voice --minutes 5 --calls 50
  agent-cost email --emails 80 --polling 10 --format json
  agent-cost compare voice --min-replicas 2
  agent-cost estimate support.hcl --export estimate.json`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.agent-cost.json)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "pricing catalog file, JSON or YAML (default is the built-in catalog)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "output format (cli, json, markdown)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if format != "" {
		cfg.Output.DefaultFormat = strings.ToLower(format)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	config.Set(cfg)
	return nil
}

// newEstimator builds an estimator over the configured catalog
func newEstimator() *engine.Estimator {
	cfg := config.Get()
	source := catalog.SourceFor(cfg.Catalog.Path)
	cache := catalog.NewCache(source, cfg.Catalog.CacheTTL())
	return engine.NewEstimator(cache)
}

// loadCatalog returns the configured catalog
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return newEstimator().Catalog(ctx)
}

// render writes result in the configured output format
func render(cmd *cobra.Command, result *output.Result) error {
	cfg := config.Get()
	f, err := output.Get(output.Format(cfg.Output.DefaultFormat))
	if err != nil {
		return err
	}
	result.Details = cfg.Output.ShowDetails
	return f.Render(cmd.OutOrStdout(), result)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "agent-cost version %s\n", Version)
	},
}
