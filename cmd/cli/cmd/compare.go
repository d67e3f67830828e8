// Package cmd - compare and recommend commands
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"agent-cost/core/compare"
	"agent-cost/core/output"
	"agent-cost/core/scenario"
	"agent-cost/internal/config"
)

var (
	compareVoiceOpts voiceFlags
	compareEmailOpts emailFlags
)

// compareCmd groups the comparison commands
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the cost of alternative configurations",
}

var compareVoiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Compare voice models and replica counts",
	Long: `Price the voice configuration once per realtime model and once per
replica option. The row matching the input is marked.

Examples:
  agent-cost compare voice --calls 200
  agent-cost compare voice --min-replicas 2 --format markdown`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := compareVoiceOpts.resolve()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		models, err := compare.VoiceModels(usage, cat)
		if err != nil {
			return err
		}
		replicas, err := compare.Replicas(usage, cat)
		if err != nil {
			return err
		}
		return render(cmd, &output.Result{Tables: []*compare.Table{models, replicas}})
	},
}

var compareEmailCmd = &cobra.Command{
	Use:   "email",
	Short: "Compare email models and polling intervals",
	Long: `Price the email configuration once per language model and once per
polling interval. The row matching the input is marked.

Examples:
  agent-cost compare email --emails 300
  agent-cost compare email --polling 1 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := compareEmailOpts.resolve()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		models, err := compare.EmailModels(usage, cat)
		if err != nil {
			return err
		}
		polling, err := compare.PollingIntervals(usage, cat)
		if err != nil {
			return err
		}
		return render(cmd, &output.Result{Tables: []*compare.Table{models, polling}})
	},
}

// recommendCmd lists cheaper configurations for a scenario
var recommendCmd = &cobra.Command{
	Use:   "recommend <scenario>",
	Short: "Suggest cheaper configurations for a scenario file",
	Long: `Evaluate the recommendation rules against a scenario file and list
the changes that save money.

Rule thresholds come from the "recommendations" section of the config file.

Examples:
  agent-cost recommend support.hcl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		recs, err := compare.Recommend(sc.Voice, sc.Email, cat, config.Get().Recommendations)
		if err != nil {
			return err
		}
		if len(recs) == 0 && config.Get().Output.DefaultFormat == string(output.FormatCLI) {
			fmt.Fprintln(cmd.OutOrStdout(), "No cheaper configuration found.")
			return nil
		}
		return render(cmd, &output.Result{Recommendations: recs})
	},
}

func init() {
	compareVoiceOpts.bind(compareVoiceCmd)
	compareEmailOpts.bind(compareEmailCmd)
	compareCmd.AddCommand(compareVoiceCmd, compareEmailCmd)

	rootCmd.AddCommand(compareCmd, recommendCmd)
}
