// Package cmd - estimate commands
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/core/output"
	"agent-cost/core/scenario"
	"agent-cost/core/types"
	"agent-cost/internal/config"
	"agent-cost/internal/logging"
)

// voiceFlags binds the voice usage fields to a command's flags
type voiceFlags struct {
	usage types.VoiceUsage
	model string
}

func (f *voiceFlags) bind(cmd *cobra.Command) {
	f.usage = types.DefaultVoiceUsage()
	fs := cmd.Flags()
	fs.Float64Var(&f.usage.MinutesPerCall, "minutes", f.usage.MinutesPerCall, "average minutes per call")
	fs.IntVar(&f.usage.CallsPerDay, "calls", f.usage.CallsPerDay, "calls per day")
	fs.StringVarP(&f.model, "model", "m", string(f.usage.Model), "realtime model")
	fs.IntVar(&f.usage.PhoneNumbers, "phone-numbers", f.usage.PhoneNumbers, "rented phone numbers")
	fs.IntVar(&f.usage.MinReplicas, "min-replicas", f.usage.MinReplicas, "always-on replicas (0 = on demand)")
	fs.BoolVar(&f.usage.BusinessHoursOnly, "business-hours", false, "keep replicas on during business hours only")
}

func (f *voiceFlags) resolve() (types.VoiceUsage, error) {
	u := f.usage
	u.Model = types.VoiceModel(types.NormalizeModelKey(f.model))
	return u, u.Validate()
}

// emailFlags binds the email usage fields to a command's flags
type emailFlags struct {
	usage types.EmailUsage
	model string
}

func (f *emailFlags) bind(cmd *cobra.Command) {
	f.usage = types.DefaultEmailUsage()
	fs := cmd.Flags()
	fs.IntVar(&f.usage.EmailsPerDay, "emails", f.usage.EmailsPerDay, "emails per day")
	fs.Float64Var(&f.usage.PollingIntervalMinutes, "polling", f.usage.PollingIntervalMinutes, "mailbox polling interval in minutes")
	fs.StringVarP(&f.model, "model", "m", string(f.usage.Model), "language model")
	fs.BoolVar(&f.usage.RAGEnabled, "rag", f.usage.RAGEnabled, "answer with RAG context from the manual")
	fs.IntVar(&f.usage.ManualPageCount, "pages", f.usage.ManualPageCount, "manual pages in the RAG index")
	fs.BoolVar(&f.usage.BusinessHoursOnly, "business-hours", false, "poll during business hours only")
}

func (f *emailFlags) resolve() (types.EmailUsage, error) {
	u := f.usage
	u.Model = types.EmailModel(types.NormalizeModelKey(f.model))
	return u, u.Validate()
}

var (
	voiceOpts  voiceFlags
	emailOpts  emailFlags
	exportFile string
	noRecs     bool
)

// voiceCmd prices a voice agent
var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Estimate the monthly cost of a voice agent",
	Long: `Price a voice agent: phone numbers and call minutes, container hosting
and realtime model audio.

Examples:
  agent-cost voice
  agent-cost voice --minutes 3 --calls 200 --model gpt-realtime-mini
  agent-cost voice --min-replicas 1 --business-hours`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := voiceOpts.resolve()
		if err != nil {
			return err
		}
		return runEstimate(cmd, engine.Request{Voice: &usage}, nil)
	},
}

// emailCmd prices an email agent
var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Estimate the monthly cost of an email agent",
	Long: `Price an email agent: mailbox polling functions and language model
tokens, plus the shared document storage of its RAG index.

Examples:
  agent-cost email
  agent-cost email --emails 200 --polling 10 --model gpt-4.1-mini
  agent-cost email --rag=false --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := emailOpts.resolve()
		if err != nil {
			return err
		}
		return runEstimate(cmd, engine.Request{Email: &usage}, nil)
	},
}

// estimateCmd prices a scenario file
var estimateCmd = &cobra.Command{
	Use:   "estimate <scenario>",
	Short: "Estimate a scenario file with recommendations",
	Long: `Price the agents of a scenario file (.hcl, .yaml, .yml or .json) and
list cheaper configurations.

Examples:
  agent-cost estimate support.hcl
  agent-cost estimate support.yaml --format markdown
  agent-cost estimate support.json --export estimate.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		return runEstimate(cmd, sc.Request(), sc)
	},
}

func init() {
	voiceOpts.bind(voiceCmd)
	emailOpts.bind(emailCmd)
	estimateCmd.Flags().StringVarP(&exportFile, "export", "o", "", "also write the rounded estimate as JSON to this file")
	estimateCmd.Flags().BoolVar(&noRecs, "no-recommendations", false, "skip cost recommendations")

	rootCmd.AddCommand(voiceCmd, emailCmd, estimateCmd)
}

// runEstimate prices req against one catalog snapshot and renders it. A
// scenario also gets recommendations and the optional export file.
func runEstimate(cmd *cobra.Command, req engine.Request, sc *scenario.Scenario) error {
	ctx := cmd.Context()
	log := logging.Component("cli")

	cat, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	report, err := engine.EstimateWith(req, cat)
	if err != nil {
		return err
	}
	log.Debug("estimate complete",
		zap.String("catalog_version", report.CatalogVersion),
		zap.String("total", report.Total.String()),
	)

	result := &output.Result{Report: report}
	if sc != nil && !noRecs {
		recs, err := compare.Recommend(req.Voice, req.Email, cat, config.Get().Recommendations)
		if err != nil {
			return err
		}
		result.Recommendations = recs
	}

	if err := render(cmd, result); err != nil {
		return err
	}

	if sc != nil && exportFile != "" {
		if err := output.NewExport(report, req, result.Recommendations).WriteFile(exportFile); err != nil {
			return err
		}
		log.Info("export written", zap.String("path", exportFile))
		fmt.Fprintf(cmd.ErrOrStderr(), "Estimate written to %s\n", exportFile)
	}
	return nil
}
