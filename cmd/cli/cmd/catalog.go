// Package cmd - pricing catalog commands
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"agent-cost/core/catalog"
	"agent-cost/core/output"
	"agent-cost/internal/config"
	"agent-cost/internal/errors"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate pricing catalogs",
	Long: `Pricing catalog commands.

The catalog holds every rate the estimates use. Without --catalog the
built-in catalog is used.`,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active pricing catalog",
	Long: `Print a summary of the active catalog. With --format json the full
document is printed.`,
	Args: cobra.NoArgs,
	RunE: runCatalogShow,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a pricing catalog file",
	Long: `Parse and validate a catalog file. Every missing or invalid rate is
reported. Without a file the active catalog is validated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogValidate,
}

var catalogInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write the built-in catalog to a file as a starting point",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogInit,
}

var catalogForce bool

func init() {
	catalogInitCmd.Flags().BoolVar(&catalogForce, "force", false, "overwrite an existing file")

	catalogCmd.AddCommand(catalogShowCmd, catalogValidateCmd, catalogInitCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if config.Get().Output.DefaultFormat == string(output.FormatJSON) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	}

	s := cat.Summary()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Version:\t%s\n", s.Version)
	fmt.Fprintf(tw, "Currency:\t%s\n", s.Currency)
	fmt.Fprintf(tw, "Last updated:\t%s\n", s.LastUpdated)
	fmt.Fprintf(tw, "Hash:\t%s\n", s.Hash)
	fmt.Fprintf(tw, "Voice models:\t%s\n", strings.Join(s.VoiceModels, ", "))
	fmt.Fprintf(tw, "Email models:\t%s\n", strings.Join(s.EmailModels, ", "))
	return tw.Flush()
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	path := config.Get().Catalog.Path
	if len(args) > 0 {
		path = args[0]
	}
	source := catalog.SourceFor(path)

	cat, err := source.Load(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: catalog %s (%s) is valid, hash %s\n",
		source.Name(), cat.Version, cat.Currency, cat.Hash())
	return nil
}

func runCatalogInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !catalogForce {
		if _, err := os.Stat(path); err == nil {
			return errors.Inputf("%s already exists, use --force to overwrite", path)
		}
	}
	if err := os.WriteFile(path, catalog.DefaultDocument(), 0644); err != nil {
		return errors.Internal("writing catalog", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Catalog written to %s\n", path)
	return nil
}
