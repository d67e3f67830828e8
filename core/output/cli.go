package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/shopspring/decimal"

	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/core/pricing/primitives"
	"agent-cost/core/types"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	totalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// CLIFormatter renders aligned terminal tables
type CLIFormatter struct {
	// Width wraps recommendation text; 80 when zero
	Width int
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format { return FormatCLI }

// Render writes the report, tables and recommendations in that order
func (f *CLIFormatter) Render(w io.Writer, result *Result) error {
	if result == nil {
		return nil
	}
	p := &printer{w: w}
	if result.Report != nil {
		f.report(p, result.Report, result.Details)
	}
	for _, t := range result.Tables {
		f.table(p, t)
	}
	if len(result.Recommendations) > 0 {
		f.recommendations(p, result.Recommendations)
	}
	return p.err
}

func (f *CLIFormatter) report(p *printer, r *engine.Report, details bool) {
	p.printf("%s\n", mutedStyle.Render(fmt.Sprintf("Pricing catalog %s (%s)", r.CatalogVersion, r.Currency)))
	if r.Voice != nil {
		f.breakdown(p, "Voice agent", r.Voice, details)
	}
	if r.Email != nil {
		f.breakdown(p, "Email agent", r.Email, details)
	}
	if r.Storage != nil {
		p.printf("%s\n", headingStyle.Render("Shared document storage"))
		p.printf("  %d pages, %s GB  %s / month\n\n",
			r.Storage.PageCount, r.Storage.StorageGB.Round(4), money(r.Currency, r.Storage.Cost))
	}
	if r.Voice != nil || r.Email != nil {
		p.printf("%s\n\n", totalStyle.Render("Monthly total: "+money(r.Currency, r.Total)))
	}
}

func (f *CLIFormatter) breakdown(p *printer, title string, b *types.CostBreakdown, details bool) {
	heading := fmt.Sprintf("%s: %s", title, b.Model)
	if b.ComputeMode != "" {
		heading += fmt.Sprintf(" (%s)", strings.ReplaceAll(string(b.ComputeMode), "_", " "))
	}
	p.printf("%s\n", headingStyle.Render(heading))

	noun := interactionNoun(b.Agent)
	tw := tabwriter.NewWriter(p, 0, 0, 2, ' ', 0)
	if details {
		fmt.Fprintf(tw, "COMPONENT\tQUANTITY\tAMOUNT\tSHARE\tPER %s\t\n", strings.ToUpper(noun))
		for i, s := range Shares(b) {
			c := b.Components[i]
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s%%\t%s\t\n",
				s.Label, c.Quantity.Round(2), c.Measure, s.Amount.StringFixed(2),
				s.Percent.StringFixed(1), perInteraction(b, s.PerInteraction))
		}
	} else {
		fmt.Fprintf(tw, "CATEGORY\tAMOUNT\tSHARE\t\n")
		for _, cat := range b.Categories() {
			sub := b.Subtotal(cat)
			fmt.Fprintf(tw, "%s\t%s\t%s%%\t\n", cat, sub.StringFixed(2), primitives.Percent(sub, b.Total).StringFixed(1))
		}
	}
	if err := tw.Flush(); err != nil && p.err == nil {
		p.err = err
	}

	p.printf("  Total %s / month", money(b.Currency, b.Total))
	if b.PerInteractionDefined {
		p.printf(", %s %s per %s (%d %ss)", b.Currency, b.PerInteraction.StringFixed(4), noun, b.Volume.Interactions, noun)
	}
	p.printf("\n")

	if details {
		for _, ft := range b.FreeTier {
			state := "within allowance"
			if ft.Exceeded {
				state = "exceeded"
			}
			p.printf("  Free tier %s: %s%% used, %s\n", ft.Metric, ft.Percent.StringFixed(1), state)
		}
		for _, a := range b.Assumptions {
			p.printf("%s\n", mutedStyle.Render("  - "+a))
		}
	}
	p.printf("\n")
}

func (f *CLIFormatter) table(p *printer, t *compare.Table) {
	p.printf("%s\n", headingStyle.Render(tableTitle(t.Dimension)))
	tw := tabwriter.NewWriter(p, 0, 0, 2, ' ', 0)
	header := "\tOPTION\tTOTAL\t" + strings.ToUpper(t.SubtotalLabel) + "\tPER UNIT"
	if t.UnitCostLabel != "" {
		header += "\t" + strings.ToUpper(t.UnitCostLabel)
	}
	fmt.Fprintln(tw, header+"\tNOTES")
	for _, r := range t.Rows {
		mark := " "
		if r.Selected {
			mark = "*"
		}
		per := "-"
		if r.PerInteractionDefined {
			per = r.PerInteraction.StringFixed(4)
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", mark, r.Label, r.Total.StringFixed(2), r.Subtotal.StringFixed(2), per)
		if t.UnitCostLabel != "" {
			unit := "-"
			if r.UnitCost != nil {
				unit = r.UnitCost.StringFixed(4)
			}
			line += "\t" + unit
		}
		fmt.Fprintln(tw, line+"\t"+strings.Join(r.Notes, "; "))
	}
	if err := tw.Flush(); err != nil && p.err == nil {
		p.err = err
	}
	p.printf("%s\n\n", mutedStyle.Render(fmt.Sprintf("Amounts in %s per month; * marks the current configuration", t.Currency)))
}

func (f *CLIFormatter) recommendations(p *printer, recs []compare.Recommendation) {
	width := f.Width
	if width <= 0 {
		width = 80
	}
	p.printf("%s\n", headingStyle.Render("Recommendations"))
	for i, r := range recs {
		p.printf("%d. %s (saves %s / month)\n", i+1, r.Title, r.MonthlySavings.StringFixed(2))
		p.printf("   %s -> %s\n", r.Current, r.Suggested)
		for _, line := range strings.Split(wordwrap.String(r.Detail, width-3), "\n") {
			p.printf("   %s\n", line)
		}
	}
	p.printf("%s\n", totalStyle.Render("Potential savings: "+compare.TotalSavings(recs).StringFixed(2)+" / month"))
}

func tableTitle(d compare.Dimension) string {
	switch d {
	case compare.DimensionVoiceModel:
		return "Voice model comparison"
	case compare.DimensionReplicas:
		return "Hosting comparison"
	case compare.DimensionEmailModel:
		return "Email model comparison"
	case compare.DimensionPollingInterval:
		return "Polling interval comparison"
	default:
		return string(d)
	}
}

func money(cur types.Currency, d decimal.Decimal) string {
	return fmt.Sprintf("%s %s", cur, d.StringFixed(2))
}

func perInteraction(b *types.CostBreakdown, d decimal.Decimal) string {
	if !b.PerInteractionDefined {
		return "-"
	}
	return d.StringFixed(4)
}

// printer remembers the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	n, err := p.w.Write(b)
	p.err = err
	return n, err
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p, format, args...)
}
