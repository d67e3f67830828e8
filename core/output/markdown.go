package output

import (
	"fmt"
	"io"
	"strings"

	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/core/types"
)

// MarkdownFormatter renders GitHub-flavoured markdown tables
type MarkdownFormatter struct{}

// Format returns FormatMarkdown
func (f *MarkdownFormatter) Format() Format { return FormatMarkdown }

// Render writes the report, tables and recommendations in that order
func (f *MarkdownFormatter) Render(w io.Writer, result *Result) error {
	if result == nil {
		return nil
	}
	p := &printer{w: w}
	if result.Report != nil {
		f.report(p, result.Report)
	}
	for _, t := range result.Tables {
		f.table(p, t)
	}
	if len(result.Recommendations) > 0 {
		f.recommendations(p, result.Recommendations)
	}
	return p.err
}

func (f *MarkdownFormatter) report(p *printer, r *engine.Report) {
	p.printf("# Monthly cost estimate\n\n")
	p.printf("Pricing catalog `%s`, amounts in %s.\n\n", r.CatalogVersion, r.Currency)
	if r.Voice != nil {
		f.breakdown(p, "Voice agent", r.Voice)
	}
	if r.Email != nil {
		f.breakdown(p, "Email agent", r.Email)
	}
	if r.Storage != nil {
		p.printf("## Shared document storage\n\n")
		p.printf("%d pages, %s GB: **%s** per month\n\n", r.Storage.PageCount, r.Storage.StorageGB.Round(4), r.Storage.Cost.StringFixed(2))
	}
	p.printf("**Total: %s %s per month**\n\n", r.Currency, r.Total.StringFixed(2))
}

func (f *MarkdownFormatter) breakdown(p *printer, title string, b *types.CostBreakdown) {
	noun := interactionNoun(b.Agent)
	p.printf("## %s (`%s`)\n\n", title, b.Model)
	p.printf("| Component | Quantity | Amount | Share | Per %s |\n", noun)
	p.printf("|---|---:|---:|---:|---:|\n")
	for i, s := range Shares(b) {
		c := b.Components[i]
		p.printf("| %s | %s %s | %s | %s%% | %s |\n",
			s.Label, c.Quantity.Round(2), c.Measure, s.Amount.StringFixed(2),
			s.Percent.StringFixed(1), perInteraction(b, s.PerInteraction))
	}
	p.printf("| **Total** | | **%s** | 100%% | %s |\n\n", b.Total.StringFixed(2), perInteraction(b, b.PerInteraction))

	if len(b.FreeTier) > 0 {
		p.printf("Free tier: ")
		parts := make([]string, 0, len(b.FreeTier))
		for _, ft := range b.FreeTier {
			parts = append(parts, fmt.Sprintf("%s %s%%", ft.Metric, ft.Percent.StringFixed(1)))
		}
		p.printf("%s\n\n", strings.Join(parts, ", "))
	}
	for _, a := range b.Assumptions {
		p.printf("- %s\n", a)
	}
	if len(b.Assumptions) > 0 {
		p.printf("\n")
	}
}

func (f *MarkdownFormatter) table(p *printer, t *compare.Table) {
	p.printf("## %s\n\n", tableTitle(t.Dimension))
	header := "| Option | Total | " + t.SubtotalLabel + " | Per unit |"
	align := "|---|---:|---:|---:|"
	if t.UnitCostLabel != "" {
		header += " " + t.UnitCostLabel + " |"
		align += "---:|"
	}
	p.printf("%s Notes |\n%s---|\n", header, align)
	for _, r := range t.Rows {
		label := r.Label
		if r.Selected {
			label = "**" + label + "** (current)"
		}
		per := "-"
		if r.PerInteractionDefined {
			per = r.PerInteraction.StringFixed(4)
		}
		p.printf("| %s | %s | %s | %s |", label, r.Total.StringFixed(2), r.Subtotal.StringFixed(2), per)
		if t.UnitCostLabel != "" {
			unit := "-"
			if r.UnitCost != nil {
				unit = r.UnitCost.StringFixed(4)
			}
			p.printf(" %s |", unit)
		}
		p.printf(" %s |\n", strings.Join(r.Notes, "; "))
	}
	p.printf("\n")
}

func (f *MarkdownFormatter) recommendations(p *printer, recs []compare.Recommendation) {
	p.printf("## Recommendations\n\n")
	for _, r := range recs {
		p.printf("- **%s**: %s -> %s, saves %s per month. %s\n", r.Title, r.Current, r.Suggested, r.MonthlySavings.StringFixed(2), r.Detail)
	}
	p.printf("\nPotential savings: **%s** per month\n", compare.TotalSavings(recs).StringFixed(2))
}
