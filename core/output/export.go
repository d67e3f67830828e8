package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Rounding applied to exported values
const (
	AmountPlaces         = 2
	PerInteractionPlaces = 4
	PercentPlaces        = 1
)

// Export is a self-contained snapshot of a configuration and its cost,
// meant to be saved or shared
type Export struct {
	ID             string         `json:"id"`
	GeneratedAt    time.Time      `json:"generated_at"`
	CatalogVersion string         `json:"catalog_version"`
	CatalogHash    string         `json:"catalog_hash"`
	Currency       types.Currency `json:"currency"`

	Configuration engine.Request `json:"configuration"`

	Voice   *AgentExport   `json:"voice,omitempty"`
	Email   *AgentExport   `json:"email,omitempty"`
	Storage *StorageExport `json:"storage,omitempty"`

	MonthlyTotal decimal.Decimal `json:"monthly_total"`

	Recommendations []compare.Recommendation `json:"recommendations,omitempty"`
	PotentialSaving decimal.Decimal          `json:"potential_monthly_savings"`
}

// AgentExport is one agent's rounded breakdown
type AgentExport struct {
	Model                 string            `json:"model"`
	ComputeMode           types.ComputeMode `json:"compute_mode,omitempty"`
	InteractionsPerMonth  int64             `json:"interactions_per_month"`
	MonthlyCost           decimal.Decimal   `json:"monthly_cost"`
	CostPerInteraction    decimal.Decimal   `json:"cost_per_interaction"`
	PerInteractionDefined bool              `json:"cost_per_interaction_defined"`
	Components            []ComponentShare  `json:"components"`
	FreeTier              []FreeTierExport  `json:"free_tier,omitempty"`
}

// FreeTierExport is the consumed share of one allowance
type FreeTierExport struct {
	Metric   string          `json:"metric"`
	Percent  decimal.Decimal `json:"percent_used"`
	Exceeded bool            `json:"exceeded"`
}

// StorageExport is the rounded shared storage cost
type StorageExport struct {
	PageCount   int             `json:"page_count"`
	StorageGB   decimal.Decimal `json:"storage_gb"`
	MonthlyCost decimal.Decimal `json:"monthly_cost"`
}

// NewExport builds an export from a report and the request that produced it.
// Monetary values are rounded; the unrounded figures stay in the report.
func NewExport(report *engine.Report, req engine.Request, recs []compare.Recommendation) *Export {
	e := &Export{
		ID:              uuid.NewString(),
		GeneratedAt:     report.EstimatedAt,
		CatalogVersion:  report.CatalogVersion,
		CatalogHash:     report.CatalogHash,
		Currency:        report.Currency,
		Configuration:   req,
		Voice:           agentExport(report.Voice),
		Email:           agentExport(report.Email),
		MonthlyTotal:    report.Total.Round(AmountPlaces),
		Recommendations: recs,
		PotentialSaving: compare.TotalSavings(recs).Round(AmountPlaces),
	}
	if report.Storage != nil {
		e.Storage = &StorageExport{
			PageCount:   report.Storage.PageCount,
			StorageGB:   report.Storage.StorageGB.Round(4),
			MonthlyCost: report.Storage.Cost.Round(AmountPlaces),
		}
	}
	return e
}

func agentExport(b *types.CostBreakdown) *AgentExport {
	if b == nil {
		return nil
	}
	a := &AgentExport{
		Model:                 b.Model,
		ComputeMode:           b.ComputeMode,
		InteractionsPerMonth:  b.Volume.Interactions,
		MonthlyCost:           b.Total.Round(AmountPlaces),
		CostPerInteraction:    b.PerInteraction.Round(PerInteractionPlaces),
		PerInteractionDefined: b.PerInteractionDefined,
	}
	for _, s := range Shares(b) {
		s.Amount = s.Amount.Round(AmountPlaces)
		s.Percent = s.Percent.Round(PercentPlaces)
		s.PerInteraction = s.PerInteraction.Round(PerInteractionPlaces)
		a.Components = append(a.Components, s)
	}
	for _, ft := range b.FreeTier {
		a.FreeTier = append(a.FreeTier, FreeTierExport{
			Metric:   ft.Metric,
			Percent:  ft.Percent.Round(PercentPlaces),
			Exceeded: ft.Exceeded,
		})
	}
	return a
}

// Encode writes the export as indented JSON
func (e *Export) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteFile saves the export to path
func (e *Export) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Internal("creating export "+path, err)
	}
	if err := e.Encode(f); err != nil {
		f.Close()
		return errors.Internal("writing export "+path, err)
	}
	return f.Close()
}
