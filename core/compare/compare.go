// Package compare re-runs the engines with one parameter varied and
// derives optimization recommendations from the differences.
package compare

import (
	"fmt"

	"github.com/shopspring/decimal"

	"agent-cost/core/catalog"
	"agent-cost/core/engine"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Dimension names the parameter a table varies
type Dimension string

const (
	DimensionVoiceModel      Dimension = "voice_model"
	DimensionReplicas        Dimension = "replicas"
	DimensionEmailModel      Dimension = "email_model"
	DimensionPollingInterval Dimension = "polling_interval"
)

// ReplicaOptions are the replica counts compared for a voice agent
var ReplicaOptions = []int{0, 1, 2, 3}

// PollingOptions are the polling intervals, in minutes, compared for an
// email agent
var PollingOptions = []float64{1, 5, 10, 30, 60}

// Row is one variant of a comparison
type Row struct {
	// Key is the varied value ("gpt_4o_mini", "2", "10")
	Key string `json:"key"`

	// Label is a human-readable variant name
	Label string `json:"label"`

	// Selected marks the variant matching the input configuration
	Selected bool `json:"selected"`

	Total                 decimal.Decimal `json:"total"`
	PerInteraction        decimal.Decimal `json:"per_interaction"`
	PerInteractionDefined bool            `json:"per_interaction_defined"`

	// Subtotal is the part of the cost the variant changes
	Subtotal decimal.Decimal `json:"subtotal"`

	// UnitCost is a per-unit rate shown alongside, e.g. audio cost per minute
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// Table is a comparison across one dimension
type Table struct {
	Dimension     Dimension      `json:"dimension"`
	Currency      types.Currency `json:"currency"`
	SubtotalLabel string         `json:"subtotal_label"`
	UnitCostLabel string         `json:"unit_cost_label,omitempty"`
	Rows          []Row          `json:"rows"`
}

// Selected returns the row of the input configuration
func (t *Table) Selected() (Row, bool) {
	for _, r := range t.Rows {
		if r.Selected {
			return r, true
		}
	}
	return Row{}, false
}

// Cheapest returns the row with the lowest total; ties keep the first row
func (t *Table) Cheapest() (Row, bool) {
	if len(t.Rows) == 0 {
		return Row{}, false
	}
	best := t.Rows[0]
	for _, r := range t.Rows[1:] {
		if r.Total.LessThan(best.Total) {
			best = r
		}
	}
	return best, true
}

func row(key, label string, selected bool, b *types.CostBreakdown, subtotal decimal.Decimal) Row {
	return Row{
		Key:                   key,
		Label:                 label,
		Selected:              selected,
		Total:                 b.Total,
		PerInteraction:        b.PerInteraction,
		PerInteractionDefined: b.PerInteractionDefined,
		Subtotal:              subtotal,
	}
}

// VoiceModels prices the usage on every voice model in the catalog
func VoiceModels(usage types.VoiceUsage, cat *catalog.Catalog) (*Table, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	t := &Table{
		Dimension:     DimensionVoiceModel,
		Currency:      cat.Currency,
		SubtotalLabel: "AI model",
		UnitCostLabel: "Audio cost per minute",
	}
	for _, m := range cat.VoiceModels() {
		rates, err := cat.VoiceModel(m)
		if err != nil {
			return nil, err
		}
		variant := usage
		variant.Model = m
		b, err := engine.Voice(variant, cat)
		if err != nil {
			return nil, err
		}
		r := row(m.String(), rates.DisplayName, m == usage.Model, b, b.Subtotal(types.CategoryAI))
		perMinute := rates.AudioPerMinute(cat.Audio)
		r.UnitCost = &perMinute
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

// Replicas prices the usage at every replica option
func Replicas(usage types.VoiceUsage, cat *catalog.Catalog) (*Table, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	t := &Table{
		Dimension:     DimensionReplicas,
		Currency:      cat.Currency,
		SubtotalLabel: "Container hosting",
	}
	for _, n := range ReplicaOptions {
		variant := usage
		variant.MinReplicas = n
		b, err := engine.Voice(variant, cat)
		if err != nil {
			return nil, err
		}
		r := row(fmt.Sprint(n), ReplicaLabel(n), n == usage.MinReplicas, b, b.Subtotal(types.CategoryCompute))
		switch n {
		case 0:
			r.Notes = []string{"Cold start 5-15 s on the first call", "Availability 99%"}
		case 1:
			r.Notes = []string{"No cold start", "Availability 99.95%"}
		default:
			r.Notes = []string{"No cold start", "Availability 99.99%"}
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

// ReplicaLabel names a hosting option by replica count
func ReplicaLabel(n int) string {
	switch {
	case n <= 0:
		return "Serverless (0 replicas)"
	case n == 1:
		return "Always-on (1 replica)"
	default:
		return fmt.Sprintf("Always-on (%d replicas)", n)
	}
}

// EmailModels prices the usage on every email model in the catalog
func EmailModels(usage types.EmailUsage, cat *catalog.Catalog) (*Table, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	t := &Table{
		Dimension:     DimensionEmailModel,
		Currency:      cat.Currency,
		SubtotalLabel: "LLM",
		UnitCostLabel: "Cost per email",
	}
	for _, m := range cat.EmailModels() {
		rates, err := cat.EmailModel(m)
		if err != nil {
			return nil, err
		}
		variant := usage
		variant.Model = m
		b, err := engine.Email(variant, cat)
		if err != nil {
			return nil, err
		}
		r := row(m.String(), rates.DisplayName, m == usage.Model, b, b.Subtotal(types.CategoryLLM))
		perEmail := cat.EmailTokens.InputPerEmail(usage.RAGEnabled).Mul(rates.InputPerMillion).
			Add(cat.EmailTokens.Output.Mul(rates.OutputPerMillion)).
			Shift(-6)
		r.UnitCost = &perEmail
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

// PollingIntervals prices the usage at every polling option
func PollingIntervals(usage types.EmailUsage, cat *catalog.Catalog) (*Table, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	t := &Table{
		Dimension:     DimensionPollingInterval,
		Currency:      cat.Currency,
		SubtotalLabel: "Functions",
	}
	for _, interval := range PollingOptions {
		variant := usage
		variant.PollingIntervalMinutes = interval
		b, err := engine.Email(variant, cat)
		if err != nil {
			return nil, err
		}
		r := row(fmt.Sprint(interval), PollingLabel(interval), interval == usage.PollingIntervalMinutes,
			b, b.Subtotal(types.CategoryFunctions))
		r.Notes = []string{fmt.Sprintf("%s checks per month", b.Volume.Checks.Round(0))}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

// PollingLabel names a polling interval
func PollingLabel(minutes float64) string {
	if minutes == 1 {
		return "Every minute"
	}
	return fmt.Sprintf("Every %s minutes", decimal.NewFromFloat(minutes))
}
