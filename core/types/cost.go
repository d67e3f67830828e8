// Package types - Cost breakdown types
package types

import "github.com/shopspring/decimal"

// CostComponent represents a single billable line of a breakdown
type CostComponent struct {
	// Name uniquely identifies the component within a breakdown
	Name string `json:"name"`

	// Label is a human-readable label
	Label string `json:"label"`

	// Category groups the component for sub-totals
	Category Category `json:"category"`

	// Measure is the billing unit of Quantity (e.g. "vCPU-seconds", "tokens")
	Measure string `json:"measure"`

	// Quantity is the raw monthly usage
	Quantity decimal.Decimal `json:"quantity"`

	// Allowance is the monthly free allowance subtracted before billing
	Allowance decimal.Decimal `json:"allowance"`

	// Billable is the quantity charged after the allowance, never negative
	Billable decimal.Decimal `json:"billable"`

	// Rate is the unit price, expressed per RateUnit
	Rate decimal.Decimal `json:"rate"`

	// RateUnit describes what Rate is quoted against (e.g. "per 1M tokens")
	RateUnit string `json:"rate_unit"`

	// Amount is the monthly cost of the component
	Amount decimal.Decimal `json:"amount"`

	// Formula describes how the amount was calculated
	Formula string `json:"formula"`
}

// VolumeMetrics are the monthly interaction volumes behind a breakdown
type VolumeMetrics struct {
	// Interactions is calls or emails per month
	Interactions int64 `json:"interactions_per_month"`

	// Minutes is total call minutes per month (voice only)
	Minutes decimal.Decimal `json:"minutes_per_month"`

	// Checks is mailbox polls per month (email only)
	Checks decimal.Decimal `json:"checks_per_month"`

	// OperatingHours is the billed window used by always-on or polling costs
	OperatingHours decimal.Decimal `json:"operating_hours"`
}

// UsageCounters are raw usage quantities kept for free-tier reporting
type UsageCounters struct {
	VCPUSeconds   decimal.Decimal `json:"vcpu_seconds"`
	GiBSeconds    decimal.Decimal `json:"gib_seconds"`
	ActiveSeconds decimal.Decimal `json:"active_seconds"`
	IdleSeconds   decimal.Decimal `json:"idle_seconds"`
	Requests      decimal.Decimal `json:"requests"`
	Executions    decimal.Decimal `json:"executions"`
	InputTokens   decimal.Decimal `json:"input_tokens"`
	OutputTokens  decimal.Decimal `json:"output_tokens"`
}

// FreeTierUsage reports how much of a monthly free allowance is consumed
type FreeTierUsage struct {
	// Metric names the allowance (e.g. "container_vcpu_seconds")
	Metric string `json:"metric"`

	// Used is the monthly quantity
	Used decimal.Decimal `json:"used"`

	// Allowance is the free monthly quantity
	Allowance decimal.Decimal `json:"allowance"`

	// Percent is Used / Allowance * 100; zero when there is no allowance
	Percent decimal.Decimal `json:"percent"`

	// Exceeded is true once billing has started
	Exceeded bool `json:"exceeded"`
}

// CostBreakdown is the output of the voice and email engines
type CostBreakdown struct {
	// Agent identifies the engine
	Agent AgentKind `json:"agent"`

	// Model is the selected model key
	Model string `json:"model"`

	// ComputeMode is set for voice breakdowns
	ComputeMode ComputeMode `json:"compute_mode,omitempty"`

	// Currency is the catalog currency
	Currency Currency `json:"currency"`

	// CatalogVersion is the pricing catalog version used
	CatalogVersion string `json:"catalog_version"`

	// Total is the monthly total; always the sum of Components
	Total decimal.Decimal `json:"total"`

	// PerInteraction is Total per call or per email
	PerInteraction decimal.Decimal `json:"per_interaction"`

	// PerInteractionDefined is false when the monthly volume is zero
	PerInteractionDefined bool `json:"per_interaction_defined"`

	// Volume contains the monthly volume metrics
	Volume VolumeMetrics `json:"volume"`

	// Components are the named sub-costs in calculation order
	Components []CostComponent `json:"components"`

	// Usage contains raw usage counters
	Usage UsageCounters `json:"usage"`

	// FreeTier reports allowance consumption
	FreeTier []FreeTierUsage `json:"free_tier,omitempty"`

	// Assumptions lists modelling assumptions applied
	Assumptions []string `json:"assumptions,omitempty"`
}

// NewCostBreakdown creates an empty breakdown
func NewCostBreakdown(agent AgentKind, currency Currency, catalogVersion string) *CostBreakdown {
	return &CostBreakdown{
		Agent:          agent,
		Currency:       currency,
		CatalogVersion: catalogVersion,
		Components:     make([]CostComponent, 0, 10),
	}
}

// Add appends a component and updates the total
func (b *CostBreakdown) Add(c CostComponent) {
	b.Components = append(b.Components, c)
	b.Total = b.Total.Add(c.Amount)
}

// Component returns the component with the given name
func (b *CostBreakdown) Component(name string) (CostComponent, bool) {
	for _, c := range b.Components {
		if c.Name == name {
			return c, true
		}
	}
	return CostComponent{}, false
}

// Amount returns the amount of a named component, zero when absent
func (b *CostBreakdown) Amount(name string) decimal.Decimal {
	c, _ := b.Component(name)
	return c.Amount
}

// Subtotal sums the components in the given categories
func (b *CostBreakdown) Subtotal(categories ...Category) decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Components {
		for _, cat := range categories {
			if c.Category == cat {
				total = total.Add(c.Amount)
				break
			}
		}
	}
	return total
}

// SumComponents recomputes the total from the components
func (b *CostBreakdown) SumComponents() decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Components {
		total = total.Add(c.Amount)
	}
	return total
}

// Categories returns the categories present, in first-seen order
func (b *CostBreakdown) Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, c := range b.Components {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	return out
}

// SetInteractions records the monthly volume and derives the
// per-interaction cost, leaving it at zero and undefined for zero volume.
func (b *CostBreakdown) SetInteractions(n int64) {
	b.Volume.Interactions = n
	if n <= 0 {
		b.PerInteraction = decimal.Zero
		b.PerInteractionDefined = false
		return
	}
	b.PerInteraction = b.Total.Div(decimal.NewFromInt(n))
	b.PerInteractionDefined = true
}

// StorageCost is the output of the shared storage engine
type StorageCost struct {
	// Currency is the catalog currency
	Currency Currency `json:"currency"`

	// PageCount is the number of indexed manual pages
	PageCount int `json:"page_count"`

	// StorageGB includes the search index overhead
	StorageGB decimal.Decimal `json:"storage_gb"`

	// Cost is the monthly hot-tier cost
	Cost decimal.Decimal `json:"cost"`
}
