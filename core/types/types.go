// Package types defines core domain types shared across all layers.
// This package contains NO cost logic - only type definitions and
// input validation.
package types

// Currency represents a currency code
type Currency string

const (
	CurrencyCHF Currency = "CHF"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// AgentKind identifies which engine produced a breakdown
type AgentKind string

const (
	AgentVoice AgentKind = "voice"
	AgentEmail AgentKind = "email"
)

// String returns the string representation
func (a AgentKind) String() string {
	return string(a)
}

// ComputeMode is the container hosting regime of a voice agent
type ComputeMode string

const (
	// ComputeOnDemand scales to zero and bills only while handling calls
	ComputeOnDemand ComputeMode = "on_demand"

	// ComputeAlwaysOn keeps min_replicas warm for the whole operating window
	ComputeAlwaysOn ComputeMode = "always_on"
)

// ComputeModeFor returns the regime selected by a replica count
func ComputeModeFor(minReplicas int) ComputeMode {
	if minReplicas == 0 {
		return ComputeOnDemand
	}
	return ComputeAlwaysOn
}

// Category groups cost components for sub-totals and reporting
type Category string

const (
	CategoryTelephony Category = "telephony"
	CategoryCompute   Category = "compute"
	CategoryAI        Category = "ai"
	CategoryFunctions Category = "functions"
	CategoryLLM       Category = "llm"
	CategoryStorage   Category = "storage"
)

// String returns the string representation
func (c Category) String() string {
	return string(c)
}
