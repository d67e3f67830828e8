// Package api - Request and response types
package api

import (
	"github.com/shopspring/decimal"

	"agent-cost/core/catalog"
	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/core/types"
)

// VoiceEstimateResponse is returned by POST /estimate/voice
type VoiceEstimateResponse struct {
	RequestID string               `json:"request_id"`
	Breakdown *types.CostBreakdown `json:"breakdown"`
}

// EmailEstimateResponse is returned by POST /estimate/email. Storage is the
// shared document store the email agent's RAG index lives in.
type EmailEstimateResponse struct {
	RequestID string               `json:"request_id"`
	Breakdown *types.CostBreakdown `json:"breakdown"`
	Storage   *types.StorageCost   `json:"storage"`
}

// EstimateResponse is returned by POST /estimate
type EstimateResponse struct {
	RequestID       string                   `json:"request_id"`
	Scenario        string                   `json:"scenario,omitempty"`
	Report          *engine.Report           `json:"report"`
	Recommendations []compare.Recommendation `json:"recommendations"`
	TotalSavings    decimal.Decimal          `json:"total_savings"`
}

// CompareVoiceResponse is returned by POST /compare/voice
type CompareVoiceResponse struct {
	RequestID string         `json:"request_id"`
	Models    *compare.Table `json:"models"`
	Replicas  *compare.Table `json:"replicas"`
}

// CompareEmailResponse is returned by POST /compare/email
type CompareEmailResponse struct {
	RequestID string         `json:"request_id"`
	Models    *compare.Table `json:"models"`
	Polling   *compare.Table `json:"polling"`
}

// RecommendResponse is returned by POST /recommend
type RecommendResponse struct {
	RequestID       string                   `json:"request_id"`
	Recommendations []compare.Recommendation `json:"recommendations"`
	TotalSavings    decimal.Decimal          `json:"total_savings"`
}

// CatalogResponse is returned by GET /catalog
type CatalogResponse struct {
	Summary  catalog.Summary     `json:"summary"`
	Cache    *catalog.CacheStats `json:"cache,omitempty"`
	Document *catalog.Catalog    `json:"document"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an error
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
