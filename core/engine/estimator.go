package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"agent-cost/core/catalog"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Estimator is the primary API for cost estimation.
// The CLI and the HTTP server are thin wrappers around it.
type Estimator struct {
	provider catalog.Provider
	now      func() time.Time
}

// NewEstimator creates an estimator pricing against provider's catalog
func NewEstimator(provider catalog.Provider) *Estimator {
	return &Estimator{provider: provider, now: time.Now}
}

// Request is the input to a full estimate. At least one agent is required.
type Request struct {
	Voice *types.VoiceUsage `json:"voice,omitempty"`
	Email *types.EmailUsage `json:"email,omitempty"`
}

// Report is the output of a full estimate. Every part is priced against the
// same catalog snapshot.
type Report struct {
	// Catalog used (for reproducibility)
	CatalogVersion string         `json:"catalog_version"`
	CatalogHash    string         `json:"catalog_hash"`
	Currency       types.Currency `json:"currency"`

	Voice   *types.CostBreakdown `json:"voice,omitempty"`
	Email   *types.CostBreakdown `json:"email,omitempty"`
	Storage *types.StorageCost   `json:"storage,omitempty"`

	// Total is voice + email + storage
	Total decimal.Decimal `json:"total"`

	// Timing
	EstimatedAt time.Time     `json:"estimated_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// Catalog returns the catalog the next estimate would use
func (e *Estimator) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.provider.Catalog(ctx)
}

// Voice prices a voice agent
func (e *Estimator) Voice(ctx context.Context, usage types.VoiceUsage) (*types.CostBreakdown, error) {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return Voice(usage, cat)
}

// Email prices an email agent
func (e *Estimator) Email(ctx context.Context, usage types.EmailUsage) (*types.CostBreakdown, error) {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return Email(usage, cat)
}

// Storage prices the shared RAG document store
func (e *Estimator) Storage(ctx context.Context, pages int, ragEnabled bool) (*types.StorageCost, error) {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return SharedStorage(pages, ragEnabled, cat)
}

// Estimate prices every agent in the request
func (e *Estimator) Estimate(ctx context.Context, req Request) (*Report, error) {
	start := e.now()

	// one snapshot for the whole report
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	report, err := EstimateWith(req, cat)
	if err != nil {
		return nil, err
	}
	report.EstimatedAt = start
	report.Duration = e.now().Sub(start)
	return report, nil
}

// EstimateWith prices a request against a given catalog
func EstimateWith(req Request, cat *catalog.Catalog) (*Report, error) {
	if req.Voice == nil && req.Email == nil {
		return nil, errors.Input("estimate needs a voice or email configuration")
	}
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	report := &Report{
		CatalogVersion: cat.Version,
		CatalogHash:    cat.Hash(),
		Currency:       cat.Currency,
		Total:          decimal.Zero,
	}

	if req.Voice != nil {
		voice, err := Voice(*req.Voice, cat)
		if err != nil {
			return nil, errors.Wrap(errors.TypeOf(err), "voice agent", err)
		}
		report.Voice = voice
		report.Total = report.Total.Add(voice.Total)
	}

	if req.Email != nil {
		email, err := Email(*req.Email, cat)
		if err != nil {
			return nil, errors.Wrap(errors.TypeOf(err), "email agent", err)
		}
		storage, err := SharedStorage(req.Email.ManualPageCount, req.Email.RAGEnabled, cat)
		if err != nil {
			return nil, errors.Wrap(errors.TypeOf(err), "shared storage", err)
		}
		report.Email = email
		report.Storage = storage
		report.Total = report.Total.Add(email.Total).Add(storage.Cost)
	}

	return report, nil
}
