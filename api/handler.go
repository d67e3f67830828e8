// Package api - HTTP handlers
// Handlers decode, call the estimator or the comparison package, and encode.
package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"time"

	"agent-cost/core/catalog"
	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/core/output"
	"agent-cost/core/scenario"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// handleEstimateVoice handles POST /estimate/voice
func (s *Server) handleEstimateVoice(w http.ResponseWriter, r *http.Request) {
	usage, err := decodeVoice(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.estimator.Voice(r.Context(), usage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(b)
	s.writeJSON(w, VoiceEstimateResponse{RequestID: requestID(r.Context()), Breakdown: b}, http.StatusOK)
}

// handleEstimateEmail handles POST /estimate/email
func (s *Server) handleEstimateEmail(w http.ResponseWriter, r *http.Request) {
	usage, err := decodeEmail(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.estimate(&scenario.Scenario{Email: &usage}, cat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, EmailEstimateResponse{
		RequestID: requestID(r.Context()),
		Breakdown: report.Email,
		Storage:   report.Storage,
	}, http.StatusOK)
}

// handleEstimate handles POST /estimate. The body is a scenario document.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	sc, err := decodeScenario(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.estimate(sc, cat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := compare.Recommend(sc.Voice, sc.Email, cat, s.policy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, EstimateResponse{
		RequestID:       requestID(r.Context()),
		Scenario:        sc.Name,
		Report:          report,
		Recommendations: nonNil(recs),
		TotalSavings:    compare.TotalSavings(recs),
	}, http.StatusOK)
}

// handleExport handles POST /export. The body is a scenario document; the
// response is the rounded export artifact.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sc, err := decodeScenario(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.estimate(sc, cat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := compare.Recommend(sc.Voice, sc.Email, cat, s.policy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, output.NewExport(report, sc.Request(), recs), http.StatusOK)
}

// handleCompareVoice handles POST /compare/voice
func (s *Server) handleCompareVoice(w http.ResponseWriter, r *http.Request) {
	usage, err := decodeVoice(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	models, err := compare.VoiceModels(usage, cat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	replicas, err := compare.Replicas(usage, cat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, CompareVoiceResponse{
		RequestID: requestID(r.Context()),
		Models:    models,
		Replicas:  replicas,
	}, http.StatusOK)
}

// handleCompareEmail handles POST /compare/email
func (s *Server) handleCompareEmail(w http.ResponseWriter, r *http.Request) {
	usage, err := decodeEmail(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	models, err := compare.EmailModels(usage, cat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	polling, err := compare.PollingIntervals(usage, cat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, CompareEmailResponse{
		RequestID: requestID(r.Context()),
		Models:    models,
		Polling:   polling,
	}, http.StatusOK)
}

// handleRecommend handles POST /recommend. The body is a scenario document.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	sc, err := decodeScenario(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := compare.Recommend(sc.Voice, sc.Email, cat, s.policy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, RecommendResponse{
		RequestID:       requestID(r.Context()),
		Recommendations: nonNil(recs),
		TotalSavings:    compare.TotalSavings(recs),
	}, http.StatusOK)
}

// handleCatalog handles GET /catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := CatalogResponse{Summary: cat.Summary(), Document: cat}
	if s.stats != nil {
		stats := s.stats.Stats()
		resp.Cache = &stats
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleHealth handles GET /health. The server is healthy while a catalog
// can be served.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	cat, err := s.estimator.Catalog(r.Context())
	if err != nil {
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		s.writeJSON(w, body, http.StatusServiceUnavailable)
		return
	}
	body["status"] = "healthy"
	body["catalog_version"] = cat.Version
	s.writeJSON(w, body, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "agent-cost",
		"api_version": "v1",
	}, http.StatusOK)
}

// estimate prices a scenario against one catalog snapshot, the same one the
// recommendations use
func (s *Server) estimate(sc *scenario.Scenario, cat *catalog.Catalog) (*engine.Report, error) {
	start := time.Now()
	report, err := engine.EstimateWith(sc.Request(), cat)
	if err != nil {
		return nil, err
	}
	report.EstimatedAt = start
	report.Duration = time.Since(start)
	s.record(report.Voice)
	s.record(report.Email)
	return report, nil
}

func (s *Server) record(b *types.CostBreakdown) {
	if s.metrics != nil {
		s.metrics.RecordBreakdown(b)
	}
}

// decodeVoice reads and validates a voice usage object over the defaults.
// An empty body prices the default configuration.
func decodeVoice(body io.Reader) (types.VoiceUsage, error) {
	usage := types.DefaultVoiceUsage()
	if err := decodeJSON(body, &usage); err != nil {
		return usage, err
	}
	usage.Model = types.VoiceModel(types.NormalizeModelKey(string(usage.Model)))
	return usage, usage.Validate()
}

// decodeEmail reads and validates an email usage object over the defaults
func decodeEmail(body io.Reader) (types.EmailUsage, error) {
	usage := types.DefaultEmailUsage()
	if err := decodeJSON(body, &usage); err != nil {
		return usage, err
	}
	usage.Model = types.EmailModel(types.NormalizeModelKey(string(usage.Model)))
	return usage, usage.Validate()
}

func decodeJSON(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	switch {
	case err == nil, stderrors.Is(err, io.EOF):
		return nil
	case isTooLarge(err):
		return err
	default:
		return errors.Parsing("malformed request body", err)
	}
}

// decodeScenario reads a scenario document. The format follows the
// Content-Type: YAML and HCL are accepted besides JSON.
func decodeScenario(r *http.Request) (*scenario.Scenario, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		if isTooLarge(err) {
			return nil, err
		}
		return nil, errors.Parsing("reading request body", err)
	}
	format := scenario.FormatJSON
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = scenario.FormatYAML
		case "application/hcl", "text/hcl":
			format = scenario.FormatHCL
		}
	}
	return scenario.Parse(bytes.TrimSpace(data), "request."+string(format), format)
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return stderrors.As(err, &tooLarge)
}

func nonNil(recs []compare.Recommendation) []compare.Recommendation {
	if recs == nil {
		return []compare.Recommendation{}
	}
	return recs
}
