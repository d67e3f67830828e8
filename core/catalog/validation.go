// Package catalog - Catalog validation
// Every rate an engine reads must be present and non-negative; model keys
// must belong to the closed model sets.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// ValidationRule is a cross-field check run after every field resolved
type ValidationRule func(*Catalog) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateCurrency,
		validateOperatingHours,
		validateModelsPresent,
	}
}

// Parse decodes, validates and freezes a catalog document
func Parse(data []byte, format Format) (*Catalog, error) {
	doc, err := DecodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	cat, err := Build(doc)
	if err != nil {
		return nil, err
	}
	cat.hash = contentHash(data)
	return cat, nil
}

// Build resolves a document into a Catalog, reporting every missing or
// invalid field at once.
func Build(doc *Document) (*Catalog, error) {
	if doc == nil {
		return nil, errors.Config("pricing catalog is empty")
	}

	c := &checker{}
	cat := &Catalog{
		Version:     doc.Version,
		Currency:    types.Currency(strings.ToUpper(doc.Currency)),
		voiceModels: make(map[types.VoiceModel]VoiceModelRates),
		emailModels: make(map[types.EmailModel]EmailModelRates),
		doc:         doc,
	}

	if doc.Version == "" {
		c.missing("version")
	}
	if doc.Currency == "" {
		c.missing("currency")
	}
	cat.LastUpdated = c.timestamp("last_updated", doc.LastUpdated)

	buildVoice(c, cat, doc.VoiceAgent)
	buildEmail(c, cat, doc.EmailAgent)
	buildShared(c, cat, doc.Shared)

	if len(c.problems) == 0 {
		for _, rule := range DefaultValidationRules() {
			if err := rule(cat); err != nil {
				c.problems = append(c.problems, err.Error())
			}
		}
	}

	if err := errors.Problems(errors.TypeConfig, "invalid pricing catalog", c.problems); err != nil {
		return nil, err
	}
	return cat, nil
}

func buildVoice(c *checker, cat *Catalog, s *VoiceAgentSection) {
	if s == nil {
		c.missing("voice_agent")
		return
	}

	if s.ACS == nil {
		c.missing("voice_agent.acs")
	} else {
		cat.Telephony = TelephonyRates{
			PhoneNumberMonthly: c.rate("voice_agent.acs.phone_number_monthly", s.ACS.PhoneNumberMonthly),
			InboundPerMinute:   c.rate("voice_agent.acs.inbound_per_minute", s.ACS.InboundPerMinute),
		}
	}

	if s.ContainerApps == nil {
		c.missing("voice_agent.container_apps")
	} else {
		ca := s.ContainerApps
		p := "voice_agent.container_apps."
		cat.Containers = ContainerRates{
			VCPUPerReplica:       c.rate(p+"vcpu_per_replica", ca.VCPUPerReplica),
			MemoryGiBPerReplica:  c.rate(p+"memory_gib_per_replica", ca.MemoryGiBPerReplica),
			VCPUPerSecond:        c.rate(p+"vcpu_per_second", ca.VCPUPerSecond),
			MemoryPerGiBSecond:   c.rate(p+"memory_per_gib_second", ca.MemoryPerGiBSecond),
			IdlePerReplicaSecond: c.rate(p+"idle_per_replica_second", ca.IdlePerReplicaSecond),
			RequestsPerMillion:   c.rate(p+"requests_per_million", ca.RequestsPerMillion),
			FreeVCPUSeconds:      c.rate(p+"free_vcpu_seconds", ca.FreeVCPUSeconds),
			FreeGiBSeconds:       c.rate(p+"free_gib_seconds", ca.FreeGiBSeconds),
			FreeRequests:         c.rate(p+"free_requests", ca.FreeRequests),
		}
	}

	if s.Audio == nil {
		c.missing("voice_agent.audio")
	} else {
		cat.Audio = AudioConversion{
			TokensPerMinute: c.rate("voice_agent.audio.tokens_per_minute", s.Audio.TokensPerMinute),
			InputRatio:      c.ratio("voice_agent.audio.input_ratio", s.Audio.InputRatio),
		}
	}

	for _, key := range sortedKeys(s.Models) {
		m := s.Models[key]
		model := types.VoiceModel(key)
		p := "voice_agent.models." + key
		if !model.IsValid() {
			c.problems = append(c.problems, fmt.Sprintf("%s is not a known voice model", p))
			continue
		}
		name := m.DisplayName
		if name == "" {
			name = key
		}
		cat.voiceModels[model] = VoiceModelRates{
			Key:                   model,
			DisplayName:           name,
			AudioInputPerMillion:  c.rate(p+".audio_input_per_million", m.AudioInputPerMillion),
			AudioOutputPerMillion: c.rate(p+".audio_output_per_million", m.AudioOutputPerMillion),
			TextInputPerMillion:   c.rate(p+".text_input_per_million", m.TextInputPerMillion),
			TextOutputPerMillion:  c.rate(p+".text_output_per_million", m.TextOutputPerMillion),
			TokensPerCall:         c.rate(p+".tokens_per_call", m.TokensPerCall),
		}
	}
}

func buildEmail(c *checker, cat *Catalog, s *EmailAgentSection) {
	if s == nil {
		c.missing("email_agent")
		return
	}

	if s.AzureFunctions == nil {
		c.missing("email_agent.azure_functions")
	} else {
		af := s.AzureFunctions
		p := "email_agent.azure_functions."
		cat.Functions = FunctionRates{
			ExecutionsPerMillion: c.rate(p+"executions_per_million", af.ExecutionsPerMillion),
			PerGiBSecond:         c.rate(p+"per_gib_second", af.PerGiBSecond),
			FreeExecutions:       c.rate(p+"free_executions", af.FreeExecutions),
			FreeGiBSeconds:       c.rate(p+"free_gib_seconds", af.FreeGiBSeconds),
			SecondsPerExecution:  c.rate(p+"seconds_per_execution", af.SecondsPerExecution),
			MemoryGB:             c.rate(p+"memory_gb", af.MemoryGB),
		}
	}

	if s.Tokens == nil {
		c.missing("email_agent.tokens")
	} else {
		cat.EmailTokens = EmailTokens{
			BaseInput:     c.rate("email_agent.tokens.base_input_tokens", s.Tokens.BaseInputTokens),
			RAGAdditional: c.rate("email_agent.tokens.rag_additional_tokens", s.Tokens.RAGAdditionalTokens),
			Output:        c.rate("email_agent.tokens.output_tokens", s.Tokens.OutputTokens),
		}
	}

	if s.OperatingHours == nil {
		c.missing("email_agent.operating_hours")
	} else {
		oh := s.OperatingHours
		cat.OperatingHours = OperatingHours{
			BusinessHoursPerMonth:   c.rate("email_agent.operating_hours.business_hours_per_month", oh.BusinessHoursPerMonth),
			FullTimeHoursPerMonth:   c.rate("email_agent.operating_hours.full_time_hours_per_month", oh.FullTimeHoursPerMonth),
			BusinessHoursDefinition: oh.BusinessHoursDefinition,
		}
	}

	for _, key := range sortedKeys(s.Models) {
		m := s.Models[key]
		model := types.EmailModel(key)
		p := "email_agent.models." + key
		if !model.IsValid() {
			c.problems = append(c.problems, fmt.Sprintf("%s is not a known email model", p))
			continue
		}
		name := m.DisplayName
		if name == "" {
			name = key
		}
		cat.emailModels[model] = EmailModelRates{
			Key:              model,
			DisplayName:      name,
			InputPerMillion:  c.rate(p+".input_per_million", m.InputPerMillion),
			OutputPerMillion: c.rate(p+".output_per_million", m.OutputPerMillion),
		}
	}
}

func buildShared(c *checker, cat *Catalog, s *SharedSection) {
	if s == nil || s.BlobStorage == nil {
		c.missing("shared.blob_storage")
		return
	}
	bs := s.BlobStorage
	cat.BlobStorage = BlobStorageRates{
		MBPerPage:               c.rate("shared.blob_storage.mb_per_page", bs.MBPerPage),
		IndexOverheadMultiplier: c.rate("shared.blob_storage.index_overhead_multiplier", bs.IndexOverheadMultiplier),
		HotTierPerGBMonth:       c.rate("shared.blob_storage.hot_tier_per_gb_month", bs.HotTierPerGBMonth),
	}
}

// validateCurrency ensures the currency is an ISO-style code
func validateCurrency(c *Catalog) error {
	if len(c.Currency) != 3 {
		return fmt.Errorf("currency %q is not a three-letter code", c.Currency)
	}
	return nil
}

// validateOperatingHours ensures business hours fit inside the full month
func validateOperatingHours(c *Catalog) error {
	h := c.OperatingHours
	if !h.FullTimeHoursPerMonth.IsPositive() {
		return fmt.Errorf("email_agent.operating_hours.full_time_hours_per_month must be positive")
	}
	if h.BusinessHoursPerMonth.GreaterThan(h.FullTimeHoursPerMonth) {
		return fmt.Errorf("business_hours_per_month (%s) exceeds full_time_hours_per_month (%s)",
			h.BusinessHoursPerMonth, h.FullTimeHoursPerMonth)
	}
	return nil
}

// validateModelsPresent ensures both agents have at least one priced model
func validateModelsPresent(c *Catalog) error {
	var missing []string
	if len(c.voiceModels) == 0 {
		missing = append(missing, "voice_agent.models")
	}
	if len(c.emailModels) == 0 {
		missing = append(missing, "email_agent.models")
	}
	if len(missing) > 0 {
		return fmt.Errorf("no models priced in %s", strings.Join(missing, ", "))
	}
	return nil
}

// checker collects field problems while a document is resolved
type checker struct {
	problems []string
}

func (c *checker) missing(path string) {
	c.problems = append(c.problems, path+" is missing")
}

func (c *checker) rate(path string, v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		c.missing(path)
		return decimal.Zero
	}
	if v.IsNegative() {
		c.problems = append(c.problems, fmt.Sprintf("%s must not be negative (got %s)", path, v))
		return decimal.Zero
	}
	return *v
}

func (c *checker) ratio(path string, v *decimal.Decimal) decimal.Decimal {
	r := c.rate(path, v)
	if r.GreaterThan(decimal.NewFromInt(1)) {
		c.problems = append(c.problems, fmt.Sprintf("%s must be between 0 and 1 (got %s)", path, r))
		return decimal.Zero
	}
	return r
}

func (c *checker) timestamp(path, v string) time.Time {
	if v == "" {
		c.missing(path)
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	c.problems = append(c.problems, fmt.Sprintf("%s %q is not an RFC 3339 timestamp or date", path, v))
	return time.Time{}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
