// Package catalog - Versioned pricing catalog
// A Catalog is immutable after Parse. Engines read rates through typed
// fields and model lookups that fail with a configuration error instead of
// returning a zero rate.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Catalog is a validated pricing snapshot
type Catalog struct {
	Version     string
	Currency    types.Currency
	LastUpdated time.Time

	Telephony      TelephonyRates
	Containers     ContainerRates
	Audio          AudioConversion
	Functions      FunctionRates
	EmailTokens    EmailTokens
	OperatingHours OperatingHours
	BlobStorage    BlobStorageRates

	voiceModels map[types.VoiceModel]VoiceModelRates
	emailModels map[types.EmailModel]EmailModelRates

	doc  *Document
	hash string
}

// TelephonyRates are ACS phone number and call minute rates
type TelephonyRates struct {
	PhoneNumberMonthly decimal.Decimal
	InboundPerMinute   decimal.Decimal
}

// ContainerRates are container hosting sizes, rates and free allowances
type ContainerRates struct {
	VCPUPerReplica       decimal.Decimal
	MemoryGiBPerReplica  decimal.Decimal
	VCPUPerSecond        decimal.Decimal
	MemoryPerGiBSecond   decimal.Decimal
	IdlePerReplicaSecond decimal.Decimal
	RequestsPerMillion   decimal.Decimal
	FreeVCPUSeconds      decimal.Decimal
	FreeGiBSeconds       decimal.Decimal
	FreeRequests         decimal.Decimal
}

// AudioConversion turns call minutes into audio tokens
type AudioConversion struct {
	TokensPerMinute decimal.Decimal
	InputRatio      decimal.Decimal
}

// OutputRatio is the complement of InputRatio
func (a AudioConversion) OutputRatio() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(a.InputRatio)
}

// VoiceModelRates are one realtime model's per-1M token rates
type VoiceModelRates struct {
	Key                   types.VoiceModel
	DisplayName           string
	AudioInputPerMillion  decimal.Decimal
	AudioOutputPerMillion decimal.Decimal
	TextInputPerMillion   decimal.Decimal
	TextOutputPerMillion  decimal.Decimal
	TokensPerCall         decimal.Decimal
}

// AudioPerMinute is the blended audio cost of one call minute, used for
// comparison tables
func (r VoiceModelRates) AudioPerMinute(a AudioConversion) decimal.Decimal {
	in := a.TokensPerMinute.Mul(a.InputRatio).Mul(r.AudioInputPerMillion)
	out := a.TokensPerMinute.Mul(a.OutputRatio()).Mul(r.AudioOutputPerMillion)
	return in.Add(out).Shift(-6)
}

// FunctionRates are serverless function rates and free allowances
type FunctionRates struct {
	ExecutionsPerMillion decimal.Decimal
	PerGiBSecond         decimal.Decimal
	FreeExecutions       decimal.Decimal
	FreeGiBSeconds       decimal.Decimal
	SecondsPerExecution  decimal.Decimal
	MemoryGB             decimal.Decimal
}

// EmailModelRates are one text model's per-1M token rates
type EmailModelRates struct {
	Key              types.EmailModel
	DisplayName      string
	InputPerMillion  decimal.Decimal
	OutputPerMillion decimal.Decimal
}

// EmailTokens are per-email token counts
type EmailTokens struct {
	BaseInput     decimal.Decimal
	RAGAdditional decimal.Decimal
	Output        decimal.Decimal
}

// InputPerEmail returns the prompt size with or without RAG context
func (t EmailTokens) InputPerEmail(ragEnabled bool) decimal.Decimal {
	if ragEnabled {
		return t.BaseInput.Add(t.RAGAdditional)
	}
	return t.BaseInput
}

// OperatingHours are the monthly operating windows
type OperatingHours struct {
	BusinessHoursPerMonth   decimal.Decimal
	FullTimeHoursPerMonth   decimal.Decimal
	BusinessHoursDefinition string
}

// For returns the window selected by the business-hours flag
func (h OperatingHours) For(businessHoursOnly bool) decimal.Decimal {
	if businessHoursOnly {
		return h.BusinessHoursPerMonth
	}
	return h.FullTimeHoursPerMonth
}

// BlobStorageRates size and price the RAG document store
type BlobStorageRates struct {
	MBPerPage               decimal.Decimal
	IndexOverheadMultiplier decimal.Decimal
	HotTierPerGBMonth       decimal.Decimal
}

// VoiceModel returns the rates of a voice model
func (c *Catalog) VoiceModel(m types.VoiceModel) (VoiceModelRates, error) {
	rates, ok := c.voiceModels[m]
	if !ok {
		return VoiceModelRates{}, errors.Configf("pricing catalog %s has no voice model %q", c.Version, m).
			WithContext("field", "voice_agent.models."+string(m))
	}
	return rates, nil
}

// EmailModel returns the rates of an email model
func (c *Catalog) EmailModel(m types.EmailModel) (EmailModelRates, error) {
	rates, ok := c.emailModels[m]
	if !ok {
		return EmailModelRates{}, errors.Configf("pricing catalog %s has no email model %q", c.Version, m).
			WithContext("field", "email_agent.models."+string(m))
	}
	return rates, nil
}

// VoiceModels returns the priced voice models in key order
func (c *Catalog) VoiceModels() []types.VoiceModel {
	out := make([]types.VoiceModel, 0, len(c.voiceModels))
	for m := range c.voiceModels {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EmailModels returns the priced email models in key order
func (c *Catalog) EmailModels() []types.EmailModel {
	out := make([]types.EmailModel, 0, len(c.emailModels))
	for m := range c.emailModels {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Hash is a short content hash of the source document
func (c *Catalog) Hash() string {
	return c.hash
}

// Document returns the document the catalog was parsed from
func (c *Catalog) Document() *Document {
	return c.doc
}

// MarshalJSON serializes the catalog in document form
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.doc)
}

// Summary describes a catalog for listings and health output
type Summary struct {
	Version     string   `json:"version"`
	Currency    string   `json:"currency"`
	LastUpdated string   `json:"last_updated"`
	Hash        string   `json:"hash"`
	VoiceModels []string `json:"voice_models"`
	EmailModels []string `json:"email_models"`
}

// Summary returns the catalog summary
func (c *Catalog) Summary() Summary {
	s := Summary{
		Version:     c.Version,
		Currency:    c.Currency.String(),
		LastUpdated: c.LastUpdated.Format(time.RFC3339),
		Hash:        c.hash,
	}
	for _, m := range c.VoiceModels() {
		s.VoiceModels = append(s.VoiceModels, string(m))
	}
	for _, m := range c.EmailModels() {
		s.EmailModels = append(s.EmailModels, string(m))
	}
	return s
}

func contentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])[:16]
}
