// Package catalog - Pricing catalog document format
// The document is the on-disk shape. Every rate is a pointer so a missing
// field can be told apart from an explicit zero.
package catalog

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"agent-cost/internal/errors"
)

// Document is the serialized pricing catalog
type Document struct {
	Version     string             `json:"version"`
	Currency    string             `json:"currency"`
	LastUpdated string             `json:"last_updated"`
	VoiceAgent  *VoiceAgentSection `json:"voice_agent"`
	EmailAgent  *EmailAgentSection `json:"email_agent"`
	Shared      *SharedSection     `json:"shared"`
}

// VoiceAgentSection holds telephony, hosting and realtime model rates
type VoiceAgentSection struct {
	ACS           *ACSSection                  `json:"acs"`
	ContainerApps *ContainerAppsSection        `json:"container_apps"`
	Audio         *AudioSection                `json:"audio"`
	Models        map[string]VoiceModelSection `json:"models"`
}

// ACSSection holds Azure Communication Services telephony rates
type ACSSection struct {
	PhoneNumberMonthly *decimal.Decimal `json:"phone_number_monthly"`
	InboundPerMinute   *decimal.Decimal `json:"inbound_per_minute"`
}

// ContainerAppsSection holds container hosting rates and free allowances
type ContainerAppsSection struct {
	VCPUPerReplica       *decimal.Decimal `json:"vcpu_per_replica"`
	MemoryGiBPerReplica  *decimal.Decimal `json:"memory_gib_per_replica"`
	VCPUPerSecond        *decimal.Decimal `json:"vcpu_per_second"`
	MemoryPerGiBSecond   *decimal.Decimal `json:"memory_per_gib_second"`
	IdlePerReplicaSecond *decimal.Decimal `json:"idle_per_replica_second"`
	RequestsPerMillion   *decimal.Decimal `json:"requests_per_million"`
	FreeVCPUSeconds      *decimal.Decimal `json:"free_vcpu_seconds"`
	FreeGiBSeconds       *decimal.Decimal `json:"free_gib_seconds"`
	FreeRequests         *decimal.Decimal `json:"free_requests"`
}

// AudioSection converts call minutes into audio tokens
type AudioSection struct {
	TokensPerMinute *decimal.Decimal `json:"tokens_per_minute"`
	InputRatio      *decimal.Decimal `json:"input_ratio"`
}

// VoiceModelSection holds one realtime model's token rates
type VoiceModelSection struct {
	DisplayName           string           `json:"display_name"`
	AudioInputPerMillion  *decimal.Decimal `json:"audio_input_per_million"`
	AudioOutputPerMillion *decimal.Decimal `json:"audio_output_per_million"`
	TextInputPerMillion   *decimal.Decimal `json:"text_input_per_million"`
	TextOutputPerMillion  *decimal.Decimal `json:"text_output_per_million"`
	TokensPerCall         *decimal.Decimal `json:"tokens_per_call"`
}

// EmailAgentSection holds serverless, model and token settings
type EmailAgentSection struct {
	AzureFunctions *AzureFunctionsSection       `json:"azure_functions"`
	Models         map[string]EmailModelSection `json:"models"`
	Tokens         *TokensSection               `json:"tokens"`
	OperatingHours *OperatingHoursSection       `json:"operating_hours"`
}

// AzureFunctionsSection holds serverless function rates and free allowances
type AzureFunctionsSection struct {
	ExecutionsPerMillion *decimal.Decimal `json:"executions_per_million"`
	PerGiBSecond         *decimal.Decimal `json:"per_gib_second"`
	FreeExecutions       *decimal.Decimal `json:"free_executions"`
	FreeGiBSeconds       *decimal.Decimal `json:"free_gib_seconds"`
	SecondsPerExecution  *decimal.Decimal `json:"seconds_per_execution"`
	MemoryGB             *decimal.Decimal `json:"memory_gb"`
}

// EmailModelSection holds one text model's token rates
type EmailModelSection struct {
	DisplayName      string           `json:"display_name"`
	InputPerMillion  *decimal.Decimal `json:"input_per_million"`
	OutputPerMillion *decimal.Decimal `json:"output_per_million"`
}

// TokensSection holds per-email token counts
type TokensSection struct {
	BaseInputTokens     *decimal.Decimal `json:"base_input_tokens"`
	RAGAdditionalTokens *decimal.Decimal `json:"rag_additional_tokens"`
	OutputTokens        *decimal.Decimal `json:"output_tokens"`
}

// OperatingHoursSection holds the monthly operating window constants
type OperatingHoursSection struct {
	BusinessHoursPerMonth   *decimal.Decimal `json:"business_hours_per_month"`
	FullTimeHoursPerMonth   *decimal.Decimal `json:"full_time_hours_per_month"`
	BusinessHoursDefinition string           `json:"business_hours_definition"`
}

// SharedSection holds infrastructure shared by both agents
type SharedSection struct {
	BlobStorage *BlobStorageSection `json:"blob_storage"`
}

// BlobStorageSection holds RAG document storage sizing and rates
type BlobStorageSection struct {
	MBPerPage               *decimal.Decimal `json:"mb_per_page"`
	IndexOverheadMultiplier *decimal.Decimal `json:"index_overhead_multiplier"`
	HotTierPerGBMonth       *decimal.Decimal `json:"hot_tier_per_gb_month"`
}

// Format is a catalog serialization format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension; JSON is the default
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeDocument parses raw catalog bytes. YAML is normalized through JSON
// so both formats share one set of field names and decimal handling.
func DecodeDocument(data []byte, format Format) (*Document, error) {
	if format == FormatYAML {
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, errors.Wrap(errors.TypeConfig, "malformed YAML pricing catalog", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, errors.Wrap(errors.TypeConfig, "pricing catalog cannot be represented as JSON", err)
		}
		data = converted
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "malformed pricing catalog", err)
	}
	return &doc, nil
}
