// Package types - Usage configuration types
package types

import (
	"math"

	"agent-cost/internal/errors"
)

// VoiceUsage describes the traffic and infrastructure of a voice agent
type VoiceUsage struct {
	// MinutesPerCall is the average call length
	MinutesPerCall float64 `json:"minutes_per_call" yaml:"minutes_per_call"`

	// CallsPerDay is the average daily call volume. Zero is accepted and
	// produces an undefined cost per call.
	CallsPerDay int `json:"calls_per_day" yaml:"calls_per_day"`

	// Model selects the realtime model
	Model VoiceModel `json:"model" yaml:"model"`

	// PhoneNumbers is the number of rented phone numbers
	PhoneNumbers int `json:"phone_numbers" yaml:"phone_numbers"`

	// MinReplicas is 0 for on-demand hosting, N for N always-on replicas
	MinReplicas int `json:"min_replicas" yaml:"min_replicas"`

	// BusinessHoursOnly shrinks the always-on window to business hours
	BusinessHoursOnly bool `json:"business_hours_only" yaml:"business_hours_only"`
}

// DefaultVoiceUsage mirrors the dashboard's initial widget values
func DefaultVoiceUsage() VoiceUsage {
	return VoiceUsage{
		MinutesPerCall: 5,
		CallsPerDay:    50,
		Model:          DefaultVoiceModel,
		PhoneNumbers:   1,
		MinReplicas:    0,
	}
}

// Validate checks the usage is computable. A key outside the model enum is
// a configuration error; whether the catalog prices it is checked by the
// catalog lookup.
func (u VoiceUsage) Validate() error {
	if !u.Model.IsValid() {
		return errors.Configf("unknown voice model %q", string(u.Model))
	}
	var problems []string
	if !(u.MinutesPerCall > 0) || math.IsInf(u.MinutesPerCall, 0) {
		problems = append(problems, "minutes_per_call must be a positive number")
	}
	if u.CallsPerDay < 0 {
		problems = append(problems, "calls_per_day must not be negative")
	}
	if u.PhoneNumbers < 1 {
		problems = append(problems, "phone_numbers must be at least 1")
	}
	if u.MinReplicas < 0 {
		problems = append(problems, "min_replicas must not be negative")
	}
	return errors.Problems(errors.TypeInput, "invalid voice usage", problems)
}

// EmailUsage describes the traffic and polling setup of an email agent
type EmailUsage struct {
	// EmailsPerDay is the average daily inbound email volume
	EmailsPerDay int `json:"emails_per_day" yaml:"emails_per_day"`

	// PollingIntervalMinutes is how often the mailbox is checked
	PollingIntervalMinutes float64 `json:"polling_interval_minutes" yaml:"polling_interval_minutes"`

	// Model selects the text model
	Model EmailModel `json:"model" yaml:"model"`

	// RAGEnabled injects retrieved manual pages into every prompt
	RAGEnabled bool `json:"rag_enabled" yaml:"rag_enabled"`

	// ManualPageCount is the size of the indexed document set
	ManualPageCount int `json:"manual_page_count" yaml:"manual_page_count"`

	// BusinessHoursOnly restricts polling to business hours
	BusinessHoursOnly bool `json:"business_hours_only" yaml:"business_hours_only"`
}

// DefaultEmailUsage returns a small single-mailbox setup
func DefaultEmailUsage() EmailUsage {
	return EmailUsage{
		EmailsPerDay:           50,
		PollingIntervalMinutes: 5,
		Model:                  DefaultEmailModel,
		RAGEnabled:             true,
		ManualPageCount:        200,
	}
}

// Validate checks the usage is computable
func (u EmailUsage) Validate() error {
	if !u.Model.IsValid() {
		return errors.Configf("unknown email model %q", string(u.Model))
	}
	var problems []string
	if u.EmailsPerDay < 0 {
		problems = append(problems, "emails_per_day must not be negative")
	}
	if !(u.PollingIntervalMinutes > 0) || math.IsInf(u.PollingIntervalMinutes, 0) {
		problems = append(problems, "polling_interval_minutes must be a positive number")
	}
	if u.ManualPageCount < 0 {
		problems = append(problems, "manual_page_count must not be negative")
	}
	return errors.Problems(errors.TypeInput, "invalid email usage", problems)
}
