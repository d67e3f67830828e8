package compare

import (
	"fmt"

	"github.com/shopspring/decimal"

	"agent-cost/core/catalog"
	"agent-cost/core/engine"
	"agent-cost/core/pricing/primitives"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Rule identifies a recommendation rule
type Rule string

const (
	RuleCheaperVoiceModel Rule = "cheaper_voice_model"
	RuleReduceReplicas    Rule = "reduce_replicas"
	RuleCheaperEmailModel Rule = "cheaper_email_model"
	RuleSlowerPolling     Rule = "slower_polling"
	RuleBusinessHours     Rule = "business_hours_polling"
)

// Policy holds the thresholds the recommendation rules fire on
type Policy struct {
	// ReplicaThreshold is the replica count from which a reduction is suggested
	ReplicaThreshold int `json:"replica_threshold" yaml:"replica_threshold"`

	// TargetReplicas is the suggested replica count
	TargetReplicas int `json:"target_replicas" yaml:"target_replicas"`

	// ModelSwitchMinEmails is the monthly email volume above which a
	// cheaper email model is suggested
	ModelSwitchMinEmails int64 `json:"model_switch_min_emails" yaml:"model_switch_min_emails"`

	// LowVolumeMaxEmails is the monthly email volume below which polling
	// can be relaxed
	LowVolumeMaxEmails int64 `json:"low_volume_max_emails" yaml:"low_volume_max_emails"`

	// FrequentPollingMinutes is the interval considered too aggressive
	FrequentPollingMinutes float64 `json:"frequent_polling_minutes" yaml:"frequent_polling_minutes"`

	// TargetPollingMinutes is the suggested interval
	TargetPollingMinutes float64 `json:"target_polling_minutes" yaml:"target_polling_minutes"`
}

// DefaultPolicy returns the standard thresholds
func DefaultPolicy() Policy {
	return Policy{
		ReplicaThreshold:       2,
		TargetReplicas:         1,
		ModelSwitchMinEmails:   100,
		LowVolumeMaxEmails:     3000,
		FrequentPollingMinutes: 1,
		TargetPollingMinutes:   5,
	}
}

// Validate checks the thresholds are usable
func (p Policy) Validate() error {
	var problems []string
	if p.TargetReplicas < 0 {
		problems = append(problems, "target_replicas must not be negative")
	}
	if p.ReplicaThreshold <= p.TargetReplicas {
		problems = append(problems, "replica_threshold must exceed target_replicas")
	}
	if !(p.TargetPollingMinutes > 0) || !(p.FrequentPollingMinutes > 0) {
		problems = append(problems, "polling minutes must be positive")
	}
	return errors.Problems(errors.TypeInput, "invalid recommendation policy", problems)
}

// Recommendation is one suggested configuration change
type Recommendation struct {
	Rule      Rule            `json:"rule"`
	Agent     types.AgentKind `json:"agent"`
	Title     string          `json:"title"`
	Detail    string          `json:"detail"`
	Current   string          `json:"current"`
	Suggested string          `json:"suggested"`

	// MonthlySavings is never negative. The polling rules fire on their
	// conditions and may report zero while functions stay in the free tier.
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
}

// Recommend evaluates every rule against the given configurations. Either
// configuration may be nil. Rules are independent. Model and replica changes
// are only returned with a positive saving; the polling rules are returned
// whenever their conditions hold.
func Recommend(voice *types.VoiceUsage, email *types.EmailUsage, cat *catalog.Catalog, policy Policy) ([]Recommendation, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var recs []Recommendation
	if voice != nil {
		current, err := engine.Voice(*voice, cat)
		if err != nil {
			return nil, err
		}
		for _, rule := range []voiceRule{cheaperVoiceModel, reduceReplicas} {
			rec, err := rule(*voice, current, cat, policy)
			if err != nil {
				return nil, err
			}
			if rec != nil && rec.MonthlySavings.IsPositive() {
				recs = append(recs, *rec)
			}
		}
	}
	if email != nil {
		current, err := engine.Email(*email, cat)
		if err != nil {
			return nil, err
		}
		for _, rule := range []emailRule{cheaperEmailModel, slowerPolling, businessHoursPolling} {
			rec, err := rule(*email, current, cat, policy)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				recs = append(recs, *rec)
			}
		}
	}
	return recs, nil
}

// TotalSavings sums the savings of a set of recommendations
func TotalSavings(recs []Recommendation) decimal.Decimal {
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(r.MonthlySavings)
	}
	return total
}

type voiceRule func(types.VoiceUsage, *types.CostBreakdown, *catalog.Catalog, Policy) (*Recommendation, error)

type emailRule func(types.EmailUsage, *types.CostBreakdown, *catalog.Catalog, Policy) (*Recommendation, error)

// cheaperVoiceModel fires when the selected model has the highest AI cost
// at the current volume. Savings count the AI cost only.
func cheaperVoiceModel(usage types.VoiceUsage, current *types.CostBreakdown, cat *catalog.Catalog, _ Policy) (*Recommendation, error) {
	table, err := VoiceModels(usage, cat)
	if err != nil {
		return nil, err
	}
	selected, ok := table.Selected()
	if !ok {
		return nil, nil
	}

	cheapest := selected
	for _, r := range table.Rows {
		if r.Subtotal.GreaterThan(selected.Subtotal) {
			return nil, nil
		}
		if r.Subtotal.LessThan(cheapest.Subtotal) {
			cheapest = r
		}
	}
	if cheapest.Key == selected.Key {
		return nil, nil
	}

	return &Recommendation{
		Rule:           RuleCheaperVoiceModel,
		Agent:          types.AgentVoice,
		Title:          "Switch to a cheaper voice model",
		Detail:         fmt.Sprintf("%s has the highest AI cost at this call volume; %s is the cheapest", selected.Label, cheapest.Label),
		Current:        selected.Key,
		Suggested:      cheapest.Key,
		MonthlySavings: selected.Subtotal.Sub(cheapest.Subtotal),
	}, nil
}

// reduceReplicas fires at ReplicaThreshold or more always-on replicas
func reduceReplicas(usage types.VoiceUsage, current *types.CostBreakdown, cat *catalog.Catalog, policy Policy) (*Recommendation, error) {
	if usage.MinReplicas < policy.ReplicaThreshold {
		return nil, nil
	}
	variant := usage
	variant.MinReplicas = policy.TargetReplicas
	reduced, err := engine.Voice(variant, cat)
	if err != nil {
		return nil, err
	}

	return &Recommendation{
		Rule:           RuleReduceReplicas,
		Agent:          types.AgentVoice,
		Title:          "Reduce always-on replicas",
		Detail:         fmt.Sprintf("%s keeps more warm capacity than the call volume needs", ReplicaLabel(usage.MinReplicas)),
		Current:        ReplicaLabel(usage.MinReplicas),
		Suggested:      ReplicaLabel(policy.TargetReplicas),
		MonthlySavings: current.Total.Sub(reduced.Total),
	}, nil
}

// cheaperEmailModel fires when a cheaper model exists and the volume makes
// the difference noticeable
func cheaperEmailModel(usage types.EmailUsage, current *types.CostBreakdown, cat *catalog.Catalog, policy Policy) (*Recommendation, error) {
	if current.Volume.Interactions <= policy.ModelSwitchMinEmails {
		return nil, nil
	}
	table, err := EmailModels(usage, cat)
	if err != nil {
		return nil, err
	}
	cheapest, ok := table.Cheapest()
	if !ok || cheapest.Key == usage.Model.String() {
		return nil, nil
	}
	selected, ok := table.Selected()
	if !ok {
		return nil, nil
	}
	savings := current.Total.Sub(cheapest.Total)
	if !savings.IsPositive() {
		return nil, nil
	}

	return &Recommendation{
		Rule:           RuleCheaperEmailModel,
		Agent:          types.AgentEmail,
		Title:          "Switch to a cheaper email model",
		Detail:         fmt.Sprintf("%d emails per month on %s; %s answers for less", current.Volume.Interactions, selected.Label, cheapest.Label),
		Current:        selected.Key,
		Suggested:      cheapest.Key,
		MonthlySavings: savings,
	}, nil
}

// slowerPolling fires when the mailbox is polled very frequently for a low
// email volume. Savings count the function cost only.
func slowerPolling(usage types.EmailUsage, current *types.CostBreakdown, cat *catalog.Catalog, policy Policy) (*Recommendation, error) {
	if usage.PollingIntervalMinutes != policy.FrequentPollingMinutes ||
		current.Volume.Interactions >= policy.LowVolumeMaxEmails {
		return nil, nil
	}
	variant := usage
	variant.PollingIntervalMinutes = policy.TargetPollingMinutes
	relaxed, err := engine.Email(variant, cat)
	if err != nil {
		return nil, err
	}

	return &Recommendation{
		Rule:           RuleSlowerPolling,
		Agent:          types.AgentEmail,
		Title:          "Poll the mailbox less often",
		Detail:         fmt.Sprintf("%s checks per month for %d emails", current.Volume.Checks.Round(0), current.Volume.Interactions),
		Current:        PollingLabel(usage.PollingIntervalMinutes),
		Suggested:      PollingLabel(policy.TargetPollingMinutes),
		MonthlySavings: primitives.NonNegative(current.Subtotal(types.CategoryFunctions).Sub(relaxed.Subtotal(types.CategoryFunctions))),
	}, nil
}

// businessHoursPolling fires when a low-volume mailbox is polled around
// the clock. Savings count the function cost only.
func businessHoursPolling(usage types.EmailUsage, current *types.CostBreakdown, cat *catalog.Catalog, policy Policy) (*Recommendation, error) {
	if usage.BusinessHoursOnly || current.Volume.Interactions >= policy.LowVolumeMaxEmails {
		return nil, nil
	}
	variant := usage
	variant.BusinessHoursOnly = true
	restricted, err := engine.Email(variant, cat)
	if err != nil {
		return nil, err
	}

	return &Recommendation{
		Rule:           RuleBusinessHours,
		Agent:          types.AgentEmail,
		Title:          "Poll during business hours only",
		Detail:         fmt.Sprintf("%s operating hours per month instead of %s", restricted.Volume.OperatingHours, current.Volume.OperatingHours),
		Current:        "Around the clock",
		Suggested:      "Business hours",
		MonthlySavings: primitives.NonNegative(current.Subtotal(types.CategoryFunctions).Sub(restricted.Subtotal(types.CategoryFunctions))),
	}, nil
}
