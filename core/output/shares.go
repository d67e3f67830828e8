package output

import (
	"github.com/shopspring/decimal"

	"agent-cost/core/pricing/primitives"
	"agent-cost/core/types"
)

// ComponentShare is a component with its share of the agent total
type ComponentShare struct {
	Name     string          `json:"name"`
	Label    string          `json:"label"`
	Category types.Category  `json:"category"`
	Amount   decimal.Decimal `json:"amount"`

	// Percent of the breakdown total; zero when the total is zero
	Percent decimal.Decimal `json:"percent"`

	// PerInteraction is the component cost per call or email; zero when
	// the volume is zero
	PerInteraction decimal.Decimal `json:"per_interaction"`
}

// Shares splits a breakdown total over its components, in component order
func Shares(b *types.CostBreakdown) []ComponentShare {
	if b == nil {
		return nil
	}
	out := make([]ComponentShare, 0, len(b.Components))
	for _, c := range b.Components {
		s := ComponentShare{
			Name:     c.Name,
			Label:    c.Label,
			Category: c.Category,
			Amount:   c.Amount,
			Percent:  primitives.Percent(c.Amount, b.Total),
		}
		if b.PerInteractionDefined {
			s.PerInteraction = c.Amount.Div(decimal.NewFromInt(b.Volume.Interactions))
		}
		out = append(out, s)
	}
	return out
}

// interactionNoun names one unit of volume for an agent
func interactionNoun(agent types.AgentKind) string {
	if agent == types.AgentVoice {
		return "call"
	}
	return "email"
}
