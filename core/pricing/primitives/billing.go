// Package primitives - Billing primitives
// Flat unit pricing, per-million pricing and free allowances.
package primitives

import (
	"fmt"

	"github.com/shopspring/decimal"

	"agent-cost/core/types"
)

// Line names a cost component before it is priced
type Line struct {
	Name     string
	Label    string
	Category types.Category
	Measure  string
}

func (l Line) component() types.CostComponent {
	return types.CostComponent{
		Name:     l.Name,
		Label:    l.Label,
		Category: l.Category,
		Measure:  l.Measure,
	}
}

// Linear prices every unit of quantity at rate
func Linear(line Line, quantity, rate decimal.Decimal, rateUnit string) types.CostComponent {
	return AboveAllowance(line, quantity, decimal.Zero, rate, rateUnit)
}

// AboveAllowance prices only the part of quantity above a free allowance
func AboveAllowance(line Line, quantity, allowance, rate decimal.Decimal, rateUnit string) types.CostComponent {
	c := line.component()
	c.Quantity = quantity
	c.Allowance = allowance
	c.Billable = Billable(quantity, allowance)
	c.Rate = rate
	c.RateUnit = rateUnit
	c.Amount = c.Billable.Mul(rate)
	c.Formula = formula(line.Measure, allowance, rate, rateUnit, false)
	return c
}

// PerMillion prices quantity at a rate quoted per million units
func PerMillion(line Line, quantity, ratePerMillion decimal.Decimal) types.CostComponent {
	return AboveAllowancePerMillion(line, quantity, decimal.Zero, ratePerMillion)
}

// AboveAllowancePerMillion prices the part of quantity above a free
// allowance at a rate quoted per million units
func AboveAllowancePerMillion(line Line, quantity, allowance, ratePerMillion decimal.Decimal) types.CostComponent {
	c := line.component()
	c.Quantity = quantity
	c.Allowance = allowance
	c.Billable = Billable(quantity, allowance)
	c.Rate = ratePerMillion
	c.RateUnit = "per 1M " + line.Measure
	c.Amount = c.Billable.Mul(ratePerMillion).Shift(-6)
	c.Formula = formula(line.Measure, allowance, ratePerMillion, c.RateUnit, true)
	return c
}

// Apportioned records an amount that was derived elsewhere (e.g. a share of
// a blended rate) with the quantity it relates to.
func Apportioned(line Line, quantity, amount decimal.Decimal, formula string) types.CostComponent {
	c := line.component()
	c.Quantity = quantity
	c.Billable = quantity
	c.Amount = NonNegative(amount)
	c.Formula = formula
	return c
}

// Billable returns quantity minus allowance, floored at zero
func Billable(quantity, allowance decimal.Decimal) decimal.Decimal {
	return NonNegative(NonNegative(quantity).Sub(NonNegative(allowance)))
}

// FreeTier reports consumption of a monthly allowance
func FreeTier(metric string, used, allowance decimal.Decimal) types.FreeTierUsage {
	return types.FreeTierUsage{
		Metric:    metric,
		Used:      used,
		Allowance: allowance,
		Percent:   Percent(used, allowance),
		Exceeded:  used.GreaterThan(allowance),
	}
}

func formula(measure string, allowance, rate decimal.Decimal, rateUnit string, perMillion bool) string {
	qty := measure
	if allowance.IsPositive() {
		qty = fmt.Sprintf("max(0, %s - %s)", measure, allowance.String())
	}
	if perMillion {
		return fmt.Sprintf("%s / 1M * %s", qty, rate.String())
	}
	return fmt.Sprintf("%s * %s %s", qty, rate.String(), rateUnit)
}
