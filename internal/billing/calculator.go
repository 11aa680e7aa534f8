// Package billing computes a deterministic monthly charge breakdown for one
// tenant contract and a usage count. All arithmetic is decimal; binary
// floating point never touches a money value.
package billing

import (
	"errors"

	"github.com/shopspring/decimal"

	"tenantcore/internal/models"
)

// ErrPlanRequired is returned when the tenant plan has no plan association
// loaded. That is a programming error at the call site, not user input.
var ErrPlanRequired = errors.New("billing: tenant plan has no plan loaded")

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Breakdown is the charge preview for one month. Monetary fields carry
// whole currency units; each is rounded independently from the raw decimal
// intermediates (not from each other), so sub-amounts may differ by one
// unit from a round-once-at-the-end figure. That mirrors the invoiced
// amounts and must not be "fixed".
type Breakdown struct {
	PlanName     string `json:"plan_name"`
	BaseAmount   int64  `json:"base_amount"`
	UsageActual  int    `json:"usage_actual"`
	OverageCount int    `json:"overage_count"`
	UsageCharge  int64  `json:"usage_charge"`
	Subtotal     int64  `json:"subtotal"`
	Tax          int64  `json:"tax"`
	Total        int64  `json:"total"`
}

// Calculate derives the monthly charge for one contract and usage count.
// Pure with respect to its inputs. Negative usage is a caller precondition.
func Calculate(tp models.TenantPlan, usage int) (Breakdown, error) {
	plan := tp.Plan
	if plan == nil {
		return Breakdown{}, ErrPlanRequired
	}

	// Base amount priority: per-contract override, then plan monthly
	// price, then the annual fee spread over twelve months.
	var base decimal.Decimal
	switch {
	case tp.ContractPriceOverride.Valid:
		base = tp.ContractPriceOverride.Decimal
	case plan.BasePrice.IsPositive():
		base = plan.BasePrice
	default:
		base = plan.AnnualFee.Div(twelve)
	}

	// Overage. Unlimited plans never bill usage.
	overage := 0
	usageCharge := decimal.Zero
	if plan.PricingType != models.PricingUnlimited {
		if over := usage - plan.IncludedMails; over > 0 {
			overage = over
		}
		usageCharge = decimal.NewFromInt(int64(overage)).Mul(plan.OverageUnitPrice)
	}

	subtotal := base.Add(usageCharge)

	// Discount applies to the subtotal only, never to tax.
	switch tp.DiscountType {
	case models.DiscountRate:
		subtotal = subtotal.Mul(decimal.NewFromInt(1).Sub(tp.DiscountValue.Div(hundred)))
	case models.DiscountFixed:
		subtotal = subtotal.Sub(tp.DiscountValue)
	}
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	tax := subtotal.Mul(plan.TaxRate.Div(hundred))

	return Breakdown{
		PlanName:     plan.Name,
		BaseAmount:   roundUnit(base),
		UsageActual:  usage,
		OverageCount: overage,
		UsageCharge:  roundUnit(usageCharge),
		Subtotal:     roundUnit(subtotal),
		Tax:          roundUnit(tax),
		Total:        roundUnit(subtotal.Add(tax)),
	}, nil
}

// roundUnit rounds to the nearest whole unit, halves away from zero.
func roundUnit(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
