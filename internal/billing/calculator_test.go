package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcore/internal/models"
)

func bundlePlan() *models.Plan {
	return &models.Plan{
		Name:             "Basic 1000",
		PricingType:      models.PricingBundle,
		BasePrice:        decimal.NewFromInt(25000),
		AnnualFee:        decimal.NewFromInt(300000),
		IncludedMails:    1000,
		OverageUnitPrice: decimal.NewFromInt(400),
		TaxRate:          decimal.NewFromInt(10),
	}
}

func TestCalculateBundleWithOverage(t *testing.T) {
	tp := models.TenantPlan{Plan: bundlePlan(), DiscountType: models.DiscountNone}

	got, err := Calculate(tp, 1200)
	require.NoError(t, err)

	assert.Equal(t, Breakdown{
		PlanName:     "Basic 1000",
		BaseAmount:   25000,
		UsageActual:  1200,
		OverageCount: 200,
		UsageCharge:  80000,
		Subtotal:     105000,
		Tax:          10500,
		Total:        115500,
	}, got)
}

func TestCalculateRateDiscount(t *testing.T) {
	tp := models.TenantPlan{
		Plan:          bundlePlan(),
		DiscountType:  models.DiscountRate,
		DiscountValue: decimal.NewFromInt(10),
	}

	got, err := Calculate(tp, 1200)
	require.NoError(t, err)

	assert.Equal(t, int64(94500), got.Subtotal)
	assert.Equal(t, int64(9450), got.Tax)
	assert.Equal(t, int64(103950), got.Total)
}

func TestCalculateFixedDiscountClampsToZero(t *testing.T) {
	tp := models.TenantPlan{
		Plan:          bundlePlan(),
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(200000),
	}

	got, err := Calculate(tp, 1200)
	require.NoError(t, err)

	assert.Equal(t, int64(0), got.Subtotal)
	assert.Equal(t, int64(0), got.Tax)
	assert.Equal(t, int64(0), got.Total)
}

func TestCalculateUnlimitedIgnoresUsage(t *testing.T) {
	plan := bundlePlan()
	plan.PricingType = models.PricingUnlimited
	tp := models.TenantPlan{Plan: plan, DiscountType: models.DiscountNone}

	got, err := Calculate(tp, 999999)
	require.NoError(t, err)

	assert.Equal(t, 0, got.OverageCount)
	assert.Equal(t, int64(0), got.UsageCharge)
	assert.Equal(t, 999999, got.UsageActual)
	assert.Equal(t, int64(25000), got.Subtotal)
}

func TestCalculateOverridePriority(t *testing.T) {
	tp := models.TenantPlan{
		Plan:                  bundlePlan(),
		DiscountType:          models.DiscountNone,
		ContractPriceOverride: decimal.NewNullDecimal(decimal.NewFromInt(18000)),
	}

	got, err := Calculate(tp, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(18000), got.BaseAmount)
}

func TestCalculateAnnualFeeFallback(t *testing.T) {
	plan := bundlePlan()
	plan.BasePrice = decimal.Zero
	plan.AnnualFee = decimal.NewFromInt(300000)
	tp := models.TenantPlan{Plan: plan, DiscountType: models.DiscountNone}

	got, err := Calculate(tp, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), got.BaseAmount)
}

func TestCalculatePerFieldRounding(t *testing.T) {
	// annual fee not divisible by 12: base = 100000/12 = 8333.33...
	// Each output field rounds its own raw value, so subtotal and total
	// come from the unrounded base, not from the rounded 8333.
	plan := bundlePlan()
	plan.BasePrice = decimal.Zero
	plan.AnnualFee = decimal.NewFromInt(100000)
	tp := models.TenantPlan{Plan: plan, DiscountType: models.DiscountNone}

	got, err := Calculate(tp, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(8333), got.BaseAmount)
	assert.Equal(t, int64(8333), got.Subtotal)
	// tax = 8333.33... * 0.10 = 833.33... -> 833
	assert.Equal(t, int64(833), got.Tax)
	// total = 8333.33... + 833.33... = 9166.66... -> 9167, one more than
	// rounded subtotal + rounded tax (8333 + 833 = 9166)
	assert.Equal(t, int64(9167), got.Total)
}

func TestCalculateIsPure(t *testing.T) {
	tp := models.TenantPlan{
		Plan:          bundlePlan(),
		DiscountType:  models.DiscountRate,
		DiscountValue: decimal.NewFromInt(10),
	}

	first, err := Calculate(tp, 1200)
	require.NoError(t, err)
	second, err := Calculate(tp, 1200)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateMissingPlanFailsFast(t *testing.T) {
	_, err := Calculate(models.TenantPlan{}, 100)
	assert.ErrorIs(t, err, ErrPlanRequired)
}

func TestCalculateMeteredFromFirstUnit(t *testing.T) {
	plan := &models.Plan{
		Name:             "Pay as you go",
		PricingType:      models.PricingMetered,
		BasePrice:        decimal.NewFromInt(5000),
		IncludedMails:    0,
		OverageUnitPrice: decimal.NewFromInt(100),
		TaxRate:          decimal.NewFromInt(10),
	}
	tp := models.TenantPlan{Plan: plan, DiscountType: models.DiscountNone}

	got, err := Calculate(tp, 42)
	require.NoError(t, err)

	assert.Equal(t, 42, got.OverageCount)
	assert.Equal(t, int64(4200), got.UsageCharge)
	assert.Equal(t, int64(9200), got.Subtotal)
	assert.Equal(t, int64(920), got.Tax)
	assert.Equal(t, int64(10120), got.Total)
}
