package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tenantcore/internal/models"
)

func TestRollupBasePriceIgnoresContractOverride(t *testing.T) {
	tenant := models.Tenant{
		TenantPlan: &models.TenantPlan{
			Plan: &models.Plan{
				BasePrice: decimal.NewFromInt(25000),
				AnnualFee: decimal.NewFromInt(300000),
			},
			ContractPriceOverride: decimal.NewNullDecimal(decimal.NewFromInt(18000)),
		},
	}
	assert.True(t, decimal.NewFromInt(25000).Equal(rollupBasePrice(tenant)))
}

func TestRollupBasePriceNoAnnualFeeFallback(t *testing.T) {
	// a plan priced only by annual fee contributes nothing to the rollup
	tenant := models.Tenant{
		TenantPlan: &models.TenantPlan{
			Plan: &models.Plan{AnnualFee: decimal.NewFromInt(1200000)},
		},
	}
	assert.True(t, rollupBasePrice(tenant).IsZero())
}

func TestRollupBasePriceWithoutContract(t *testing.T) {
	assert.True(t, rollupBasePrice(models.Tenant{}).IsZero())
	assert.True(t, rollupBasePrice(models.Tenant{TenantPlan: &models.TenantPlan{}}).IsZero())
}
