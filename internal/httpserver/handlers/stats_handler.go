package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/contract"
	"tenantcore/internal/models"
)

// TenantStats reports tenant counts per contract state plus the monthly
// revenue projection over billable tenants.
func TenantStats(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tenants []models.Tenant
		err := db.Preload("TenantPlan.Plan").Find(&tenants).Error
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		inputs := make([]contract.StatsInput, 0, len(tenants))
		for _, t := range tenants {
			inputs = append(inputs, contract.StatsInput{
				Snapshot:  contract.SnapshotOf(t),
				BasePrice: rollupBasePrice(t),
			})
		}

		sum := contract.Stats(time.Now(), inputs)
		respondJSON(w, map[string]any{
			"counts":        sum.Counts,
			"total_revenue": sum.TotalRevenue,
		})
	}
}

// rollupBasePrice is the revenue contribution for the dashboard rollup:
// the plan's list base price only. Contract price overrides and the
// annual-fee fallback belong to the billing calculation, not this figure.
func rollupBasePrice(t models.Tenant) decimal.Decimal {
	if t.TenantPlan == nil || t.TenantPlan.Plan == nil {
		return decimal.Zero
	}
	return t.TenantPlan.Plan.BasePrice
}
